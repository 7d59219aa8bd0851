// Package scene defines the CSG scene graph for the ISR ray marcher.
// A Scene owns every node created through it, assembles leftover roots
// into a single tree, picks a stack-minimal evaluation order and flattens
// the tree into fixed-width records for the shader's stack machine.
package scene

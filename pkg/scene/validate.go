package scene

import (
	"fmt"
	"math"
	"strings"
)

// ValidationSeverity indicates whether a validation finding blocks
// generation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks generation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // offending node, NoNode if scene-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if !e.NodeID.IsValid() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID, e.Message)
}

// ValidationErrors is the set of blocking findings returned by Generate.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "scene: invalid scene: " + strings.Join(msgs, "; ")
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   ValidationErrors
	Warnings []ValidationError
}

// Validate checks the structural invariants of the node arena, the
// finiteness of every parameter and the plausibility of each primitive's
// geometry. It never mutates the scene.
func Validate(s *Scene) ValidationResult {
	var all []ValidationError
	all = append(all, validateLinks(s)...)
	all = append(all, validateAcyclic(s)...)
	all = append(all, validateFinite(s)...)
	all = append(all, validateGeometry(s)...)

	var result ValidationResult
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

func structural(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// validateLinks checks the child invariant (both or neither) and that
// parent back-links agree with the child links.
func validateLinks(s *Scene) []ValidationError {
	var errs []ValidationError

	for _, n := range s.nodes {
		hasL, hasR := n.left.IsValid(), n.right.IsValid()
		switch {
		case hasL != hasR:
			errs = append(errs, structural(n.id, "%s has exactly one operand", n.kind))
			continue
		case n.kind.IsOperator() && !hasL:
			errs = append(errs, structural(n.id, "%s has no operands", n.kind))
			continue
		case n.kind.IsPrimitive() && hasL:
			errs = append(errs, structural(n.id, "%s primitive has operands", n.kind))
			continue
		case !n.kind.IsOperator() && !n.kind.IsPrimitive():
			errs = append(errs, structural(n.id, "unknown kind %s", n.kind))
			continue
		case n.kind.IsPrimitive() && n.shape == nil:
			errs = append(errs, structural(n.id, "%s primitive has no geometry", n.kind))
			continue
		}

		for _, c := range []NodeID{n.left, n.right} {
			if !c.IsValid() {
				continue
			}
			child := s.Node(c)
			if child == nil {
				errs = append(errs, structural(n.id, "operand %s does not exist", c))
				continue
			}
			if child.parent != n.id {
				errs = append(errs, structural(n.id, "operand %s links back to %s", c, child.parent))
			}
		}

		if n.parent.IsValid() {
			p := s.Node(n.parent)
			if p == nil {
				errs = append(errs, structural(n.id, "parent %s does not exist", n.parent))
			} else if p.left != n.id && p.right != n.id {
				errs = append(errs, structural(n.id, "parent %s does not hold it as an operand", n.parent))
			}
		}
	}

	return errs
}

// validateAcyclic checks for cycles using DFS with 3-color marking.
func validateAcyclic(s *Scene) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(s.nodes))
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if a cycle was found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, structural(id, "cycle detected through node %s", id))
			return true
		}

		color[id] = gray
		n := s.nodes[id]
		for _, c := range []NodeID{n.left, n.right} {
			if s.Node(c) == nil {
				continue // dangling, reported by validateLinks
			}
			if visit(c) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for i := range s.nodes {
		if color[i] == white && visit(NodeID(i)) {
			break
		}
	}
	return errs
}

// validateFinite rejects NaN and Inf before they reach the record buffer.
func validateFinite(s *Scene) []ValidationError {
	var errs []ValidationError

	for _, n := range s.nodes {
		c := n.color
		for _, v := range []float32{c.R, c.G, c.B, c.A} {
			if !finite(float64(v)) {
				errs = append(errs, structural(n.id, "color %v is not finite", c))
				break
			}
		}
		if n.shape == nil {
			continue
		}
		p := append(n.shape.params(), n.material.Texture, n.material.Param)
		if len(p) > ParamSlots {
			errs = append(errs, structural(n.id, "%d parameters exceed the %d record slots", len(p), ParamSlots))
		}
		for i, v := range p {
			if !finite(v) {
				errs = append(errs, structural(n.id, "parameter %d is %v", i, v))
				break
			}
			if math.Abs(v) > math.MaxFloat32 {
				errs = append(errs, structural(n.id, "parameter %d (%g) overflows float32", i, v))
				break
			}
		}
	}

	return errs
}

package scene

// analyze computes, bottom-up, the smallest peak stack depth needed to
// evaluate the subtree at id and the child order that achieves it.
//
// A leaf pushes one value. For an operator, whichever child runs first
// leaves its result on the stack while the second runs, so
//
//	leftFirst  = max(L, 1+R)
//	rightFirst = max(R, 1+L)
//
// and the cheaper of the two is kept, ties going to left first.
func (s *Scene) analyze(id NodeID) int {
	n := s.nodes[id]
	if n.IsLeaf() {
		n.maxStack = 1
		return 1
	}

	l := s.analyze(n.left)
	r := s.analyze(n.right)

	leftFirst := max(l, 1+r)
	rightFirst := max(r, 1+l)

	n.leftFirst = leftFirst <= rightFirst
	n.maxStack = min(leftFirst, rightFirst)
	return n.maxStack
}

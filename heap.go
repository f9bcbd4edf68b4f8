package missionary

// pairing heap over *process, ordered by each process's publisher rank.
// Used only by the reactor (engine.go) to pick the next process to tick
// in ascending rank order within a logical instant. Links are carried on
// the process itself (child/sibling) per spec.md §4.1 — no separate heap
// node allocation.
//
// link, enqueue and dequeue run in O(1) amortized, except dequeue's pass
// over siblings which is O(log n) amortized across a sequence of
// operations.

// heapLink makes the lower-rank process the parent, prepending the other
// as its new first child.
func heapLink(x, y *process) *process {
	if x == nil {
		return y
	}
	if y == nil {
		return x
	}
	if rankLess(y.parent.ranks, x.parent.ranks) {
		x, y = y, x
	}
	y.sibling = x.child
	x.child = y
	return x
}

// heapEnqueue adds p to heap, returning the new heap root.
func heapEnqueue(heap, p *process) *process {
	if heap == nil {
		return p
	}
	return heapLink(p, heap)
}

// heapDequeue removes the root of heap and returns the new heap root (nil
// if heap becomes empty). The root itself is left with child/sibling
// cleared so it can be reused.
func heapDequeue(heap *process) *process {
	root := heap
	children := root.child
	root.child = nil
	root.sibling = nil

	if children == nil {
		return nil
	}

	// Pair siblings left to right.
	var pairs []*process
	for children != nil {
		a := children
		b := a.sibling
		a.sibling = nil
		if b != nil {
			children = b.sibling
			b.sibling = nil
			pairs = append(pairs, heapLink(a, b))
		} else {
			children = nil
			pairs = append(pairs, a)
		}
	}

	// Fold right to left.
	merged := pairs[len(pairs)-1]
	for i := len(pairs) - 2; i >= 0; i-- {
		merged = heapLink(pairs[i], merged)
	}
	return merged
}

// heapCount walks the child/sibling tree to count queued processes.
// Only used by debugserver's introspection endpoint; the reactor itself
// never needs a count.
func heapCount(heap *process) int {
	if heap == nil {
		return 0
	}
	n := 1
	for c := heap.child; c != nil; c = c.sibling {
		n += heapCount(c)
	}
	return n
}

package missionary

// Rank is a publisher's fixed position in the reactive DAG: a vector of
// non-negative integers assigned at creation and never changed after.
//
// Comparison is lexicographic with one twist: a shorter prefix-equal vector
// sorts before a longer one (see rankLess). That twist is what makes a
// publisher created while running inside another publisher sort strictly
// after its creator.
type Rank []int

// rankLess reports whether x sorts strictly before y.
//
// Lexicographic comparison, except when one vector is a strict prefix of
// the other: in that case the SHORTER vector sorts first. A publisher born
// during a reaction of P gets P's rank vector plus one more element, so it
// is longer than P's own vector and therefore sorts after P — exactly the
// ordering spec.md §3 requires.
func rankLess(x, y Rank) bool {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		if x[i] != y[i] {
			return x[i] < y[i]
		}
	}
	if len(x) == len(y) {
		return false
	}
	// Equal on the shared prefix: the shorter vector is less.
	return len(x) < len(y)
}

// childRank derives the rank vector of a publisher created while process
// parent is current, by appending parent's child counter and advancing it.
// If parent is nil (no process is currently executing), the vector is
// derived from the engine-wide top-level counter instead.
func childRank(parent *process, topLevel *int) Rank {
	if parent == nil {
		r := Rank{*topLevel}
		*topLevel++
		return r
	}
	pub := parent.parent
	r := make(Rank, len(pub.ranks)+1)
	copy(r, pub.ranks)
	r[len(pub.ranks)] = pub.children
	pub.children++
	return r
}

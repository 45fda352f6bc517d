// Package aupair implements the AuPair contractor (spec.md §4.7): given a
// finalized dictionary and parse, it greedily removes shared W-byte
// trigger strings from adjacent phrase boundaries, merging the phrases
// either side of each removed occurrence, until a byte budget is spent or
// no trigger has positive gain left.
package aupair

// LinkedList is the non-compacting doubly-linked sequence over parse
// positions spec.md's design notes call for: an arena of (prev, next)
// records indexed by original position, logically deleting entries by
// splicing neighbors rather than shifting the underlying slice — grounded
// on pkg/rbtree's allocator, which tracks deleted node indices in a gap
// set rather than compacting storage.
//
// Next/Prev are implemented as two independent union-find structures
// (forward and backward) over position indices, one deletion away from a
// live neighbor being a simple parent hop and several deletions away
// being a path-compressed find — the amortized O(α) spec.md asks for.
// Removals may be issued in any order and adjacent removals "meeting"
// (e.g. remove_at(5) then remove_at(6)) resolve correctly because the
// union-find merges transitively regardless of order.
type LinkedList struct {
	n int

	// nextParent/prevParent are sized n+2 and index-shifted by one: array
	// index 0 is the "before the first position" sentinel, index i+1 is
	// real position i, and index n+1 is the "after the last position"
	// sentinel. A live position is always its own parent; removing
	// position i re-parents its nextParent entry toward i+1 and its
	// prevParent entry toward i-1, so a find() walks forward/backward
	// past every contiguous run of removed positions.
	nextParent []int
	prevParent []int
	removed    []bool
}

// NewLinkedList creates a LinkedList over n positions (0..n-1), all live.
func NewLinkedList(n int) *LinkedList {
	l := &LinkedList{
		n:          n,
		nextParent: make([]int, n+2),
		prevParent: make([]int, n+2),
		removed:    make([]bool, n),
	}

	for i := range l.nextParent {
		l.nextParent[i] = i
		l.prevParent[i] = i
	}

	return l
}

func (l *LinkedList) idx(pos int) int { return pos + 1 }

func findRoot(parent []int, x int) int {
	for parent[x] != x {
		parent[x] = parent[parent[x]] // path halving
		x = parent[x]
	}

	return x
}

// Removed reports whether pos has been logically removed.
func (l *LinkedList) Removed(pos int) bool { return l.removed[pos] }

// RemoveAt logically removes pos. Safe to call at most once per position;
// calling it again on an already-removed position is a no-op.
func (l *LinkedList) RemoveAt(pos int) {
	if l.removed[pos] {
		return
	}

	l.removed[pos] = true

	ai := l.idx(pos)
	l.nextParent[ai] = ai + 1
	l.prevParent[ai] = ai - 1
}

// Next returns the nearest live position strictly after pos, or
// ok=false if none remains. pos=-1 is a valid query meaning "before the
// first position", so Next(-1) returns the first live position.
func (l *LinkedList) Next(pos int) (int, bool) {
	root := findRoot(l.nextParent, l.idx(pos)+1)
	if root >= l.n+1 {
		return 0, false
	}

	return root - 1, true
}

// Prev returns the nearest live position strictly before pos, or
// ok=false if none remains. pos=n is a valid query meaning "after the
// last position", so Prev(n) returns the last live position.
func (l *LinkedList) Prev(pos int) (int, bool) {
	root := findRoot(l.prevParent, l.idx(pos)-1)
	if root <= 0 {
		return 0, false
	}

	return root - 1, true
}

// First returns the first live position, or ok=false if the list is
// empty.
func (l *LinkedList) First() (int, bool) { return l.Next(-1) }

// Last returns the last live position, or ok=false if the list is empty.
func (l *LinkedList) Last() (int, bool) { return l.Prev(l.n) }

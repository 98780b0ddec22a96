package cellheap

import "golang.org/x/exp/constraints"

// RootStack is a bounded, panic-on-misuse stack of cell IDs. It is the
// mechanism by which the evaluator, reader, and primitives pin
// intermediates that must survive a subsequent allocation — the collector
// treats every entry as live, in addition to the global environment, the
// active environment stack, and the interned-symbol list.
//
// The bounds-checked-panic discipline (no silent growth, no silent
// truncation) and the generic fixed-backing-array shape are adapted from
// the teacher pack's catrate.ringBuffer[E constraints.Ordered], which
// applies the same "panic rather than corrupt" rule to a fixed array. This
// heap only ever instantiates it over ID, but the constraint stays generic
// rather than hard-coded to int32, matching the teacher's own type param.
type RootStack[E constraints.Ordered] struct {
	s []E
	n int
}

// NewRootStack allocates a root stack of the given depth. depth must be at
// least 256 per the platform contract.
func NewRootStack(depth int) *RootStack[ID] {
	if depth < 256 {
		panic("cellheap: root stack depth must be at least 256")
	}
	return &RootStack[ID]{s: make([]ID, depth)}
}

// Push pins id so the collector treats it as reachable. Panics if the stack
// is already at capacity.
func (r *RootStack[E]) Push(id E) {
	if r.n >= len(r.s) {
		panic("cellheap: root stack overflow")
	}
	r.s[r.n] = id
	r.n++
}

// Pop unpins the most recently pushed n entries. Panics on underflow.
func (r *RootStack[E]) Pop(n int) {
	if n < 0 || n > r.n {
		panic("cellheap: root stack underflow")
	}
	r.n -= n
}

// Depth reports the number of entries currently pinned.
func (r *RootStack[E]) Depth() int { return r.n }

// At returns the i'th pinned entry, 0-indexed from the bottom of the stack.
// Used only by the collector's mark phase.
func (r *RootStack[E]) At(i int) E { return r.s[i] }

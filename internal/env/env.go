// Package env implements the environment chain: each environment is a
// PAIR cell whose car is the current frame (a list of (symbol . value)
// binding pairs) and whose cdr is the parent environment (cellheap.Nil at
// the global frame).
package env

import "github.com/arjunguha/slopos/internal/cellheap"

// Panicker is the diverging failure surface Set! reports an unbound
// symbol through.
type Panicker interface {
	Panic(msg string)
}

// New constructs a fresh environment frame (initially empty) extending
// parent. Used both for the global environment (parent == cellheap.Nil)
// and for a closure's call frame.
func New(h *cellheap.Heap, parent cellheap.ID) cellheap.ID {
	return h.AllocPair(cellheap.Nil, parent)
}

// Define prepends (sym . val) to env's head frame. A later Define of the
// same symbol shadows an earlier one, because lookup/set! walk
// insertion-newest-first and this always inserts at the front.
func Define(h *cellheap.Heap, env, sym, val cellheap.ID) {
	h.Roots.Push(env)
	h.Roots.Push(sym)
	h.Roots.Push(val)

	binding := h.AllocPair(sym, val)
	h.Roots.Push(binding)
	frame := h.Get(env).Car
	h.Roots.Push(frame)
	newFrame := h.AllocPair(binding, frame)

	h.Roots.Pop(5)
	h.Get(env).Car = newFrame
}

// Lookup walks env outermost-first-from-inside (i.e. the current frame,
// then its parent, and so on), and within each frame walks bindings
// insertion-newest-first, returning the value of the first symbol match.
func Lookup(h *cellheap.Heap, env, sym cellheap.ID) (cellheap.ID, bool) {
	for e := env; e != cellheap.Nil; e = h.Get(e).Cdr {
		for b := h.Get(e).Car; b != cellheap.Nil; b = h.Get(b).Cdr {
			binding := h.Get(b).Car
			if h.Get(binding).Car == sym {
				return h.Get(binding).Cdr, true
			}
		}
	}
	return cellheap.Nil, false
}

// Set mutates the cdr of the first matching binding found by the same walk
// as Lookup. Panics (via p) if sym is unbound anywhere in the chain.
func Set(h *cellheap.Heap, p Panicker, env, sym, val cellheap.ID) {
	for e := env; e != cellheap.Nil; e = h.Get(e).Cdr {
		for b := h.Get(e).Car; b != cellheap.Nil; b = h.Get(b).Cdr {
			binding := h.Get(b).Car
			if h.Get(binding).Car == sym {
				h.Get(binding).Cdr = val
				return
			}
		}
	}
	p.Panic("set!: unbound symbol")
}

// Package symtab implements interning of symbols by byte-exact name
// equality: every symbol with the same name is the same cell, so eq? on
// symbols reduces to pointer identity.
package symtab

import (
	"github.com/arjunguha/slopos/internal/arena"
	"github.com/arjunguha/slopos/internal/cellheap"
)

// Table is the cons-list of interned SYMBOL cells, held by the runtime and
// reported to the heap as a GC root via Heap.SetSymbols after every
// successful intern.
type Table struct {
	heap  *cellheap.Heap
	arena *arena.Arena
	head  cellheap.ID // cons-list of SYMBOL cells; cellheap.Nil when empty
}

// New constructs an empty symbol table backed by the given heap and symbol
// arena.
func New(heap *cellheap.Heap, symbolArena *arena.Arena) *Table {
	return &Table{heap: heap, arena: symbolArena, head: cellheap.Nil}
}

// Intern returns the unique SYMBOL cell for name, allocating and recording
// it on first sight. Comparison is byte-exact; no case folding.
func (t *Table) Intern(name []byte) cellheap.ID {
	for cur := t.head; cur != cellheap.Nil; cur = t.heap.Get(cur).Cdr {
		sym := t.heap.Get(t.heap.Get(cur).Car)
		if sameBytes(t.arena.Bytes(sym.Str), name) {
			return t.heap.Get(cur).Car
		}
	}

	ref := t.arena.Put(name)
	sym := t.heap.AllocSymbol(ref)

	t.heap.Roots.Push(sym)
	newHead := t.heap.AllocPair(sym, t.head)
	t.heap.Roots.Pop(1)

	t.head = newHead
	t.heap.SetSymbols(t.head)
	return sym
}

// Lookup reports the interned symbol for name if one already exists,
// without creating it.
func (t *Table) Lookup(name []byte) (cellheap.ID, bool) {
	for cur := t.head; cur != cellheap.Nil; cur = t.heap.Get(cur).Cdr {
		sym := t.heap.Get(t.heap.Get(cur).Car)
		if sameBytes(t.arena.Bytes(sym.Str), name) {
			return t.heap.Get(cur).Car, true
		}
	}
	return cellheap.Nil, false
}

// Name returns the backing bytes of a SYMBOL cell.
func (t *Table) Name(sym cellheap.ID) []byte {
	return t.arena.Bytes(t.heap.Get(sym).Str)
}

func sameBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Package arena implements the append-only, fixed-capacity byte buffers
// that back symbol names and string literals. Allocation is a bump of the
// write pointer; there is no reclamation — exhaustion is fatal, matching
// the short-lived, boot-to-shutdown lifetime of a single runtime instance.
package arena

import "github.com/arjunguha/slopos/internal/cellheap"

// Panicker is the diverging failure surface an Arena reports exhaustion
// through. Declared locally (rather than imported from platform) to avoid
// a dependency cycle, same rationale as cellheap.Panicker.
type Panicker interface {
	Panic(msg string)
}

// Arena is a bump-pointer byte buffer of fixed capacity.
type Arena struct {
	name     string
	buf      []byte
	off      uint32
	panicker Panicker
}

// New allocates an arena of the given capacity. name is used only in the
// exhaustion panic message ("symbol buffer full" / "string buffer full" per
// §4.3 — callers pass one of those two literal names).
func New(capacity int, name string, panicker Panicker) *Arena {
	if capacity <= 0 {
		panic("arena: capacity must be positive")
	}
	return &Arena{name: name, buf: make([]byte, capacity), panicker: panicker}
}

// Put copies b into the arena, reserving len(b)+1 bytes (the extra byte is
// a trailing NUL, written for convenience; StrRef.Len remains authoritative
// and never includes it). Panics with "<name> buffer full" on exhaustion.
func (a *Arena) Put(b []byte) cellheap.StrRef {
	need := len(b) + 1
	if int(a.off)+need > len(a.buf) {
		a.panicker.Panic(a.name + " buffer full")
		return cellheap.StrRef{}
	}
	start := a.off
	copy(a.buf[start:], b)
	a.buf[int(start)+len(b)] = 0
	a.off += uint32(need)
	return cellheap.StrRef{Off: start, Len: uint32(len(b))}
}

// Bytes returns the bytes named by ref, without the trailing NUL.
func (a *Arena) Bytes(ref cellheap.StrRef) []byte {
	return a.buf[ref.Off : ref.Off+ref.Len]
}

// Len reports bytes used so far.
func (a *Arena) Len() int { return int(a.off) }

// Cap reports total capacity.
func (a *Arena) Cap() int { return len(a.buf) }

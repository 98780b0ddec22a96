// Package reader implements the s-expression parser described in spec
// §4.5: a single read-expression call consumes one token (recursively, for
// lists) from a cursor over raw program text.
package reader

import (
	"errors"

	"github.com/arjunguha/slopos/internal/cellheap"
)

// ErrUnterminatedList would report a list with no matching ")" before
// end-of-input. Constructed but, per spec §9's Open Question, not returned
// by default: the historical, pragmatic behavior is to silently stop at
// end-of-input. Set Strict on a Reader to opt into returning this error
// instead.
var ErrUnterminatedList = errors.New("reader: unterminated list")

// ErrMalformedChar reports a character literal that named neither
// "newline", "return", nor a single byte. Per spec §4.5 and §7 this is
// always fatal — callers are expected to route it to platform.Port.Panic,
// not to treat it as recoverable.
var ErrMalformedChar = errors.New("reader: malformed character literal")

// symbolInterner is the subset of *symtab.Table the reader needs.
type symbolInterner interface {
	Intern(name []byte) cellheap.ID
}

// stringArena is the subset of *arena.Arena the reader needs to materialize
// string literals.
type stringArena interface {
	Put(b []byte) cellheap.StrRef
}

// Reader parses s-expressions out of a fixed byte slice.
type Reader struct {
	src    []byte
	pos    int
	heap   *cellheap.Heap
	str    stringArena
	syms   symbolInterner
	quote  cellheap.ID
	Strict bool // opt-in: return ErrUnterminatedList instead of tolerating EOF
}

// New constructs a Reader over src. heap is used for allocation and GC
// rooting during list construction; strArena backs string literals; syms
// interns symbols (including the "quote" spelling used to desugar ').
func New(src []byte, heap *cellheap.Heap, strArena stringArena, syms symbolInterner) *Reader {
	return &Reader{
		src:   src,
		heap:  heap,
		str:   strArena,
		syms:  syms,
		quote: syms.Intern([]byte("quote")),
	}
}

// Pos reports the current cursor offset, e.g. for eval-string's top-level
// loop to know whether any input remains.
func (r *Reader) Pos() int { return r.pos }

// AtEnd reports whether only whitespace/comments remain.
func (r *Reader) AtEnd() bool {
	r.skipSpace()
	return r.pos >= len(r.src)
}

// ReadExpr consumes and returns one expression. ok is false at end of
// input (the "no expression" sentinel of spec §4.5), with id set to
// cellheap.Nil.
func (r *Reader) ReadExpr() (id cellheap.ID, ok bool, err error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return cellheap.Nil, false, nil
	}

	c := r.src[r.pos]
	switch {
	case c == '(':
		r.pos++
		return r.readList()
	case c == '\'':
		r.pos++
		x, xok, err := r.ReadExpr()
		if err != nil {
			return cellheap.Nil, false, err
		}
		if !xok {
			return cellheap.Nil, false, nil
		}
		r.heap.Roots.Push(x)
		quoted := r.heap.AllocPair(x, cellheap.Nil)
		r.heap.Roots.Pop(1)
		r.heap.Roots.Push(quoted)
		list := r.heap.AllocPair(r.quote, quoted)
		r.heap.Roots.Pop(1)
		return list, true, nil
	case c == '"':
		return r.readString()
	case c == '#':
		return r.readHash()
	case c == '-' && r.pos+1 < len(r.src) && isDigit(r.src[r.pos+1]):
		return r.readInt()
	case isDigit(c):
		return r.readInt()
	default:
		return r.readSymbol()
	}
}

func (r *Reader) readList() (cellheap.ID, bool, error) {
	// head is pinned for the lifetime of the call once it exists, since the
	// recursive ReadExpr below, and each AllocPair that extends the list,
	// can trigger a collection. tail needs no separate root: it is always
	// reachable by walking head's chain.
	head := cellheap.Nil
	tail := cellheap.Nil
	headPushed := false

	finish := func(ok bool, err error) (cellheap.ID, bool, error) {
		if headPushed {
			r.heap.Roots.Pop(1)
		}
		if err != nil {
			return cellheap.Nil, false, err
		}
		if !ok {
			return cellheap.Nil, false, nil
		}
		return head, true, nil
	}

	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			// Pragmatic tolerance (§4.5, §9): stop at EOF, return what
			// was parsed so far, unless Strict opts into an error.
			if r.Strict {
				return finish(false, ErrUnterminatedList)
			}
			return finish(true, nil)
		}
		if r.src[r.pos] == ')' {
			r.pos++
			return finish(true, nil)
		}

		item, ok, err := r.ReadExpr()
		if err != nil {
			return finish(false, err)
		}
		if !ok {
			if r.Strict {
				return finish(false, ErrUnterminatedList)
			}
			return finish(true, nil)
		}

		r.heap.Roots.Push(item)
		cell := r.heap.AllocPair(item, cellheap.Nil)
		r.heap.Roots.Pop(1)

		if head == cellheap.Nil {
			head = cell
			r.heap.Roots.Push(head)
			headPushed = true
		} else {
			r.heap.Get(tail).Cdr = cell
		}
		tail = cell
	}
}

func (r *Reader) readString() (cellheap.ID, bool, error) {
	r.pos++ // opening quote
	start := r.pos
	for r.pos < len(r.src) && r.src[r.pos] != '"' {
		r.pos++
	}
	bytes := r.src[start:r.pos]
	if r.pos < len(r.src) {
		r.pos++ // closing quote
	}
	ref := r.str.Put(bytes)
	return r.heap.AllocString(ref), true, nil
}

func (r *Reader) readHash() (cellheap.ID, bool, error) {
	// r.src[r.pos] == '#'
	if r.pos+1 >= len(r.src) {
		return cellheap.Nil, false, ErrMalformedChar
	}
	switch r.src[r.pos+1] {
	case 't':
		r.pos += 2
		return cellheap.True, true, nil
	case 'f':
		r.pos += 2
		return cellheap.False, true, nil
	case '\\':
		r.pos += 2
		return r.readCharLiteral()
	default:
		return cellheap.Nil, false, ErrMalformedChar
	}
}

func (r *Reader) readCharLiteral() (cellheap.ID, bool, error) {
	start := r.pos
	for r.pos < len(r.src) && !isDelimiter(r.src[r.pos]) {
		r.pos++
	}
	tok := r.src[start:r.pos]
	switch {
	case len(tok) == 0:
		return cellheap.Nil, false, ErrMalformedChar
	case string(tok) == "newline":
		return r.heap.AllocChar('\n'), true, nil
	case string(tok) == "return":
		return r.heap.AllocChar('\r'), true, nil
	case len(tok) == 1:
		return r.heap.AllocChar(tok[0]), true, nil
	default:
		return cellheap.Nil, false, ErrMalformedChar
	}
}

func (r *Reader) readInt() (cellheap.ID, bool, error) {
	start := r.pos
	if r.src[r.pos] == '-' {
		r.pos++
	}
	for r.pos < len(r.src) && isDigit(r.src[r.pos]) {
		r.pos++
	}
	tok := r.src[start:r.pos]

	neg := tok[0] == '-'
	digits := tok
	if neg {
		digits = tok[1:]
	}
	var v int32
	for _, d := range digits {
		v = v*10 + int32(d-'0') // two's-complement wrap is acceptable, per §3
	}
	if neg {
		v = -v
	}
	return r.heap.AllocInt(v), true, nil
}

func (r *Reader) readSymbol() (cellheap.ID, bool, error) {
	start := r.pos
	for r.pos < len(r.src) && !isDelimiter(r.src[r.pos]) {
		r.pos++
	}
	name := r.src[start:r.pos]
	return r.syms.Intern(name), true, nil
}

func (r *Reader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isDelimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '(', ')', '"':
		return true
	default:
		return false
	}
}

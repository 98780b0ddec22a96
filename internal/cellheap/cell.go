// Package cellheap implements the fixed-capacity tagged-cell pool and the
// tracing mark-and-sweep collector that backs every Scheme value in a
// runtime instance.
package cellheap

// Tag identifies the variant of a heap cell. Every heap value is exactly
// one cell; NIL, BOOL-true and BOOL-false are singletons that live outside
// the pool entirely and never carry a Tag of their own (see ID).
type Tag uint8

const (
	// TagFree marks a slot that is on the free list. It is never observed
	// by anything outside Heap.
	TagFree Tag = iota
	TagBool
	TagInt
	TagChar
	TagString
	TagSymbol
	TagPair
	TagPrimitive
	TagClosure
)

func (t Tag) String() string {
	switch t {
	case TagFree:
		return "free"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagChar:
		return "char"
	case TagString:
		return "string"
	case TagSymbol:
		return "symbol"
	case TagPair:
		return "pair"
	case TagPrimitive:
		return "primitive"
	case TagClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// ID names a cell. Non-negative values index into the heap's cell array.
// Negative values name one of the three singletons that never allocate and
// are never collected.
type ID int32

const (
	// Nil is the unique empty-list / "no value" cell. Equal by identity only.
	Nil ID = -1
	// True and False are the two boolean singletons. Only False counts as
	// false in a conditional; every other value, including Nil, is truthy.
	True  ID = -2
	False ID = -3
)

// Singleton reports whether id names one of Nil, True, or False rather than
// an index into the cell pool.
func (id ID) Singleton() bool { return id < 0 }

// StrRef locates a byte run inside an arena: offset and length. Length is
// authoritative; arenas also NUL-terminate for convenience but StrRef.Len
// is what every primitive trusts.
type StrRef struct {
	Off uint32
	Len uint32
}

// Cell is the tagged union backing every heap-resident Scheme value.
// Only the fields relevant to Tag are meaningful; the others are leftover
// payload from a previous occupant and must never be read.
type Cell struct {
	Tag  Tag
	Mark bool

	// Int carries: INT's 32-bit signed value (wraps on overflow), CHAR's
	// 8-bit code point (stored in the low byte), or PRIMITIVE's function
	// index into the primitive table.
	Int int32

	// Car/Cdr carry a PAIR's two fields, or — for a CLOSURE — Car is the
	// parameter list (a list of SYMBOL cells) and Cdr is the body (a list
	// of expressions).
	Car ID
	Cdr ID

	// Env carries a CLOSURE's captured environment. Unused otherwise.
	Env ID

	// Str locates a STRING's or SYMBOL's bytes in the owning arena.
	Str StrRef
}

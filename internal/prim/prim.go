// Package prim binds the built-in operator table of spec §4.8 into a
// runtime's global environment. Every primitive here is a thin, explicitly
// type-checked wrapper: either pure cellheap arithmetic/structure
// manipulation, or a direct pass-through to platform.Port for the
// operations that reach outside the heap (disk, console, scheduling,
// foreign calls). There is no third-party library for bespoke Scheme
// builtin semantics, so this package is deliberately standard-library-only
// — see DESIGN.md.
package prim

import (
	"strconv"

	"github.com/arjunguha/slopos/internal/arena"
	"github.com/arjunguha/slopos/internal/cellheap"
	"github.com/arjunguha/slopos/internal/env"
	"github.com/arjunguha/slopos/internal/eval"
	"github.com/arjunguha/slopos/internal/reader"
	"github.com/arjunguha/slopos/internal/symtab"
	"github.com/arjunguha/slopos/platform"
)

// Panicker is the diverging failure surface every type-mismatched or
// out-of-range primitive call reports through, per spec §7's "fatal
// runtime" row.
type Panicker interface {
	Panic(msg string)
}

// Register allocates a PRIMITIVE cell for every builtin in spec §4.8,
// binds it in globalEnv by its canonical name, and registers its Go
// implementation with ev. Per §6, the boot program's environment contains
// exactly these primitives and nothing else.
func Register(ev *eval.Evaluator, h *cellheap.Heap, syms *symtab.Table, strArena *arena.Arena, port platform.Port, globalEnv cellheap.ID, p Panicker) {
	r := &registrar{ev: ev, h: h, syms: syms, str: strArena, port: port, env: globalEnv, p: p}

	r.bind("+", r.add)
	r.bind("-", r.sub)
	r.bind("*", r.mul)
	r.bind("=", r.numEq)
	r.bind("<", r.lt)
	r.bind("quotient", r.quotient)
	r.bind("modulo", r.modulo)
	r.bind("cons", r.cons)
	r.bind("car", r.car)
	r.bind("cdr", r.cdr)
	r.bind("null?", r.isNull)
	r.bind("pair?", r.isPair)
	r.bind("eq?", r.isEq)
	r.bind("string-length", r.stringLength)
	r.bind("string-ref", r.stringRef)
	r.bind("string=?", r.stringEq)
	r.bind("char=?", r.charEq)
	r.bind("char->int", r.charToInt)
	r.bind("int->char", r.intToChar)
	r.bind("list-alloc", r.listAlloc)
	r.bind("list->string", r.listToString)
	r.bind("eval-string", r.evalString)
	r.bind("eval-scoped", r.evalScoped)
	r.bind("disk-read-byte", r.diskReadByte)
	r.bind("disk-read-bytes", r.diskReadBytes)
	r.bind("disk-read-cstring", r.diskReadCString)
	r.bind("disk-size", r.diskSize)
	r.bind("disk-write-bytes", r.diskWriteBytes)
	r.bind("read-char", r.readChar)
	r.bind("spawn-thread", r.spawnThread)
	r.bind("yield", r.yield)
	r.bind("display", r.display)
	r.bind("newline", r.newline)
	r.bind("foreign-call", r.foreignCall)
}

type registrar struct {
	ev   *eval.Evaluator
	h    *cellheap.Heap
	syms *symtab.Table
	str  *arena.Arena
	port platform.Port
	env  cellheap.ID
	p    Panicker
}

func (r *registrar) bind(name string, fn eval.PrimFunc) {
	idx := r.ev.RegisterPrimitive(fn)
	sym := r.syms.Intern([]byte(name))
	r.h.Roots.Push(sym)
	cell := r.h.AllocPrimitive(idx)
	r.h.Roots.Pop(1)
	env.Define(r.h, r.env, sym, cell)
}

// --- type-checking helpers -------------------------------------------------

func (r *registrar) intArg(h *cellheap.Heap, id cellheap.ID, who string) int32 {
	if id.Singleton() || h.Get(id).Tag != cellheap.TagInt {
		r.p.Panic(who + ": expected an integer argument")
	}
	return h.Get(id).Int
}

func (r *registrar) pairArg(h *cellheap.Heap, id cellheap.ID, who string) *cellheap.Cell {
	if id.Singleton() || h.Get(id).Tag != cellheap.TagPair {
		r.p.Panic(who + ": expected a pair argument")
	}
	return h.Get(id)
}

func (r *registrar) strArg(h *cellheap.Heap, id cellheap.ID, who string) cellheap.StrRef {
	if id.Singleton() || h.Get(id).Tag != cellheap.TagString {
		r.p.Panic(who + ": expected a string argument")
	}
	return h.Get(id).Str
}

func (r *registrar) charArg(h *cellheap.Heap, id cellheap.ID, who string) byte {
	if id.Singleton() || h.Get(id).Tag != cellheap.TagChar {
		r.p.Panic(who + ": expected a character argument")
	}
	return byte(h.Get(id).Int)
}

// --- arithmetic / comparison (§4.8) ----------------------------------------

func (r *registrar) add(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	sum := int32(0)
	for cur := args; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		sum += r.intArg(h, h.Get(cur).Car, "+")
	}
	return h.AllocInt(sum)
}

func (r *registrar) sub(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	if args == cellheap.Nil {
		return h.AllocInt(0)
	}
	acc := r.intArg(h, h.Get(args).Car, "-")
	rest := h.Get(args).Cdr
	if rest == cellheap.Nil {
		return h.AllocInt(-acc)
	}
	for cur := rest; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		acc -= r.intArg(h, h.Get(cur).Car, "-")
	}
	return h.AllocInt(acc)
}

func (r *registrar) mul(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	acc := int32(1)
	for cur := args; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		acc *= r.intArg(h, h.Get(cur).Car, "*")
	}
	return h.AllocInt(acc)
}

func (r *registrar) numEq(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	if args == cellheap.Nil {
		return cellheap.True
	}
	first := r.intArg(h, h.Get(args).Car, "=")
	for cur := h.Get(args).Cdr; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		if r.intArg(h, h.Get(cur).Car, "=") != first {
			return cellheap.False
		}
	}
	return cellheap.True
}

func (r *registrar) lt(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	if args == cellheap.Nil || h.Get(args).Cdr == cellheap.Nil {
		return cellheap.True
	}
	prev := r.intArg(h, h.Get(args).Car, "<")
	for cur := h.Get(args).Cdr; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		v := r.intArg(h, h.Get(cur).Car, "<")
		if !(prev < v) {
			return cellheap.False
		}
		prev = v
	}
	return cellheap.True
}

func (r *registrar) quotient(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	a := r.intArg(h, h.Get(args).Car, "quotient")
	b := r.intArg(h, h.Get(h.Get(args).Cdr).Car, "quotient")
	if b == 0 {
		r.p.Panic("quotient: divide by zero")
	}
	return h.AllocInt(a / b)
}

// modulo follows the divisor's sign (Euclidean-ish, per §4.8), unlike Go's
// %, which follows the dividend's.
func (r *registrar) modulo(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	a := r.intArg(h, h.Get(args).Car, "modulo")
	b := r.intArg(h, h.Get(h.Get(args).Cdr).Car, "modulo")
	if b == 0 {
		r.p.Panic("modulo: divide by zero")
	}
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return h.AllocInt(m)
}

// --- pairs -------------------------------------------------------------

func (r *registrar) cons(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	a := h.Get(args).Car
	b := h.Get(h.Get(args).Cdr).Car
	h.Roots.Push(a)
	h.Roots.Push(b)
	pair := h.AllocPair(a, b)
	h.Roots.Pop(2)
	return pair
}

func (r *registrar) car(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	return r.pairArg(h, h.Get(args).Car, "car").Car
}

func (r *registrar) cdr(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	return r.pairArg(h, h.Get(args).Car, "cdr").Cdr
}

func (r *registrar) isNull(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	if h.Get(args).Car == cellheap.Nil {
		return cellheap.True
	}
	return cellheap.False
}

func (r *registrar) isPair(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	id := h.Get(args).Car
	if !id.Singleton() && h.Get(id).Tag == cellheap.TagPair {
		return cellheap.True
	}
	return cellheap.False
}

func (r *registrar) isEq(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	a := h.Get(args).Car
	b := h.Get(h.Get(args).Cdr).Car
	if a == b {
		return cellheap.True
	}
	return cellheap.False
}

// --- strings / chars -----------------------------------------------------

func (r *registrar) stringLength(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	ref := r.strArg(h, h.Get(args).Car, "string-length")
	return h.AllocInt(int32(ref.Len))
}

func (r *registrar) stringRef(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	ref := r.strArg(h, h.Get(args).Car, "string-ref")
	idx := r.intArg(h, h.Get(h.Get(args).Cdr).Car, "string-ref")
	if idx < 0 || uint32(idx) >= ref.Len {
		r.p.Panic("string-ref: index out of range")
	}
	return h.AllocChar(r.str.Bytes(ref)[idx])
}

func (r *registrar) stringEq(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	a := r.strArg(h, h.Get(args).Car, "string=?")
	b := r.strArg(h, h.Get(h.Get(args).Cdr).Car, "string=?")
	if a.Len != b.Len {
		return cellheap.False
	}
	ab, bb := r.str.Bytes(a), r.str.Bytes(b)
	for i := range ab {
		if ab[i] != bb[i] {
			return cellheap.False
		}
	}
	return cellheap.True
}

func (r *registrar) charEq(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	a := r.charArg(h, h.Get(args).Car, "char=?")
	b := r.charArg(h, h.Get(h.Get(args).Cdr).Car, "char=?")
	if a == b {
		return cellheap.True
	}
	return cellheap.False
}

func (r *registrar) charToInt(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	return h.AllocInt(int32(r.charArg(h, h.Get(args).Car, "char->int")))
}

func (r *registrar) intToChar(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	v := r.intArg(h, h.Get(args).Car, "int->char")
	return h.AllocChar(byte(v & 0xff))
}

// --- list / string construction -------------------------------------------

func (r *registrar) listAlloc(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	n := r.intArg(h, h.Get(args).Car, "list-alloc")
	if n < 0 {
		r.p.Panic("list-alloc: negative length")
	}
	result := cellheap.Nil
	for i := n - 1; i >= 0; i-- {
		h.Roots.Push(result)
		v := h.AllocInt(i)
		h.Roots.Push(v)
		cell := h.AllocPair(v, result)
		h.Roots.Pop(2)
		result = cell
	}
	return result
}

func (r *registrar) listToString(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	var buf []byte
	for cur := h.Get(args).Car; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		buf = append(buf, r.charArg(h, h.Get(cur).Car, "list->string"))
	}
	return h.AllocString(r.str.Put(buf))
}

// --- nested evaluation (§4.8, §9 Open Question) ----------------------------

// evalString parses every top-level form in s and evaluates it in the
// global environment, returning the number of forms evaluated. Each parsed
// form is pinned on the root stack for the duration of its own evaluation,
// which is what lets the rest of the evaluator treat a single rooted
// ancestor as sufficient: the top-level driver is the one place that must
// establish that root.
func (r *registrar) evalString(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	ref := r.strArg(h, h.Get(args).Car, "eval-string")
	src := append([]byte(nil), r.str.Bytes(ref)...)

	rd := reader.New(src, h, r.str, r.syms)
	count := int32(0)
	for {
		expr, ok, err := rd.ReadExpr()
		if err != nil {
			r.p.Panic("eval-string: " + err.Error())
		}
		if !ok {
			break
		}
		h.Roots.Push(expr)
		ev.Eval(r.env, expr)
		h.Roots.Pop(1)
		count++
	}
	return h.AllocInt(count)
}

// evalScoped parses s and evaluates it in a fresh environment extending the
// global one with bindings copied from alist. Per §9's Open Question, those
// binding values are used exactly as they appear in alist — they are not
// themselves evaluated, since alist is already a value, not source text.
func (r *registrar) evalScoped(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	alist := h.Get(args).Car
	ref := r.strArg(h, h.Get(h.Get(args).Cdr).Car, "eval-scoped")
	src := append([]byte(nil), r.str.Bytes(ref)...)

	h.Roots.Push(alist)
	scopedEnv := env.New(h, r.env)
	h.Roots.Push(scopedEnv)
	for cur := alist; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		binding := r.pairArg(h, h.Get(cur).Car, "eval-scoped")
		env.Define(h, scopedEnv, binding.Car, binding.Cdr)
	}
	h.Roots.Pop(2)

	h.Roots.Push(scopedEnv)
	rd := reader.New(src, h, r.str, r.syms)
	result := cellheap.Nil
	for {
		expr, ok, err := rd.ReadExpr()
		if err != nil {
			r.p.Panic("eval-scoped: " + err.Error())
		}
		if !ok {
			break
		}
		h.Roots.Push(expr)
		result = ev.Eval(scopedEnv, expr)
		h.Roots.Pop(1)
	}
	h.Roots.Pop(1)
	return result
}

// --- disk / console / scheduling wrappers ----------------------------------

func (r *registrar) diskReadByte(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	off := r.intArg(h, h.Get(args).Car, "disk-read-byte")
	return h.AllocInt(int32(r.port.ReadByte(int64(off))))
}

func (r *registrar) diskReadBytes(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	off := r.intArg(h, h.Get(args).Car, "disk-read-bytes")
	n := r.intArg(h, h.Get(h.Get(args).Cdr).Car, "disk-read-bytes")
	if n < 0 {
		r.p.Panic("disk-read-bytes: negative length")
	}
	buf := make([]byte, 0, n)
	for i := int32(0); i < n; i++ {
		v := r.port.ReadByte(int64(off) + int64(i))
		if v < 0 {
			break
		}
		buf = append(buf, byte(v))
	}
	return h.AllocString(r.str.Put(buf))
}

// diskReadCString stops at the first zero byte or maxlen, whichever comes
// first, per §4.8. A negative ReadByte (out of range) stops it too.
func (r *registrar) diskReadCString(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	off := r.intArg(h, h.Get(args).Car, "disk-read-cstring")
	maxlen := r.intArg(h, h.Get(h.Get(args).Cdr).Car, "disk-read-cstring")
	if maxlen < 0 {
		r.p.Panic("disk-read-cstring: negative length")
	}
	buf := make([]byte, 0, maxlen)
	for i := int32(0); i < maxlen; i++ {
		v := r.port.ReadByte(int64(off) + int64(i))
		if v <= 0 {
			break
		}
		buf = append(buf, byte(v))
	}
	return h.AllocString(r.str.Put(buf))
}

func (r *registrar) diskSize(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	return h.AllocInt(int32(r.port.DiskSize()))
}

func (r *registrar) diskWriteBytes(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	off := r.intArg(h, h.Get(args).Car, "disk-write-bytes")
	ref := r.strArg(h, h.Get(h.Get(args).Cdr).Car, "disk-write-bytes")
	n := r.port.WriteBytes(int64(off), r.str.Bytes(ref))
	return h.AllocInt(int32(n))
}

func (r *registrar) readChar(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	return h.AllocChar(r.port.ReadChar())
}

// spawnThread NUL-terminates code (PlatformPort's contract, per §4.1) before
// handing it to the host.
func (r *registrar) spawnThread(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	ref := r.strArg(h, h.Get(args).Car, "spawn-thread")
	code := append(append([]byte(nil), r.str.Bytes(ref)...), 0)
	return h.AllocInt(r.port.SpawnThread(code))
}

// yield is kept as a primitive for convenience, per §4.8, even though it is
// just foreign-call 'yield under the hood.
func (r *registrar) yield(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	r.port.ForeignCall("yield", nil)
	return cellheap.Nil
}

func (r *registrar) display(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	r.writeValue(h, h.Get(args).Car)
	return cellheap.Nil
}

func (r *registrar) newline(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	r.port.Putc('\n')
	return cellheap.Nil
}

func (r *registrar) putString(s string) {
	for i := 0; i < len(s); i++ {
		r.port.Putc(s[i])
	}
}

// writeValue is display's printer. It is not part of spec §4.8's contract
// beyond "write to console" — the concrete rendering (list syntax, #t/#f,
// #<primitive>) is this implementation's choice.
func (r *registrar) writeValue(h *cellheap.Heap, id cellheap.ID) {
	switch id {
	case cellheap.Nil:
		r.putString("()")
		return
	case cellheap.True:
		r.putString("#t")
		return
	case cellheap.False:
		r.putString("#f")
		return
	}

	c := h.Get(id)
	switch c.Tag {
	case cellheap.TagInt:
		r.putString(strconv.Itoa(int(c.Int)))
	case cellheap.TagChar:
		r.port.Putc(byte(c.Int))
	case cellheap.TagString:
		for _, b := range r.str.Bytes(c.Str) {
			r.port.Putc(b)
		}
	case cellheap.TagSymbol:
		for _, b := range r.syms.Name(id) {
			r.port.Putc(b)
		}
	case cellheap.TagPair:
		r.port.Putc('(')
		r.writeValue(h, c.Car)
		cur := c.Cdr
		for {
			if cur == cellheap.Nil {
				break
			}
			if cur.Singleton() || h.Get(cur).Tag != cellheap.TagPair {
				r.putString(" . ")
				r.writeValue(h, cur)
				break
			}
			cc := h.Get(cur)
			r.port.Putc(' ')
			r.writeValue(h, cc.Car)
			cur = cc.Cdr
		}
		r.port.Putc(')')
	case cellheap.TagPrimitive:
		r.putString("#<primitive>")
	case cellheap.TagClosure:
		r.putString("#<closure>")
	}
}

func (r *registrar) foreignCall(ev *eval.Evaluator, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	nameID := h.Get(args).Car
	if nameID.Singleton() || h.Get(nameID).Tag != cellheap.TagSymbol {
		r.p.Panic("foreign-call: expected a symbol name")
	}
	name := string(r.syms.Name(nameID))

	var argv [8]int32
	n := 0
	for cur := h.Get(args).Cdr; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		if n >= len(argv) {
			r.p.Panic("foreign-call: too many arguments")
		}
		argv[n] = r.intArg(h, h.Get(cur).Car, "foreign-call")
		n++
	}
	return h.AllocInt(r.port.ForeignCall(name, argv[:n]))
}

// Package eval implements the recursive evaluator described in spec §4.7:
// one call per expression, special forms dispatched by head-symbol
// identity, application by evaluating operator then operands left to
// right. It depends only on cellheap, env, and symtab — nothing about
// platform I/O or primitive implementations — so that internal/prim (which
// does need platform) can depend on eval without a cycle.
package eval

import (
	"github.com/arjunguha/slopos/internal/cellheap"
	"github.com/arjunguha/slopos/internal/env"
	"github.com/arjunguha/slopos/internal/symtab"
)

// Panicker is the diverging failure surface the evaluator reports fatal
// conditions through: unbound symbols, applying a non-callable, etc.
type Panicker interface {
	Panic(msg string)
}

// PrimFunc is a built-in operator's Go implementation. args is a proper
// list of already-evaluated argument cells (per §4.7, application passes
// a PRIMITIVE's argument list directly). PrimFunc implementations live in
// internal/prim; eval only knows how to dispatch to them by index.
type PrimFunc func(ev *Evaluator, args cellheap.ID) cellheap.ID

// Evaluator ties a cell heap and symbol table to a dispatch table of
// primitives and the interned spellings of the seven special forms.
type Evaluator struct {
	Heap  *cellheap.Heap
	Syms  *symtab.Table
	panic Panicker
	prims []PrimFunc

	symQuote  cellheap.ID
	symIf     cellheap.ID
	symBegin  cellheap.ID
	symDefine cellheap.ID
	symSet    cellheap.ID
	symLambda cellheap.ID
}

// New constructs an Evaluator. The special-form spellings are interned
// once here; every subsequent special-form dispatch is a pointer
// comparison, per the SYMBOL identity invariant.
func New(h *cellheap.Heap, syms *symtab.Table, p Panicker) *Evaluator {
	return &Evaluator{
		Heap:      h,
		Syms:      syms,
		panic:     p,
		symQuote:  syms.Intern([]byte("quote")),
		symIf:     syms.Intern([]byte("if")),
		symBegin:  syms.Intern([]byte("begin")),
		symDefine: syms.Intern([]byte("define")),
		symSet:    syms.Intern([]byte("set!")),
		symLambda: syms.Intern([]byte("lambda")),
	}
}

// RegisterPrimitive adds fn to the dispatch table and returns its index,
// to be wrapped in a PRIMITIVE cell (cellheap.Heap.AllocPrimitive) and
// bound into the global environment by internal/prim.
func (ev *Evaluator) RegisterPrimitive(fn PrimFunc) int32 {
	ev.prims = append(ev.prims, fn)
	return int32(len(ev.prims) - 1)
}

// Eval evaluates expr in env and returns the resulting cell.
func (ev *Evaluator) Eval(env_ cellheap.ID, expr cellheap.ID) cellheap.ID {
	if expr == cellheap.Nil || expr == cellheap.True || expr == cellheap.False {
		return expr
	}

	h := ev.Heap
	switch h.Get(expr).Tag {
	case cellheap.TagInt, cellheap.TagChar, cellheap.TagString, cellheap.TagPrimitive, cellheap.TagClosure:
		return expr
	case cellheap.TagSymbol:
		v, ok := env.Lookup(h, env_, expr)
		if !ok {
			ev.panic.Panic("unbound symbol: " + string(ev.Syms.Name(expr)))
		}
		return v
	case cellheap.TagPair:
		return ev.evalPair(env_, expr)
	default:
		ev.panic.Panic("eval: cell with unknown tag")
		return cellheap.Nil
	}
}

func (ev *Evaluator) evalPair(env_ cellheap.ID, expr cellheap.ID) cellheap.ID {
	h := ev.Heap
	head := h.Get(expr).Car
	rest := h.Get(expr).Cdr

	if !head.Singleton() && h.Get(head).Tag == cellheap.TagSymbol {
		switch head {
		case ev.symQuote:
			return h.Get(rest).Car
		case ev.symIf:
			return ev.evalIf(env_, rest)
		case ev.symBegin:
			return ev.evalBody(env_, rest)
		case ev.symDefine:
			return ev.evalDefine(env_, rest)
		case ev.symSet:
			return ev.evalSet(env_, rest)
		case ev.symLambda:
			return ev.evalLambda(env_, rest)
		}
	}

	h.Roots.Push(env_)
	op := ev.Eval(env_, head)
	h.Roots.Push(op)

	args := ev.evalArgList(env_, rest)
	h.Roots.Push(args)

	result := ev.Apply(op, args)
	h.Roots.Pop(3)
	return result
}

// evalArgList evaluates a proper list of argument expressions left to
// right into a fresh proper list of results.
func (ev *Evaluator) evalArgList(env_ cellheap.ID, exprs cellheap.ID) cellheap.ID {
	h := ev.Heap
	head := cellheap.Nil
	tail := cellheap.Nil
	headPushed := false

	for cur := exprs; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		v := ev.Eval(env_, h.Get(cur).Car)
		h.Roots.Push(v)
		cell := h.AllocPair(v, cellheap.Nil)
		h.Roots.Pop(1)

		if head == cellheap.Nil {
			head = cell
			h.Roots.Push(head)
			headPushed = true
		} else {
			h.Get(tail).Cdr = cell
		}
		tail = cell
	}

	if headPushed {
		h.Roots.Pop(1)
	}
	return head
}

// Apply invokes fn (a PRIMITIVE or CLOSURE) against an already-evaluated
// argument list. args must already be reachable from a GC root.
func (ev *Evaluator) Apply(fn, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	if fn.Singleton() {
		ev.panic.Panic("apply: not callable")
		return cellheap.Nil
	}
	switch h.Get(fn).Tag {
	case cellheap.TagPrimitive:
		idx := h.Get(fn).Int
		if int(idx) < 0 || int(idx) >= len(ev.prims) {
			ev.panic.Panic("apply: invalid primitive index")
		}
		return ev.prims[idx](ev, args)
	case cellheap.TagClosure:
		return ev.applyClosure(fn, args)
	default:
		ev.panic.Panic("apply: not callable")
		return cellheap.Nil
	}
}

func (ev *Evaluator) applyClosure(closure, args cellheap.ID) cellheap.ID {
	h := ev.Heap
	c := h.Get(closure)
	params, body, capturedEnv := c.Car, c.Cdr, c.Env

	h.Roots.Push(closure)
	h.Roots.Push(args)
	newEnv := env.New(h, capturedEnv)
	h.Roots.Push(newEnv)

	p, a := params, args
	for p != cellheap.Nil && a != cellheap.Nil {
		env.Define(h, newEnv, h.Get(p).Car, h.Get(a).Car)
		p = h.Get(p).Cdr
		a = h.Get(a).Cdr
	}
	// Extra params are left unbound; extra args are ignored, per §4.7.

	h.PushEnv(newEnv)
	result := ev.evalBody(newEnv, body)
	h.PopEnv()

	h.Roots.Pop(3)
	return result
}

// evalBody evaluates a proper list of expressions in order and returns the
// last result (cellheap.Nil if the list is empty).
func (ev *Evaluator) evalBody(env_ cellheap.ID, body cellheap.ID) cellheap.ID {
	h := ev.Heap
	result := cellheap.Nil
	for cur := body; cur != cellheap.Nil; cur = h.Get(cur).Cdr {
		result = ev.Eval(env_, h.Get(cur).Car)
	}
	return result
}

func (ev *Evaluator) evalIf(env_ cellheap.ID, rest cellheap.ID) cellheap.ID {
	h := ev.Heap
	test := h.Get(rest).Car
	branches := h.Get(rest).Cdr
	conseq := h.Get(branches).Car

	h.Roots.Push(env_)
	h.Roots.Push(branches)
	t := ev.Eval(env_, test)
	h.Roots.Pop(2)

	if t != cellheap.False {
		return ev.Eval(env_, conseq)
	}
	altBranch := h.Get(branches).Cdr
	if altBranch == cellheap.Nil {
		return cellheap.Nil
	}
	return ev.Eval(env_, h.Get(altBranch).Car)
}

func (ev *Evaluator) evalDefine(env_ cellheap.ID, rest cellheap.ID) cellheap.ID {
	h := ev.Heap
	target := h.Get(rest).Car
	body := h.Get(rest).Cdr

	if h.Get(target).Tag == cellheap.TagSymbol {
		h.Roots.Push(env_)
		h.Roots.Push(target)
		val := ev.Eval(env_, h.Get(body).Car)
		h.Roots.Pop(2)
		env.Define(h, env_, target, val)
		return target
	}

	// (define (fname p1 ... pN) body...)
	fname := h.Get(target).Car
	params := h.Get(target).Cdr
	h.Roots.Push(env_)
	h.Roots.Push(fname)
	closure := h.AllocClosure(params, body, env_)
	h.Roots.Pop(2)
	env.Define(h, env_, fname, closure)
	return fname
}

func (ev *Evaluator) evalSet(env_ cellheap.ID, rest cellheap.ID) cellheap.ID {
	h := ev.Heap
	name := h.Get(rest).Car
	valExpr := h.Get(h.Get(rest).Cdr).Car
	val := ev.Eval(env_, valExpr)
	env.Set(h, ev.panic, env_, name, val)
	return val
}

func (ev *Evaluator) evalLambda(env_ cellheap.ID, rest cellheap.ID) cellheap.ID {
	h := ev.Heap
	params := h.Get(rest).Car
	body := h.Get(rest).Cdr
	return h.AllocClosure(params, body, env_)
}

// Package scheme wires a cell heap, two arenas, a symbol table, a global
// environment, an evaluator, and the primitive table into one complete,
// independent Scheme execution context: a Runtime. cmd/slopos constructs
// the boot thread's Runtime directly and supplies a platform.SpawnFunc
// closure that constructs further Runtimes for spawn-thread, so that
// platform (which Runtime depends on) never has to import scheme back.
package scheme

import (
	"github.com/arjunguha/slopos/internal/arena"
	"github.com/arjunguha/slopos/internal/cellheap"
	"github.com/arjunguha/slopos/internal/env"
	"github.com/arjunguha/slopos/internal/eval"
	"github.com/arjunguha/slopos/internal/prim"
	"github.com/arjunguha/slopos/internal/reader"
	"github.com/arjunguha/slopos/internal/symtab"
	"github.com/arjunguha/slopos/platform"
)

// Limits bounds the fixed-capacity resources a single Runtime allocates at
// construction. Every runtime instance owns its own heap, arenas, and
// environment (spec §4.9) — nothing here is shared across instances, so
// each spawned thread pays this allocation cost again.
type Limits struct {
	HeapCells        int
	SymbolArenaBytes int
	StringArenaBytes int
	RootStackDepth   int
}

// Runtime is one complete, independent Scheme execution context. Concurrent
// runtimes share no mutable state and interact only through the
// platform.Port they are each constructed against.
type Runtime struct {
	Heap   *cellheap.Heap
	Syms   *symtab.Table
	Eval   *eval.Evaluator
	Global cellheap.ID

	strArena *arena.Arena
	port     platform.Port
}

// New allocates a Runtime's heap and arenas, builds its global environment,
// and binds every primitive of spec §4.8 into it. port doubles as both the
// I/O surface and the fatal-error reporting surface: platform.Port.Panic
// already logs before diverging (HostPort.Panic), so every package that
// would otherwise need a separate Panicker is simply handed port.
func New(limits Limits, port platform.Port) *Runtime {
	h := cellheap.New(limits.HeapCells, limits.RootStackDepth, port)
	symArena := arena.New(limits.SymbolArenaBytes, "symbol", port)
	strArena := arena.New(limits.StringArenaBytes, "string", port)
	syms := symtab.New(h, symArena)
	ev := eval.New(h, syms, port)

	global := env.New(h, cellheap.Nil)
	h.SetGlobalEnv(global)

	prim.Register(ev, h, syms, strArena, port, global, port)

	return &Runtime{
		Heap:     h,
		Syms:     syms,
		Eval:     ev,
		Global:   global,
		strArena: strArena,
		port:     port,
	}
}

// EvalString parses and evaluates every top-level form of src in the global
// environment, returning the result of the last one (cellheap.Nil if src
// held no forms). This is the Go-level entry point cmd/slopos uses to run
// the boot program; the Scheme-level eval-string primitive (internal/prim)
// is built on this exact same reader loop.
func (rt *Runtime) EvalString(src []byte) cellheap.ID {
	rd := reader.New(src, rt.Heap, rt.strArena, rt.Syms)
	result := cellheap.Nil
	for {
		expr, ok, err := rd.ReadExpr()
		if err != nil {
			rt.port.Panic("boot: " + err.Error())
		}
		if !ok {
			break
		}
		rt.Heap.Roots.Push(expr)
		result = rt.Eval.Eval(rt.Global, expr)
		rt.Heap.Roots.Pop(1)
	}
	return result
}

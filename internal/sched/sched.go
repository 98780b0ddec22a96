// Package sched implements the cooperative, round-robin scheduler over a
// fixed thread table described in spec §4.9. Exactly one thread's Go
// logic is ever running at a time; every other thread's goroutine is
// parked on a channel receive, so control only moves at an explicit
// Yield/Sleep/Spawn/Exit call — the same "single dispatcher, only one
// goroutine touches business state at a time" contract the teacher pack's
// eventloop.Loop uses for its single-threaded event loop, here applied to
// a fixed table of green threads instead of a task queue. Thread state is
// tracked with the eventloop package's atomic-state-machine idiom rather
// than a mutex-guarded struct field, for the same reason: every state
// transition is a single, independently meaningful CAS.
package sched

import (
	"errors"
	"sync/atomic"
)

// Sentinel errors, in the style of eventloop's Err* variables.
var (
	// ErrTableFull is returned by Spawn when every slot is in use.
	ErrTableFull = errors.New("sched: thread table is full")
	// ErrNotRunning is returned by operations that require the calling
	// goroutine to currently hold the scheduler's single run token.
	ErrNotRunning = errors.New("sched: thread is not the running thread")
)

// State names a thread's position in the UNUSED -> RUNNABLE -> SLEEPING ->
// RUNNABLE -> UNUSED lifecycle from spec §3/§4.9.
type State int32

const (
	Unused State = iota
	Runnable
	Sleeping
)

func (s State) String() string {
	switch s {
	case Unused:
		return "unused"
	case Runnable:
		return "runnable"
	case Sleeping:
		return "sleeping"
	default:
		return "invalid"
	}
}

type thread struct {
	state      atomic.Int32 // State
	sleepTicks atomic.Int32
	resume     chan struct{}
	fn         func()
}

// Scheduler is a fixed-capacity table of cooperative threads. Thread 0 is
// always the boot thread: it is RUNNABLE from construction, with no
// function of its own — the goroutine that calls New and then drives the
// scheduler (typically main) *is* thread 0.
type Scheduler struct {
	threads []*thread
	current atomic.Int32 // index of the thread currently holding the run token
}

// New constructs a scheduler with room for capacity threads (capacity must
// be at least 2, per §4.9). Thread 0 is marked RUNNABLE immediately.
func New(capacity int) *Scheduler {
	if capacity < 2 {
		panic("sched: thread table capacity must be at least 2")
	}
	s := &Scheduler{threads: make([]*thread, capacity)}
	for i := range s.threads {
		t := &thread{resume: make(chan struct{})}
		t.state.Store(int32(Unused))
		s.threads[i] = t
	}
	s.threads[0].state.Store(int32(Runnable))
	return s
}

// Capacity reports the size of the thread table.
func (s *Scheduler) Capacity() int { return len(s.threads) }

// State reports the current state of thread i.
func (s *Scheduler) State(i int) State { return State(s.threads[i].state.Load()) }

// Current reports the index of the thread currently holding the run token.
func (s *Scheduler) Current() int { return int(s.current.Load()) }

// ActiveCount reports the number of non-UNUSED threads, excluding the boot
// thread (slot 0), per §4.9.
func (s *Scheduler) ActiveCount() int {
	n := 0
	for i := 1; i < len(s.threads); i++ {
		if State(s.threads[i].state.Load()) != Unused {
			n++
		}
	}
	return n
}

// Spawn finds the first UNUSED slot, primes it to run fn on its own
// goroutine once scheduled, marks it RUNNABLE, and returns its index. The
// new thread does not begin executing fn until some thread calls Yield (or
// the scheduler otherwise hands it the run token); this matches
// spawn_thread's platform contract of returning before the new thread runs.
func (s *Scheduler) Spawn(fn func()) (int, error) {
	for i, t := range s.threads {
		if State(t.state.Load()) == Unused {
			t.fn = fn
			t.sleepTicks.Store(0)
			t.state.Store(int32(Runnable))
			go s.runThread(i, t)
			return i, nil
		}
	}
	return -1, ErrTableFull
}

func (s *Scheduler) runThread(i int, t *thread) {
	<-t.resume // wait for the dispatcher to schedule us the first time
	t.fn()
	s.exit(i)
}

// Yield performs a round-robin search from current+1 (mod capacity) for a
// RUNNABLE thread. If the only RUNNABLE thread is the caller, Yield
// returns immediately without a context switch. Otherwise it hands off the
// run token to the target and blocks until it is handed back.
func (s *Scheduler) Yield() {
	cur := int(s.current.Load())
	n := len(s.threads)
	for off := 1; off <= n; off++ {
		i := (cur + off) % n
		if i == cur {
			return // nobody else is runnable; keep running
		}
		if State(s.threads[i].state.Load()) == Runnable {
			s.switchTo(cur, i)
			return
		}
	}
}

// switchTo hands the run token from "from" to "to" and blocks "from" until
// it is scheduled again.
func (s *Scheduler) switchTo(from, to int) {
	s.current.Store(int32(to))
	s.threads[to].resume <- struct{}{}
	<-s.threads[from].resume
}

// Sleep marks the calling thread SLEEPING with the given tick countdown,
// then yields. ticks <= 0 is a no-op that still yields once, matching
// "sleep 0" being indistinguishable from a bare yield.
func (s *Scheduler) Sleep(ticks int) {
	cur := int(s.current.Load())
	if ticks > 0 {
		s.threads[cur].state.Store(int32(Sleeping))
		s.threads[cur].sleepTicks.Store(int32(ticks))
	}
	s.Yield()
}

// Tick is called from the host's timer ISR equivalent. It decrements every
// SLEEPING thread's countdown and marks any that reach zero RUNNABLE. It
// never touches anything outside the thread table — in particular, never
// the Scheme heap or an environment — matching §5's ISR contract.
func (s *Scheduler) Tick() {
	for _, t := range s.threads {
		if State(t.state.Load()) != Sleeping {
			continue
		}
		if t.sleepTicks.Add(-1) <= 0 {
			t.state.Store(int32(Runnable))
		}
	}
}

// exit marks the calling thread UNUSED and yields; it is the terminal
// transition a thread makes by returning from its top-level function
// rather than by calling Exit explicitly, but Exit is exposed for threads
// that want to terminate early.
func (s *Scheduler) exit(i int) {
	s.threads[i].state.Store(int32(Unused))
	s.Yield()
}

// Exit marks the calling thread UNUSED and yields; it does not return.
// Equivalent to returning from Spawn's fn, exposed for callers that need
// to terminate from nested control flow.
func (s *Scheduler) Exit() {
	s.exit(int(s.current.Load()))
	// If Yield found another runnable thread it already parked us forever
	// inside switchTo. If we were the last runnable thread, Yield returned
	// here instead — block forever so Exit still never returns.
	select {}
}

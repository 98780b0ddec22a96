package platform

import (
	"github.com/arjunguha/slopos/internal/klog"
	"github.com/arjunguha/slopos/internal/sched"
)

// SpawnFunc hands a fresh runtime instance's source to the host, which is
// responsible for constructing it and scheduling it onto its own
// cooperative thread. It returns the thread handle (per sched.Scheduler)
// or an error. HostPort never constructs runtimes itself — that would
// require importing the scheme package, which imports platform — so this
// indirection is supplied by whoever wires the kernel together
// (cmd/slopos).
type SpawnFunc func(code []byte) (threadHandle int, err error)

// HostPort is the concrete, freestanding-kernel-shaped implementation of
// Port: console + block device + cooperative scheduler, all shared by
// every runtime instance the host multiplexes.
type HostPort struct {
	Console    *Console
	Disk       *BlockDevice
	Scheduler  *sched.Scheduler
	Spawn      SpawnFunc
	OnShutdown func()
	Log        *klog.Logger
}

// Putc writes one byte to the shared console.
func (h *HostPort) Putc(b byte) { h.Console.Putc(b) }

// Panic logs msg at the emergency level and halts by panicking; it never
// returns. Panic() is logiface's panic-after-write builder, so the write
// and the divergence happen together; the trailing panic is kept so the
// guarantee holds even if the logger is nil or its emergency level happens
// to be disabled.
func (h *HostPort) Panic(msg string) {
	if h.Log != nil {
		h.Log.Panic().Log("slopos: " + msg)
	}
	panic("slopos: " + msg)
}

// ReadChar blocks until a console byte is available, yielding cooperatively
// on the scheduler while it waits.
func (h *HostPort) ReadChar() byte {
	for !h.Console.Ready() {
		h.Scheduler.Yield()
	}
	return h.Console.Take()
}

// ReadByte reads one byte from the block device.
func (h *HostPort) ReadByte(offset int64) int { return h.Disk.ReadByte(offset) }

// DiskSize reports the block device's total size.
func (h *HostPort) DiskSize() int64 { return h.Disk.Size() }

// WriteBytes writes to the block device.
func (h *HostPort) WriteBytes(offset int64, data []byte) int {
	n := h.Disk.WriteBytes(offset, data)
	if n < 0 && h.Log != nil {
		h.Log.Warning().Int("offset", int(offset)).Int("len", len(data)).Log("disk write failed")
	}
	return n
}

// ForeignCall dispatches the conventional names in spec §6. Unknown names
// return a negative integer.
func (h *HostPort) ForeignCall(name string, args []int32) int32 {
	switch name {
	case "putc":
		if len(args) < 1 {
			return -1
		}
		h.Console.Putc(byte(args[0]))
		return 0
	case "yield":
		h.Scheduler.Yield()
		return 0
	case "sleep":
		ticks := 0
		if len(args) >= 1 {
			ticks = int(args[0])
		}
		h.Scheduler.Sleep(ticks)
		return 0
	case "shutdown":
		if h.OnShutdown != nil {
			h.OnShutdown()
		}
		return 0
	case "spawn":
		// Foreign-call spawn is an alias some boot programs use instead of
		// the spawn-thread primitive; args are ignored, as this path only
		// exists for hosts that want a uniform foreign-call surface.
		return -1
	default:
		return -1
	}
}

// SpawnThread delegates to the Spawn callback wired in by cmd/slopos.
func (h *HostPort) SpawnThread(code []byte) int32 {
	if h.Spawn == nil {
		return -1
	}
	id, err := h.Spawn(code)
	if err != nil {
		if h.Log != nil {
			h.Log.Warning().Str("err", err.Error()).Log("spawn-thread failed")
		}
		return -1
	}
	return int32(id)
}

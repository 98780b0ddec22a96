// Package platform defines the PlatformPort contract (spec §4.1): the only
// coupling between a Scheme runtime instance and the machine it runs on.
// The runtime never imports this package's concrete implementations
// directly — it is handed a Port value at construction and never learns
// anything about the surrounding host beyond that interface.
package platform

import "errors"

// Sentinel errors for the recoverable I/O failures in spec §7. Primitives
// convert any of these (or a nil) into the negative-integer-or-success
// contract the Scheme level actually observes; the error itself is only
// ever seen by Go-level callers and internal/klog.
var (
	// ErrOutOfRange is returned by ReadByte for an offset at or beyond
	// DiskSize.
	ErrOutOfRange = errors.New("platform: offset out of range")
	// ErrWriteFailed is returned by WriteBytes when the host could not
	// commit the write (e.g. a read-only backing device).
	ErrWriteFailed = errors.New("platform: write failed")
	// ErrSpawnFailed is returned by SpawnThread when the host could not
	// start a new runtime instance (e.g. the thread table is full).
	ErrSpawnFailed = errors.New("platform: spawn failed")
)

// Port is the abstract I/O surface every Scheme runtime instance is built
// against (spec §4.1). Every method here is total: there is no panic path
// through this interface except Panic itself, and every other failure is
// reported as a negative integer / error return, never a Go panic.
type Port interface {
	// Putc writes one byte to the console. No failure path.
	Putc(b byte)

	// Panic diverges: it logs msg and halts the machine. It must not
	// return to its caller.
	Panic(msg string)

	// ReadChar blocks until one byte is available from the console,
	// yielding cooperatively while none is, and returns it.
	ReadChar() byte

	// ReadByte returns the byte at offset, or a negative value if offset
	// is out of range (at or beyond DiskSize).
	ReadByte(offset int64) int

	// DiskSize reports the total addressable size of the backing block
	// device, in bytes.
	DiskSize() int64

	// WriteBytes copies data into the backing device starting at offset.
	// It returns the number of bytes written, or a negative value on
	// failure. May be a no-op returning len(data) on hosts with no
	// persistent storage.
	WriteBytes(offset int64, data []byte) int

	// ForeignCall is the integer-only escape hatch primitive surface: name
	// identifies the operation (see §6 for the conventional set), args
	// holds up to eight integer arguments, and the return value is always
	// an integer. Unrecognized names return a negative integer.
	ForeignCall(name string, args []int32) int32

	// SpawnThread hands code (already NUL-terminated by the caller) to the
	// host, which allocates a fresh runtime instance and starts it on its
	// own cooperative thread. Returns a non-negative thread handle, or a
	// negative value on failure (e.g. the thread table is full).
	SpawnThread(code []byte) int32
}

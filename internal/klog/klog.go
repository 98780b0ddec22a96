// Package klog wires the kernel's diagnostic logging (GC collections,
// scheduler context switches, thread spawn/exit, disk I/O failures, arena
// exhaustion before a fatal panic) onto the pack's logiface + stumpy
// builder-style logger instead of a hand-rolled one: a level-gated fluent
// Event (Str/Int/...Log), a pooled event buffer, and a single JSON sink,
// all supplied by logiface/stumpy's own implementation. klog only narrows
// logiface's full syslog-style level scale down to the five values this
// kernel actually logs at, and wires stumpy as the one sink it needs.
//
// klog is strictly separate from the Scheme console path: it never writes
// to platform.Port's UART. It is the host operator's diagnostic channel,
// not anything a Scheme program can observe.
package klog

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Level is logiface's own severity scale (syslog-style, most severe
// first); klog only names the five values the kernel logs at.
type Level = logiface.Level

const (
	LevelDebug = logiface.LevelDebug
	LevelInfo  = logiface.LevelInformational
	LevelWarn  = logiface.LevelWarning
	LevelError = logiface.LevelError
	LevelFatal = logiface.LevelAlert
)

// Logger is a stumpy-backed logiface logger. Debug/Info/Warning/Err/Fatal/
// Panic each start a Builder; chain Str/Int/... field calls and finish
// with Log(msg). A disabled level's Builder is nil and every chained call
// on it is a no-op, so callers never need to check the level themselves.
type Logger = logiface.Logger[*stumpy.Event]

// New constructs a Logger that writes JSON lines to out, dropping events
// below min.
func New(out io.Writer, min Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(out)),
		stumpy.L.WithLevel(min),
	)
}

// Package config loads the boot-time configuration for a slopos host: the
// fixed capacities every Runtime is built against, the thread table size,
// the disk image path, and the timer-tick period. It is TOML because
// BurntSushi/toml gives a direct struct-tag decode with good error
// messages for a malformed file, and the kernel has exactly one
// configuration surface to load once at startup — no hot-reload, no
// nested profiles.
package config

import (
	"errors"

	"github.com/BurntSushi/toml"
)

// Sentinel errors for Validate, in the style of platform's Err* variables.
var (
	errRootStackTooShallow = errors.New("config: root_stack_depth must be at least 256")
	errThreadTableTooSmall = errors.New("config: thread_table_size must be at least 2")
)

// Boot is the top-level configuration file shape, loaded once at startup
// and handed to scheme.Limits and the platform wiring in cmd/slopos.
type Boot struct {
	HeapCells        int    `toml:"heap_cells"`
	SymbolArenaBytes int    `toml:"symbol_arena_bytes"`
	StringArenaBytes int    `toml:"string_arena_bytes"`
	RootStackDepth   int    `toml:"root_stack_depth"`
	ThreadTableSize  int    `toml:"thread_table_size"`
	DiskPath         string `toml:"disk_path"`
	TickMillis       int    `toml:"tick_millis"`
}

// Defaults returns the configuration used when no file is supplied, or to
// fill in any zero-valued field left unset by one.
func Defaults() Boot {
	return Boot{
		HeapCells:        1 << 16,
		SymbolArenaBytes: 1 << 16,
		StringArenaBytes: 1 << 16,
		RootStackDepth:   256,
		ThreadTableSize:  16,
		DiskPath:         "",
		TickMillis:       10,
	}
}

// Load decodes a TOML file at path into a Boot, starting from Defaults and
// overwriting only the fields the file sets. An empty path returns
// Defaults unchanged.
func Load(path string) (Boot, error) {
	b := Defaults()
	if path == "" {
		return b, nil
	}
	if _, err := toml.DecodeFile(path, &b); err != nil {
		return Boot{}, err
	}
	b.applyDefaults()
	return b, nil
}

// applyDefaults re-fills any field a partial TOML file left at its zero
// value, since a configuration author should be able to override just one
// or two knobs without restating every other one.
func (b *Boot) applyDefaults() {
	d := Defaults()
	if b.HeapCells == 0 {
		b.HeapCells = d.HeapCells
	}
	if b.SymbolArenaBytes == 0 {
		b.SymbolArenaBytes = d.SymbolArenaBytes
	}
	if b.StringArenaBytes == 0 {
		b.StringArenaBytes = d.StringArenaBytes
	}
	if b.RootStackDepth == 0 {
		b.RootStackDepth = d.RootStackDepth
	}
	if b.ThreadTableSize == 0 {
		b.ThreadTableSize = d.ThreadTableSize
	}
	if b.TickMillis == 0 {
		b.TickMillis = d.TickMillis
	}
}

// Validate checks the invariants spec §4.2/§4.9 require: a root stack deep
// enough for real use, and a thread table with room for at least the boot
// thread plus one spawned thread.
func (b Boot) Validate() error {
	if b.RootStackDepth < 256 {
		return errRootStackTooShallow
	}
	if b.ThreadTableSize < 2 {
		return errThreadTableTooSmall
	}
	return nil
}

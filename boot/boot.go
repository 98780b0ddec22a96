// Package boot holds the default bootstrap program every host falls back
// to when no explicit boot program path is given on the command line.
package boot

import _ "embed"

// DefaultProgram is boot.scm, embedded at build time so a host binary can
// run standalone without a RAM-disk image.
//
//go:embed boot.scm
var DefaultProgram []byte

// Package apperr defines the sentinel errors of the recoverable error
// taxonomy. Invariant violations (duplicate snapshot insertions, inserts
// through file entries) are not represented here; those panic.
package apperr

import "errors"

var (
	// ErrCorrupt marks a persisted snapshot that could not be decoded:
	// bad magic, version or checksum, or a malformed payload. Distinct
	// from plain I/O errors so callers can tell "corrupt data" from
	// "cannot access storage".
	ErrCorrupt = errors.New("corrupt snapshot")

	// ErrOutsideRoot marks an enumerated path that cannot be expressed
	// relative to the snapshot root.
	ErrOutsideRoot = errors.New("path outside snapshot root")
)

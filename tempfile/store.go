// Package tempfile provides the backing storage for sorted runs: a store that
// creates anonymous, uniquely named artifacts, opens them again for
// sequential reading and removes them once consumed. A disk implementation
// keeps every artifact of one sort operation in a private directory; an
// in-memory implementation serves tests and benchmarks.
package tempfile

import (
	"io"
)

// File is a run artifact opened for sequential writing.
type File interface {
	io.Writer

	// Name identifies the artifact within its Store.
	Name() string

	// Close finishes writing. The artifact stays in the Store until removed.
	Close() error
}

// Store creates, reads and deletes run artifacts.
// A Store is owned by a single sort operation.
type Store interface {
	// Create makes a new, empty artifact with a unique name.
	Create() (File, error)

	// Open returns a reader positioned at the start of the named artifact.
	Open(name string) (io.ReadCloser, error)

	// Remove deletes the named artifact. Removing an artifact that no longer
	// exists is not an error.
	Remove(name string) error

	// Close removes every remaining artifact and releases the Store.
	Close() error
}

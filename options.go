package spillsort

import (
	"github.com/go-kit/log"

	"github.com/lanrat/spillsort/charset"
	"github.com/lanrat/spillsort/tempfile"
)

// DefaultMaxTempFiles is the default ceiling on the number of runs.
const DefaultMaxTempFiles = 1024

// Options holds the policy knobs of a sort operation. A Sorter copies its
// Options when it is created; later changes to the struct have no effect.
type Options struct {
	MaxTempFiles int                  // target upper bound on the number of runs
	MaxMemory    int64                // memory budget in bytes, 0 samples AvailableMemory per operation
	Distinct     bool                 // drop records equal to the previously emitted one
	NumHeader    int                  // leading input records excluded from sorting
	EmitHeader   bool                 // write the excluded header records before the sorted output
	Compression  tempfile.Compression // codec wrapped around run files
	Append       bool                 // append to the output file instead of truncating it
	TempDir      string               // empty for the OS default ex: /var/tmp
	Charset      string               // character encoding of text records, empty for UTF-8
	SortWorkers  int                  // goroutines sorting one batch in memory
	Logger       log.Logger           // nil disables logging
	Metrics      *Metrics             // nil disables metrics
}

// DefaultOptions returns the default options used if none are provided
func DefaultOptions() *Options {
	return &Options{
		MaxTempFiles: DefaultMaxTempFiles,
		SortWorkers:  4,
		Compression:  tempfile.None,
		Logger:       log.NewNopLogger(),
	}
}

// mergeOptions returns a validated copy of o with unset values replaced by
// the defaults
func mergeOptions(o *Options) (Options, error) {
	d := DefaultOptions()
	if o == nil {
		return *d, nil
	}
	c := *o
	switch {
	case c.MaxTempFiles < 0:
		return c, &ConfigError{Field: "MaxTempFiles", Value: c.MaxTempFiles, Reason: "must not be negative"}
	case c.MaxMemory < 0:
		return c, &ConfigError{Field: "MaxMemory", Value: c.MaxMemory, Reason: "must not be negative"}
	case c.NumHeader < 0:
		return c, &ConfigError{Field: "NumHeader", Value: c.NumHeader, Reason: "must not be negative"}
	case c.SortWorkers < 0:
		return c, &ConfigError{Field: "SortWorkers", Value: c.SortWorkers, Reason: "must not be negative"}
	case c.Compression < tempfile.None || c.Compression > tempfile.Zstd:
		return c, &ConfigError{Field: "Compression", Value: c.Compression, Reason: "unknown compression"}
	}
	if _, err := charset.Lookup(c.Charset); err != nil {
		return c, &ConfigError{Field: "Charset", Value: c.Charset, Reason: err.Error()}
	}
	if c.MaxTempFiles == 0 {
		c.MaxTempFiles = d.MaxTempFiles
	}
	if c.SortWorkers == 0 {
		c.SortWorkers = d.SortWorkers
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	// skipping TempDir as the empty string selects the default
	return c, nil
}

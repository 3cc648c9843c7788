package spillsort

import "io"

// CompareFunc is a function type for comparing two records of type E.
// It must implement a total order that is consistent with the codec's Equal:
// reflexive, antisymmetric and transitive.
// Returns a negative integer if a should be ordered before b, zero if they are equal,
// and a positive integer if a should be ordered after b in the final sorted output.
// The same function is used to sort every batch and to merge the runs; global
// order is only guaranteed when it is deterministic.
// This follows the same semantics as cmp.Compare.
type CompareFunc[E any] func(a, b E) int

// EqualFunc reports whether two records are identical. It drives
// distinct-filtering, which compares full records rather than sort keys.
type EqualFunc[E any] func(a, b E) bool

// Decoder reads records one at a time from a byte stream.
type Decoder[E any] interface {
	// Decode returns the next record, or io.EOF once the stream is exhausted.
	// Malformed input is reported as a *DecodeError.
	Decode() (E, error)
}

// Encoder writes records one at a time to a byte stream.
type Encoder[E any] interface {
	// Encode appends one record to the stream.
	Encode(E) error

	// Close flushes any buffered output. It does not close the
	// underlying writer.
	Close() error
}

// Codec describes a record format: how records are read and written, how
// much memory one record is estimated to occupy, and when two records are
// the same record.
type Codec[E any] interface {
	NewDecoder(r io.Reader) Decoder[E]
	NewEncoder(w io.Writer) Encoder[E]

	// EstimateSize approximates the in-memory footprint of a record in bytes.
	// It must be cheap, deterministic and never fail.
	EstimateSize(E) int64

	// Equal reports whether a and b are the same record.
	Equal(a, b E) bool
}

// byteCounter is implemented by decoders that know how many raw input bytes
// they have consumed. The run generator uses it to translate a size hint
// in input bytes into estimated in-memory bytes.
type byteCounter interface {
	BytesRead() int64
}

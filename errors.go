package spillsort

import (
	"errors"
	"fmt"
)

// ErrEmptySequence is returned by Sequence.Pop when no record remains.
var ErrEmptySequence = errors.New("spillsort: pop from empty sequence")

// Phase names the stage of a sort operation that failed.
type Phase string

const (
	// PhaseGenerate covers reading the input and writing sorted runs.
	PhaseGenerate Phase = "generate"
	// PhaseMerge covers reading the runs back and writing the output.
	PhaseMerge Phase = "merge"
)

// PhaseError reports which phase of a sort operation failed and why.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("spillsort: %s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// DecodeError represents input that could not be decoded into a record,
// such as invalid bytes for the configured charset or a malformed row.
type DecodeError struct {
	// Cause is the underlying decoding failure
	Cause error
	// Record is the 1-based position of the offending record in its stream
	Record int64
	// Context provides additional information about what was being decoded
	Context string
}

func (e *DecodeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("decode error in %s (record %d): %v", e.Context, e.Record, e.Cause)
	}
	return fmt.Sprintf("decode error (record %d): %v", e.Record, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// NewDecodeError creates a DecodeError
func NewDecodeError(cause error, record int64, context string) error {
	return &DecodeError{Cause: cause, Record: record, Context: context}
}

// ComparisonError represents a panic recovered while sorting or merging.
// The comparison function is the usual source, but a panicking Encoder
// passed to Merge is reported the same way.
type ComparisonError struct {
	// Cause is the recovered panic value
	Cause interface{}
	// Context names the stage that panicked
	Context string
}

func (e *ComparisonError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("panic during %s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("recovered panic: %v", e.Cause)
}

func (e *ComparisonError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// NewComparisonError creates a ComparisonError
func NewComparisonError(cause interface{}, context string) error {
	return &ComparisonError{Cause: cause, Context: context}
}

// NewDiskError wraps an I/O error on backing storage or the output
func NewDiskError(err error, operation, path string) error {
	if path != "" {
		return fmt.Errorf("disk error during %s on %s: %w", operation, path, err)
	}
	return fmt.Errorf("disk error during %s: %w", operation, err)
}

// ConfigError represents an error in configuration parameters
type ConfigError struct {
	// Field is the name of the configuration field that's invalid
	Field string
	// Value is the invalid value provided
	Value interface{}
	// Reason explains why the value is invalid
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %s", e.Field, e.Value, e.Reason)
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

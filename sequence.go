package spillsort

import (
	"io"
)

// Sequence is a cursor over a sorted source of records with one record of
// look-ahead. It is the only view of a run the merge engine needs, so any
// sorted source (a run on disk, an in-memory batch, a stream) can be merged.
type Sequence[E any] interface {
	// Peek returns the next record without consuming it. The boolean is
	// false when the sequence is empty.
	Peek() (E, bool)

	// Pop consumes and returns the next record and loads the one after it.
	// It returns ErrEmptySequence when the sequence is empty. A non-nil
	// error with a valid record means the refill failed.
	Pop() (E, error)

	// Empty reports whether the source is exhausted and no record is cached.
	Empty() bool

	// Close releases the underlying source. It is safe to call more than once.
	Close() error
}

// decoderSequence reads a sorted stream through a Decoder.
type decoderSequence[E any] struct {
	dec    Decoder[E]
	closer io.Closer
	cache  E
	ok     bool
	closed bool
}

// NewSequence returns a Sequence over the records produced by dec. The first
// record is loaded immediately. closer, which may be nil, is called once by
// Close; it is also called when loading the first record fails.
func NewSequence[E any](dec Decoder[E], closer io.Closer) (Sequence[E], error) {
	s := &decoderSequence[E]{dec: dec, closer: closer}
	if err := s.reload(); err != nil {
		return nil, firstError(err, s.Close())
	}
	return s, nil
}

func (s *decoderSequence[E]) reload() error {
	rec, err := s.dec.Decode()
	if err != nil {
		var zero E
		s.cache, s.ok = zero, false
		if err == io.EOF {
			return nil
		}
		return err
	}
	s.cache, s.ok = rec, true
	return nil
}

func (s *decoderSequence[E]) Peek() (E, bool) {
	return s.cache, s.ok
}

func (s *decoderSequence[E]) Pop() (E, error) {
	if !s.ok {
		var zero E
		return zero, ErrEmptySequence
	}
	rec := s.cache
	return rec, s.reload()
}

func (s *decoderSequence[E]) Empty() bool {
	return !s.ok
}

func (s *decoderSequence[E]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var zero E
	s.cache, s.ok = zero, false
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// sliceSequence walks an in-memory sorted batch.
type sliceSequence[E any] struct {
	recs []E
}

// NewSliceSequence returns a Sequence over recs, which must already be
// sorted by the time the sequence is first read.
func NewSliceSequence[E any](recs []E) Sequence[E] {
	return &sliceSequence[E]{recs: recs}
}

func (s *sliceSequence[E]) Peek() (E, bool) {
	if len(s.recs) == 0 {
		var zero E
		return zero, false
	}
	return s.recs[0], true
}

func (s *sliceSequence[E]) Pop() (E, error) {
	var zero E
	if len(s.recs) == 0 {
		return zero, ErrEmptySequence
	}
	rec := s.recs[0]
	s.recs[0] = zero // release reference
	s.recs = s.recs[1:]
	return rec, nil
}

func (s *sliceSequence[E]) Empty() bool {
	return len(s.recs) == 0
}

func (s *sliceSequence[E]) Close() error {
	s.recs = nil
	return nil
}

// closeFunc adapts a function to io.Closer
type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// closeAll closes every sequence and returns the first error.
func closeAll[E any](seqs []Sequence[E]) error {
	var err error
	for _, s := range seqs {
		err = firstError(err, s.Close())
	}
	return err
}

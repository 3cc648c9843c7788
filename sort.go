// Package spillsort implements an external sort: input larger than memory is
// split into memory bounded batches, each batch is sorted and spilled to
// backing storage as a run, and the runs are fused by a k-way merge into one
// sorted output. Records are generic; a Codec describes how they are read,
// written, sized and compared for equality.
//
// spillsort is NOT a stable sort: records that compare equal may be emitted
// in any order.
package spillsort

import (
	"context"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/lanrat/spillsort/tempfile"
)

// Sorter sorts streams of records of type E. A Sorter holds no state between
// operations; each operation gets its own backing storage, so one Sorter
// may run several operations concurrently.
type Sorter[E any] struct {
	codec    Codec[E]
	cmp      CompareFunc[E]
	opts     Options
	logger   log.Logger
	metrics  *Metrics
	newStore func() (tempfile.Store, error)
}

// New returns a Sorter for records described by codec and ordered by cmp.
// opts can be nil to use the defaults, or only set the non-default values desired.
// Runs are written to a private directory below opts.TempDir that is removed
// when the operation finishes; an interrupted process may leave it behind.
func New[E any](codec Codec[E], cmp CompareFunc[E], opts *Options) (*Sorter[E], error) {
	s, err := newSorter(codec, cmp, opts)
	if err != nil {
		return nil, err
	}
	parent := s.opts.TempDir
	s.newStore = func() (tempfile.Store, error) {
		d, err := tempfile.NewDir(parent)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return s, nil
}

// NewMock is New but runs are kept in store instead of on disk.
// This is useful for testing and benchmarking without filesystem I/O.
func NewMock[E any](codec Codec[E], cmp CompareFunc[E], opts *Options, store *tempfile.Mem) (*Sorter[E], error) {
	s, err := newSorter(codec, cmp, opts)
	if err != nil {
		return nil, err
	}
	s.newStore = func() (tempfile.Store, error) {
		return sharedStore{store}, nil
	}
	return s, nil
}

func newSorter[E any](codec Codec[E], cmp CompareFunc[E], opts *Options) (*Sorter[E], error) {
	o, err := mergeOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Sorter[E]{
		codec:   codec,
		cmp:     cmp,
		opts:    o,
		logger:  o.Logger,
		metrics: o.Metrics,
	}, nil
}

// sharedStore is a Store used by several operations; closing one operation
// leaves the artifacts of the others alone.
type sharedStore struct {
	tempfile.Store
}

func (sharedStore) Close() error { return nil }

// Options returns a copy of the options in use, defaults applied.
func (s *Sorter[E]) Options() Options {
	return s.opts
}

// Sort reads all records from r, sorts them and writes them to w.
// sizeHint is the best-effort length of r in bytes, zero or negative when
// unknown. It returns the number of sorted records written, headers excluded.
// Errors are *PhaseError values naming the phase that failed.
func (s *Sorter[E]) Sort(ctx context.Context, r io.Reader, sizeHint int64, w io.Writer) (int64, error) {
	set, batch, err := s.generate(ctx, r, sizeHint, true)
	if err != nil {
		return 0, &PhaseError{Phase: PhaseGenerate, Err: err}
	}
	defer s.cleanup(set)
	return s.mergeSet(ctx, set, batch, w)
}

// SortFile sorts the file at in and writes the result to out. in and out may
// name the same file: the output is only opened once the input is consumed.
// With Options.Append the output is appended to instead of truncated.
func (s *Sorter[E]) SortFile(ctx context.Context, in, out string) (int64, error) {
	f, sizeHint, err := openInput(in)
	if err != nil {
		return 0, &PhaseError{Phase: PhaseGenerate, Err: err}
	}
	set, batch, err := s.generate(ctx, f, sizeHint, true)
	f.Close()
	if err != nil {
		return 0, &PhaseError{Phase: PhaseGenerate, Err: err}
	}
	defer s.cleanup(set)

	w, err := s.createOutput(out)
	if err != nil {
		return 0, &PhaseError{Phase: PhaseMerge, Err: err}
	}
	n, err := s.mergeSet(ctx, set, batch, w)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = &PhaseError{Phase: PhaseMerge, Err: NewDiskError(cerr, "close output", out)}
	}
	return n, err
}

// MergeRuns merges already sorted runs into w and returns the number of
// records written. Runs created by GenerateRuns are deleted as they are
// consumed; runs from FileRun are left in place.
func (s *Sorter[E]) MergeRuns(ctx context.Context, runs []*Run, w io.Writer) (int64, error) {
	seqs, err := s.openRuns(runs)
	if err != nil {
		return 0, &PhaseError{Phase: PhaseMerge, Err: err}
	}
	return s.merge(ctx, seqs, nil, w)
}

// MergeFiles merges the sorted files at paths into the file out, which is
// appended to with Options.Append and truncated otherwise. The inputs are
// read with Options.Compression and are not modified. out must not be one
// of the inputs.
func (s *Sorter[E]) MergeFiles(ctx context.Context, out string, paths ...string) (int64, error) {
	runs := make([]*Run, 0, len(paths))
	for _, p := range paths {
		r, err := FileRun(p, s.opts.Compression)
		if err != nil {
			return 0, &PhaseError{Phase: PhaseMerge, Err: err}
		}
		runs = append(runs, r)
	}
	seqs, err := s.openRuns(runs)
	if err != nil {
		return 0, &PhaseError{Phase: PhaseMerge, Err: err}
	}
	w, err := s.createOutput(out)
	if err != nil {
		closeAll(seqs)
		return 0, &PhaseError{Phase: PhaseMerge, Err: err}
	}
	n, err := s.merge(ctx, seqs, nil, w)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = &PhaseError{Phase: PhaseMerge, Err: NewDiskError(cerr, "close output", out)}
	}
	return n, err
}

// mergeSet merges the result of generate into w, from memory when the input
// fit in a single batch.
func (s *Sorter[E]) mergeSet(ctx context.Context, set *RunSet[E], batch []E, w io.Writer) (int64, error) {
	if batch != nil {
		level.Debug(s.logger).Log("msg", "input fit in memory, skipping runs", "records", len(batch))
		return s.merge(ctx, []Sequence[E]{NewSliceSequence(batch)}, set.Header, w)
	}
	seqs, err := s.openRuns(set.Runs)
	if err != nil {
		return 0, &PhaseError{Phase: PhaseMerge, Err: err}
	}
	return s.merge(ctx, seqs, set.Header, w)
}

// merge writes header, when Options.EmitHeader is set, followed by the merge of seqs.
func (s *Sorter[E]) merge(ctx context.Context, seqs []Sequence[E], header []E, w io.Writer) (int64, error) {
	enc := s.codec.NewEncoder(w)
	if s.opts.EmitHeader {
		for _, h := range header {
			if err := enc.Encode(h); err != nil {
				err = firstError(err, closeAll(seqs), enc.Close())
				return 0, &PhaseError{Phase: PhaseMerge, Err: err}
			}
		}
	}
	n, err := Merge(ctx, seqs, enc, s.cmp, s.codec.Equal, s.opts.Distinct)
	s.metrics.merged(len(seqs), n)
	if err != nil {
		return n, &PhaseError{Phase: PhaseMerge, Err: err}
	}
	level.Debug(s.logger).Log("msg", "merged runs", "runs", len(seqs), "records", n)
	return n, nil
}

// openRuns opens a Sequence per run, closing the ones already opened on failure.
func (s *Sorter[E]) openRuns(runs []*Run) ([]Sequence[E], error) {
	seqs := make([]Sequence[E], 0, len(runs))
	for _, r := range runs {
		seq, err := openRun(r, s.codec)
		if err != nil {
			return nil, firstError(err, closeAll(seqs))
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

func (s *Sorter[E]) createOutput(path string) (*os.File, error) {
	flag := os.O_CREATE | os.O_WRONLY
	if s.opts.Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, NewDiskError(err, "open output", path)
	}
	return f, nil
}

func (s *Sorter[E]) cleanup(set *RunSet[E]) {
	if err := set.Cleanup(); err != nil {
		level.Warn(s.logger).Log("msg", "failed to clean up runs", "err", err)
	}
}

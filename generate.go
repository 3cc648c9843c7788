package spillsort

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/lanrat/spillsort/tempfile"
)

const (
	// canaryRecords is the number of records read before the size hint is
	// rescaled from raw input bytes to estimated in-memory bytes.
	canaryRecords = 1024
	// parallelSortThreshold is the smallest batch sorted by more than one worker.
	parallelSortThreshold = 4096
)

// RunSet is the output of run generation: the sorted runs plus the header
// records that were excluded from sorting.
type RunSet[E any] struct {
	Runs    []*Run
	Header  []E
	Records int64 // input records read, headers excluded

	store tempfile.Store
}

// Cleanup removes every run that has not been merged yet and releases the
// backing storage of the operation. It is safe to call more than once.
func (rs *RunSet[E]) Cleanup() error {
	var err error
	for _, r := range rs.Runs {
		err = firstError(err, r.Remove())
	}
	if rs.store != nil {
		err = firstError(err, rs.store.Close())
		rs.store = nil
	}
	return err
}

// GenerateRuns reads every record from r, sorts them in memory bounded
// batches and spills each batch as a run. sizeHint is the best-effort
// length of r in bytes, zero or negative when unknown. The caller owns the
// returned RunSet and must call Cleanup once it is done with the runs.
func (s *Sorter[E]) GenerateRuns(ctx context.Context, r io.Reader, sizeHint int64) (*RunSet[E], error) {
	set, _, err := s.generate(ctx, r, sizeHint, false)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseGenerate, Err: err}
	}
	return set, nil
}

// GenerateRunsFile is GenerateRuns over the file at path, using its size as the hint.
func (s *Sorter[E]) GenerateRunsFile(ctx context.Context, path string) (*RunSet[E], error) {
	f, sizeHint, err := openInput(path)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseGenerate, Err: err}
	}
	defer f.Close()
	return s.GenerateRuns(ctx, f, sizeHint)
}

func openInput(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, NewDiskError(err, "open input", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, NewDiskError(err, "stat input", path)
	}
	return f, fi.Size(), nil
}

// generate drains r into runs. When keepLast is set and the whole input fits
// in a single batch, no run is written and the sorted batch is returned instead.
// On failure every run written so far is removed.
func (s *Sorter[E]) generate(ctx context.Context, r io.Reader, sizeHint int64, keepLast bool) (*RunSet[E], []E, error) {
	store, err := s.newStore()
	if err != nil {
		return nil, nil, NewDiskError(err, "create run store", s.opts.TempDir)
	}
	set := &RunSet[E]{store: store}
	done := false
	defer func() {
		if !done {
			if err := set.Cleanup(); err != nil {
				level.Warn(s.logger).Log("msg", "cleanup after failed generation", "err", err)
			}
		}
	}()

	dec := s.codec.NewDecoder(r)
	counter, _ := dec.(byteCounter)
	memory := s.memoryBudget()
	maxRuns := s.opts.MaxTempFiles
	blockSize := EstimateBlockSize(sizeHint, maxRuns, memory)
	calibrated := counter == nil || sizeHint <= 0

	var (
		batch      []E
		batchBytes int64
		estimated  int64
	)
	// rescale spreads the estimated remainder of the input, including the
	// pending batch, over the runs still allowed.
	rescale := func() {
		raw := counter.BytesRead()
		if raw <= 0 {
			return
		}
		ratio := float64(estimated) / float64(raw)
		remaining := int64(float64(max(sizeHint-raw, 0))*ratio) + batchBytes
		runsLeft := max(maxRuns-len(set.Runs), 1)
		blockSize = EstimateBlockSize(remaining, runsLeft, memory)
		level.Debug(s.logger).Log("msg", "rescaled block size", "hint", sizeHint, "read", raw, "remaining", remaining, "runs_left", runsLeft, "block_size", blockSize)
	}
	for n := 0; ; n++ {
		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		rec, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(set.Header) < s.opts.NumHeader {
			set.Header = append(set.Header, rec)
			continue
		}

		size := s.codec.EstimateSize(rec)
		batch = append(batch, rec)
		batchBytes += size
		estimated += size
		set.Records++

		if !calibrated && (set.Records >= canaryRecords || batchBytes >= blockSize) {
			calibrated = true
			rescale()
		}

		if batchBytes >= blockSize {
			if err := s.spill(ctx, set, batch); err != nil {
				return nil, nil, err
			}
			clear(batch)
			batch = batch[:0]
			batchBytes = 0
			if calibrated && counter != nil && sizeHint > 0 {
				rescale()
			}
		}
	}
	s.metrics.recordsRead(set.Records)

	if len(batch) > 0 {
		if keepLast && len(set.Runs) == 0 {
			sorted, err := s.sortBatch(ctx, batch)
			if err != nil {
				return nil, nil, err
			}
			done = true
			return set, sorted, nil
		}
		if err := s.spill(ctx, set, batch); err != nil {
			return nil, nil, err
		}
	}
	done = true
	level.Debug(s.logger).Log("msg", "generated runs", "runs", len(set.Runs), "records", set.Records, "block_size", blockSize)
	return set, nil, nil
}

// memoryBudget returns the configured budget, or samples the available memory.
func (s *Sorter[E]) memoryBudget() int64 {
	if s.opts.MaxMemory > 0 {
		return s.opts.MaxMemory
	}
	m, err := AvailableMemory()
	if err != nil {
		level.Warn(s.logger).Log("msg", "unable to determine available memory, using default budget", "err", err, "budget", DefaultMemoryBudget)
		return DefaultMemoryBudget
	}
	return m
}

// spill sorts batch and writes it to a new run in set. Once set holds
// MaxTempFiles runs, the batch is folded into the smallest run instead.
func (s *Sorter[E]) spill(ctx context.Context, set *RunSet[E], batch []E) error {
	sorted, err := s.sortBatch(ctx, batch)
	if err != nil {
		return err
	}
	if len(set.Runs) >= s.opts.MaxTempFiles {
		return s.fold(ctx, set, sorted)
	}
	run, err := s.writeRun(set.store, sorted)
	if err != nil {
		return err
	}
	set.Runs = append(set.Runs, run)
	level.Debug(s.logger).Log("msg", "spilled run", "run", run.Name, "records", run.Records, "bytes", run.Size)
	return nil
}

// fold merges sorted with the smallest run of set into a new run that
// replaces it. The old run is removed once it has been read.
func (s *Sorter[E]) fold(ctx context.Context, set *RunSet[E], sorted []E) error {
	i := 0
	for j, r := range set.Runs {
		if r.Size < set.Runs[i].Size {
			i = j
		}
	}
	old := set.Runs[i]
	seq, err := openRun(old, s.codec)
	if err != nil {
		return err
	}
	seqs := []Sequence[E]{seq, NewSliceSequence(sorted)}
	run, err := s.createRun(set.store, func(enc Encoder[E]) (int64, error) {
		return Merge(ctx, seqs, keepOpen[E]{enc}, s.cmp, s.codec.Equal, s.opts.Distinct)
	})
	if err != nil {
		return firstError(err, closeAll(seqs))
	}
	set.Runs[i] = run
	level.Debug(s.logger).Log("msg", "folded batch into run", "old", old.Name, "run", run.Name, "records", run.Records, "bytes", run.Size)
	return nil
}

// sortBatch sorts batch by the comparator. Large batches are split into
// shards sorted concurrently and fused with Merge into a new slice.
func (s *Sorter[E]) sortBatch(ctx context.Context, batch []E) ([]E, error) {
	workers := s.opts.SortWorkers
	if workers <= 1 || len(batch) < parallelSortThreshold {
		return batch, sortSlice(batch, s.cmp)
	}

	shardSize := (len(batch) + workers - 1) / workers
	shards := make([]Sequence[E], 0, workers)
	var g errgroup.Group
	for start := 0; start < len(batch); start += shardSize {
		shard := batch[start:min(start+shardSize, len(batch))]
		shards = append(shards, NewSliceSequence(shard))
		g.Go(func() error {
			return sortSlice(shard, s.cmp)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &sliceEncoder[E]{recs: make([]E, 0, len(batch))}
	if _, err := Merge(ctx, shards, out, s.cmp, nil, false); err != nil {
		return nil, err
	}
	return out.recs, nil
}

// sortSlice sorts recs in place, turning a comparator panic into an error.
func sortSlice[E any](recs []E, cmp CompareFunc[E]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComparisonError(r, "sorting batch")
		}
	}()
	slices.SortFunc(recs, cmp)
	return nil
}

// writeRun encodes sorted records into a new artifact of store. Adjacent
// duplicates are dropped when Distinct is set.
func (s *Sorter[E]) writeRun(store tempfile.Store, recs []E) (*Run, error) {
	return s.createRun(store, func(enc Encoder[E]) (int64, error) {
		uniq := newUniqEncoder(enc, s.codec.Equal, s.opts.Distinct)
		for _, rec := range recs {
			if err := uniq.Encode(rec); err != nil {
				return uniq.count, err
			}
		}
		return uniq.count, nil
	})
}

// createRun creates an artifact of store and fills it through write, which
// returns the number of records it encoded and must not close the encoder.
func (s *Sorter[E]) createRun(store tempfile.Store, write func(Encoder[E]) (int64, error)) (*Run, error) {
	f, err := store.Create()
	if err != nil {
		return nil, NewDiskError(err, "create run", "")
	}
	run := &Run{
		Name:        f.Name(),
		Compression: s.opts.Compression,
		store:       store,
		metrics:     s.metrics,
	}
	cw := &countingWriter{w: f}
	err = firstError(s.encodeRun(cw, write, run), f.Close())
	if err != nil {
		store.Remove(run.Name)
		return nil, NewDiskError(err, "write run", run.Name)
	}
	run.Size = cw.n
	s.metrics.runCreated(cw.n)
	return run, nil
}

func (s *Sorter[E]) encodeRun(w io.Writer, write func(Encoder[E]) (int64, error), run *Run) error {
	zw, err := s.opts.Compression.NewWriter(w)
	if err != nil {
		return err
	}
	enc := s.codec.NewEncoder(zw)
	n, err := write(enc)
	if err != nil {
		return firstError(err, enc.Close(), zw.Close())
	}
	run.Records = n
	return firstError(enc.Close(), zw.Close())
}

// keepOpen shields an Encoder from the Close issued by Merge.
type keepOpen[E any] struct {
	Encoder[E]
}

func (keepOpen[E]) Close() error { return nil }

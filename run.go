package spillsort

import (
	"io"
	"os"

	"github.com/lanrat/spillsort/tempfile"
)

// Run is a sorted sequence of encoded records on backing storage.
// Runs created by a Sorter are deleted once merged; runs wrapping
// caller-provided files with FileRun are never deleted.
type Run struct {
	Name        string               // location of the run within its store, or a file path
	Compression tempfile.Compression // stream codec the run was written with
	Size        int64                // bytes on storage, informational
	Records     int64                // records written, -1 when unknown

	store   tempfile.Store
	metrics *Metrics
	removed bool
}

// FileRun wraps an already sorted file so it can be passed to MergeRuns.
// The file is read with compression c and left in place after the merge.
func FileRun(path string, c tempfile.Compression) (*Run, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, NewDiskError(err, "stat", path)
	}
	return &Run{Name: path, Compression: c, Size: fi.Size(), Records: -1}, nil
}

// Open returns a reader over the decompressed contents of the run.
func (r *Run) Open() (io.ReadCloser, error) {
	var (
		src io.ReadCloser
		err error
	)
	if r.store != nil {
		src, err = r.store.Open(r.Name)
	} else {
		src, err = os.Open(r.Name)
	}
	if err != nil {
		return nil, err
	}
	dec, err := r.Compression.NewReader(src)
	if err != nil {
		return nil, firstError(err, src.Close())
	}
	return &runReader{ReadCloser: dec, src: src}, nil
}

// Remove deletes the run from its store. It is a no-op for runs that were
// already removed and for runs wrapping caller-provided files.
func (r *Run) Remove() error {
	if r.removed || r.store == nil {
		return nil
	}
	r.removed = true
	err := r.store.Remove(r.Name)
	r.metrics.runRemoved()
	return err
}

// runReader closes the decompressor and then the underlying artifact.
type runReader struct {
	io.ReadCloser
	src io.Closer
}

func (r *runReader) Close() error {
	return firstError(r.ReadCloser.Close(), r.src.Close())
}

// openRun returns a Sequence over r that removes the run when closed.
func openRun[E any](r *Run, codec Codec[E]) (Sequence[E], error) {
	rc, err := r.Open()
	if err != nil {
		return nil, NewDiskError(err, "open run", r.Name)
	}
	release := closeFunc(func() error {
		return firstError(rc.Close(), r.Remove())
	})
	return NewSequence(codec.NewDecoder(rc), release)
}

// countingWriter tracks the number of bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

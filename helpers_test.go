package spillsort_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/tempfile"
)

var errBroken = errors.New("broken")

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func newLineSorter(t *testing.T, opts *spillsort.Options) *spillsort.Sorter[string] {
	t.Helper()
	s, err := spillsort.NewLineSorter(opts)
	require.NoError(t, err)
	return s
}

func newMockLineSorter(t *testing.T, opts *spillsort.Options, store *tempfile.Mem) *spillsort.Sorter[string] {
	t.Helper()
	codec, err := spillsort.NewLineCodec("")
	require.NoError(t, err)
	s, err := spillsort.NewMock[string](codec, strings.Compare, opts, store)
	require.NoError(t, err)
	return s
}

// sortLines runs s over lines and returns the output lines and count.
func sortLines(t *testing.T, s *spillsort.Sorter[string], lines []string) ([]string, int64) {
	t.Helper()
	in := joinLines(lines)
	var out bytes.Buffer
	n, err := s.Sort(context.Background(), strings.NewReader(in), int64(len(in)), &out)
	require.NoError(t, err)
	return splitLines(out.String()), n
}

// makeRandomLines returns n lines drawn from a pool of distinct values.
func makeRandomLines(rng *rand.Rand, n, distinct int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("value-%06d", rng.Intn(distinct))
	}
	return lines
}

// collectEncoder records encoded values in memory.
type collectEncoder[E any] struct {
	recs   []E
	closed int
}

func (c *collectEncoder[E]) Encode(rec E) error {
	c.recs = append(c.recs, rec)
	return nil
}

func (c *collectEncoder[E]) Close() error {
	c.closed++
	return nil
}

// failingEncoder fails after accepting limit records.
type failingEncoder[E any] struct {
	limit  int
	seen   int
	closed int
}

func (f *failingEncoder[E]) Encode(E) error {
	if f.seen >= f.limit {
		return errBroken
	}
	f.seen++
	return nil
}

func (f *failingEncoder[E]) Close() error {
	f.closed++
	return nil
}

// panickingEncoder panics once limit records have been accepted.
type panickingEncoder[E any] struct {
	limit  int
	seen   int
	closed int
}

func (p *panickingEncoder[E]) Encode(E) error {
	if p.seen >= p.limit {
		panic("encoder full")
	}
	p.seen++
	return nil
}

func (p *panickingEncoder[E]) Close() error {
	p.closed++
	return nil
}

// trackedSequence counts calls to Close on the wrapped Sequence.
type trackedSequence[E any] struct {
	spillsort.Sequence[E]
	closed int
}

func (t *trackedSequence[E]) Close() error {
	t.closed++
	return t.Sequence.Close()
}

func tracked[E any](recs ...E) *trackedSequence[E] {
	return &trackedSequence[E]{Sequence: spillsort.NewSliceSequence(recs)}
}

// errWriter fails every write.
type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errBroken }

// errReader returns data and then fails.
type errReader struct {
	data *strings.Reader
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.data.Len() == 0 {
		return 0, errBroken
	}
	return r.data.Read(p)
}

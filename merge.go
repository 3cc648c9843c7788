package spillsort

import (
	"context"

	"github.com/lanrat/spillsort/queue"
)

// checkInterval is how many records are processed between context checks.
const checkInterval = 1024

// Merge performs a k-way merge of sorted sequences into out and returns the
// number of records written. With distinct set, a record equal to the
// previously written one is dropped; a nil equal falls back to cmp == 0.
//
// Sequences are closed as soon as they are exhausted. On every return path,
// including errors and panics raised by cmp or out, out and all remaining sequences
// are closed and the first error encountered is returned.
// Records that compare equal across sequences are written in no particular order.
func Merge[E any](ctx context.Context, seqs []Sequence[E], out Encoder[E], cmp CompareFunc[E], equal EqualFunc[E], distinct bool) (written int64, err error) {
	if equal == nil {
		equal = func(a, b E) bool { return cmp(a, b) == 0 }
	}
	pq := queue.NewPriorityQueue(func(a, b Sequence[E]) int {
		x, _ := a.Peek()
		y, _ := b.Peek()
		return cmp(x, y)
	})
	pending := seqs
	enc := newUniqEncoder(out, equal, distinct)

	defer func() {
		err = firstError(err, closeAll(pending), closeAll(pq.Drain()), out.Close())
	}()
	defer func() {
		if r := recover(); r != nil {
			written = enc.count
			err = NewComparisonError(r, "merge")
		}
	}()

	for len(pending) > 0 {
		s := pending[0]
		pending = pending[1:]
		if s.Empty() {
			if err := s.Close(); err != nil {
				return 0, err
			}
			continue
		}
		// Push stores s before comparing it
		pq.Push(s)
	}

	for n := 0; pq.Len() > 0; n++ {
		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return enc.count, err
			}
		}
		s := pq.Peek()
		rec, err := s.Pop()
		if err != nil {
			return enc.count, err
		}
		if err := enc.Encode(rec); err != nil {
			return enc.count, err
		}
		if s.Empty() {
			pq.Pop()
			if err := s.Close(); err != nil {
				return enc.count, err
			}
			continue
		}
		pq.PeekUpdate()
	}
	return enc.count, nil
}

package queue_test

import (
	"cmp"
	"testing"

	"github.com/lanrat/spillsort/queue"
)

func TestInit0(t *testing.T) {
	q := queue.NewPriorityQueue(cmp.Compare[int])
	for i := 20; i > 0; i-- {
		q.Push(0) // all elements are the same
	}

	l := q.Len()
	if l != 20 {
		t.Fatalf("queue len is %d, expected %d", l, 20)
	}

	for i := 1; q.Len() > 0; i++ {
		x := q.Peek()
		y := q.Pop()
		if x != y {
			t.Fatalf("q.Peek() and q.Pop() returned different values %d %d", x, y)
		}
		if x != 0 {
			t.Errorf("%d.th pop got %d; want %d", i, x, 0)
		}
	}
}

func Test(t *testing.T) {
	q := queue.NewPriorityQueue(cmp.Compare[int])
	l := q.Len()
	if l != 0 {
		t.Fatalf("queue len is %d, expected %d", l, 0)
	}

	for i := 20; i > 10; i-- {
		q.Push(i)
	}

	l = q.Len()
	if l != 10 {
		t.Fatalf("queue len is %d, expected %d", l, 10)
	}

	for i := 10; i > 0; i-- {
		q.Push(i)
	}

	l = q.Len()
	if l != 20 {
		t.Fatalf("queue len is %d, expected %d", l, 20)
	}

	for i := 1; q.Len() > 0; i++ {
		x := q.Peek()
		y := q.Pop()
		if x != y {
			t.Fatalf("q.Peek() and q.Pop() returned different values %d %d", x, y)
		}
		if i < 20 {
			q.Push(20 + i)
		}
		if x != i {
			t.Errorf("%d.th pop got %d; want %d", i, x, i)
		}
	}
}

// cursor mimics how the merge engine uses the queue: the head is advanced
// in place and the heap repaired with PeekUpdate.
type cursor struct {
	vals []int
}

func TestPeekUpdate(t *testing.T) {
	q := queue.NewPriorityQueue(func(a, b *cursor) int {
		return cmp.Compare(a.vals[0], b.vals[0])
	})
	q.Push(&cursor{vals: []int{1, 4, 7}})
	q.Push(&cursor{vals: []int{2, 5, 8}})
	q.Push(&cursor{vals: []int{3, 6, 9}})

	var got []int
	for q.Len() > 0 {
		c := q.Peek()
		got = append(got, c.vals[0])
		c.vals = c.vals[1:]
		if len(c.vals) == 0 {
			q.Pop()
		} else {
			q.PeekUpdate()
		}
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("merged order %v is not sorted", got)
		}
	}
}

func TestDrain(t *testing.T) {
	q := queue.NewPriorityQueue(cmp.Compare[int])
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	items := q.Drain()
	if len(items) != 5 {
		t.Fatalf("Drain returned %d items, expected 5", len(items))
	}
	if q.Len() != 0 {
		t.Fatalf("queue len is %d after Drain, expected 0", q.Len())
	}
}

package scheduler

import (
	"container/heap"
	"time"
)

// timerEntry is one scheduled callback, ordered by deadline then by
// sequence number so equal deadlines preserve post order.
type timerEntry struct {
	when time.Time
	seq  uint64
	h    Handle
	task Task
	// canceled is set by Cancel; popped entries are skipped rather than
	// removed from the middle of the heap.
	canceled bool
}

// timerHeap is a min-heap of timerEntry ordered by (when, seq): a plain
// container/heap over a slice of deadline+callback pairs.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// timerQueue wraps timerHeap with handle lookup for Cancel.
type timerQueue struct {
	heap    timerHeap
	byHandle map[Handle]*timerEntry
}

func newTimerQueue() *timerQueue {
	return &timerQueue{byHandle: make(map[Handle]*timerEntry)}
}

func (q *timerQueue) push(e *timerEntry) {
	q.byHandle[e.h] = e
	heap.Push(&q.heap, e)
}

// cancel marks the handle's entry canceled, if it still exists and
// hasn't fired. Returns true if found; false for a handle that is
// unknown, already fired or already canceled (Loop.Cancel reports all of
// these as success regardless).
func (q *timerQueue) cancel(h Handle) bool {
	e, ok := q.byHandle[h]
	if !ok {
		return false
	}
	e.canceled = true
	delete(q.byHandle, h)
	return true
}

// popReady pops and returns the next non-canceled entry whose deadline
// is <= now, or nil if none is ready.
func (q *timerQueue) popReady(now time.Time) *timerEntry {
	for q.heap.Len() > 0 {
		top := q.heap[0]
		if top.when.After(now) {
			return nil
		}
		heap.Pop(&q.heap)
		if top.canceled {
			continue
		}
		delete(q.byHandle, top.h)
		return top
	}
	return nil
}

// nextDeadline returns the deadline of the next non-canceled entry and
// true, or the zero time and false if the queue is empty of live
// entries (canceled head entries are skipped by lazily popping them).
func (q *timerQueue) nextDeadline() (time.Time, bool) {
	for q.heap.Len() > 0 {
		top := q.heap[0]
		if !top.canceled {
			return top.when, true
		}
		heap.Pop(&q.heap)
	}
	return time.Time{}, false
}

func (q *timerQueue) len() int { return len(q.byHandle) }

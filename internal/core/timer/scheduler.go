package timer

import (
	"container/heap"
	"time"

	"go.uber.org/zap"
)

// Scheduler holds wall-clock callbacks that run outside the frame loop, on
// the logic thread, whenever the host calls RunDue. There is no
// cancellation: a callback must re-check that the entities it targets are
// still alive before touching them.
type Scheduler struct {
	pending timerHeap
	seq     uint64
	now     func() time.Time
	log     *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{now: time.Now, log: log}
}

// SetClock replaces the time source used by After.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// After schedules fn to run on the first RunDue at or past now+delay.
func (s *Scheduler) After(delay time.Duration, name string, fn func()) {
	s.At(s.now().Add(delay), name, fn)
}

// At schedules fn for an absolute deadline.
func (s *Scheduler) At(due time.Time, name string, fn func()) {
	s.seq++
	heap.Push(&s.pending, &entry{due: due, seq: s.seq, name: name, fn: fn})
}

// RunDue fires every callback whose deadline is not after now, earliest
// first and FIFO among equal deadlines. Callbacks scheduled by a callback
// with a deadline already passed run in the same call. Returns how many ran.
func (s *Scheduler) RunDue(now time.Time) int {
	n := 0
	for len(s.pending) > 0 && !s.pending[0].due.After(now) {
		e := heap.Pop(&s.pending).(*entry)
		s.fire(e)
		n++
	}
	return n
}

func (s *Scheduler) fire(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("timer callback panicked", zap.String("timer", e.name), zap.Any("panic", r))
		}
	}()
	if e.fn != nil {
		e.fn()
	}
}

// Len returns the number of pending callbacks.
func (s *Scheduler) Len() int { return len(s.pending) }

// Next returns the earliest pending deadline.
func (s *Scheduler) Next() (time.Time, bool) {
	if len(s.pending) == 0 {
		return time.Time{}, false
	}
	return s.pending[0].due, true
}

// Reset drops every pending callback without running it.
func (s *Scheduler) Reset() {
	s.pending = s.pending[:0]
}

type entry struct {
	due  time.Time
	seq  uint64
	name string
	fn   func()
}

type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*entry)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

package globe

import "time"

// FrameID identifies a requested frame callback.
type FrameID uint64

type frameRequest struct {
	id FrameID
	fn func(now time.Time)
}

// FrameQueue schedules callbacks for the next frame. Callbacks requested
// while a flush is running wait for the following flush.
type FrameQueue struct {
	next    FrameID
	pending []frameRequest
	running []frameRequest
}

// NewFrameQueue creates an empty queue.
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

// Request schedules fn for the next flush.
func (q *FrameQueue) Request(fn func(now time.Time)) FrameID {
	q.next++
	q.pending = append(q.pending, frameRequest{id: q.next, fn: fn})
	return q.next
}

// Cancel drops a scheduled callback, including one in the batch currently
// being flushed that has not run yet. Unknown IDs are ignored.
func (q *FrameQueue) Cancel(id FrameID) {
	for i, r := range q.pending {
		if r.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
	for i := range q.running {
		if q.running[i].id == id {
			q.running[i].fn = nil
			return
		}
	}
}

// Flush runs the callbacks scheduled before the call and returns how many ran.
func (q *FrameQueue) Flush(now time.Time) int {
	q.running, q.pending = q.pending, nil
	defer func() { q.running = nil }()

	ran := 0
	for i := range q.running {
		fn := q.running[i].fn
		if fn == nil {
			continue
		}
		q.running[i].fn = nil
		fn(now)
		ran++
	}
	return ran
}

// Len returns the number of callbacks waiting for the next flush.
func (q *FrameQueue) Len() int { return len(q.pending) }

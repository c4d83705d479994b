package globe

import (
	"testing"
	"time"
)

func TestFrameQueueRunsInOrder(t *testing.T) {
	q := NewFrameQueue()
	var order []int
	q.Request(func(time.Time) { order = append(order, 1) })
	q.Request(func(time.Time) { order = append(order, 2) })

	if n := q.Flush(time.Now()); n != 2 {
		t.Fatalf("expected 2 callbacks, got %d", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("unexpected order %v", order)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestFrameQueueDefersNestedRequests(t *testing.T) {
	q := NewFrameQueue()
	runs := 0
	var tick func(time.Time)
	tick = func(time.Time) {
		runs++
		q.Request(tick)
	}
	q.Request(tick)

	q.Flush(time.Now())
	q.Flush(time.Now())
	if runs != 2 {
		t.Errorf("expected one run per flush, got %d", runs)
	}
	if q.Len() != 1 {
		t.Errorf("expected the next frame pending, got %d", q.Len())
	}
}

func TestFrameQueueCancel(t *testing.T) {
	q := NewFrameQueue()
	ran := false
	id := q.Request(func(time.Time) { ran = true })
	q.Cancel(id)
	q.Cancel(id + 100)

	if n := q.Flush(time.Now()); n != 0 || ran {
		t.Error("cancelled callback ran")
	}
}

func TestFrameQueueCancelDuringFlush(t *testing.T) {
	q := NewFrameQueue()
	ran := false
	var second FrameID
	q.Request(func(time.Time) { q.Cancel(second) })
	second = q.Request(func(time.Time) { ran = true })

	if n := q.Flush(time.Now()); n != 1 {
		t.Errorf("expected 1 callback, got %d", n)
	}
	if ran {
		t.Error("callback cancelled mid-flush still ran")
	}
}

package stream

import (
	"context"
	"sync/atomic"
	"time"
)

// queue is the bounded FIFO channel between the producer task and the
// consumer loop. Both ends use bounded waits: enqueue gives up after a
// timeout (lossy backpressure), dequeue returns after a poll interval so
// the consumer can re-check deadline and producer state. Neither side
// can block forever.
type queue struct {
	ch      chan item
	dropped atomic.Int64
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &queue{ch: make(chan item, capacity)}
}

// enqueue attempts a bounded-wait send. False means the queue stayed
// full for the whole timeout and the item was dropped; dropped items are
// never retried.
func (q *queue) enqueue(it item, timeout time.Duration) bool {
	select {
	case q.ch <- it:
		return true
	default:
	}
	if timeout <= 0 {
		q.dropped.Add(1)
		return false
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case q.ch <- it:
		return true
	case <-t.C:
		q.dropped.Add(1)
		return false
	}
}

// send blocks until the item is queued or ctx ends. Control signals go
// through here: they must never be dropped, and the consumer is
// guaranteed to drain the queue while it runs.
func (q *queue) send(ctx context.Context, it item) bool {
	select {
	case q.ch <- it:
		return true
	case <-ctx.Done():
		return false
	}
}

// dequeue waits up to poll for the next item.
func (q *queue) dequeue(poll time.Duration) (item, bool) {
	select {
	case it := <-q.ch:
		return it, true
	default:
	}
	if poll <= 0 {
		return item{}, false
	}
	t := time.NewTimer(poll)
	defer t.Stop()
	select {
	case it := <-q.ch:
		return it, true
	case <-t.C:
		return item{}, false
	}
}

func (q *queue) len() int { return len(q.ch) }

// droppedCount returns how many fragments were lost to backpressure.
func (q *queue) droppedCount() int64 { return q.dropped.Load() }

package events

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push once the consumer is gone
var ErrQueueClosed = errors.New("event queue closed")

// Queue is an unbounded multi-producer, single-consumer FIFO. Push never
// blocks; Drain hands the consumer everything queued so far.
type Queue struct {
	mu     sync.Mutex
	items  []FocusEvent
	closed bool
	wake   chan struct{}
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Push appends an event. Safe for concurrent producers.
func (q *Queue) Push(ev FocusEvent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
		// A wake is already pending
	}
	return nil
}

// Drain removes and returns all queued events in arrival order. It never blocks
// and returns nil when the queue is empty.
func (q *Queue) Drain() []FocusEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of pending events
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wake fires after a Push so the consumer can tick early
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

// Close rejects further pushes. Pending events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

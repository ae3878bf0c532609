// Package queue provides the unbounded FIFO that linearizes index operations.
package queue

import (
	"context"
	"io"
	"sync"
)

type EnqueueResult string

const (
	EnqueueAccepted EnqueueResult = "accepted"
	EnqueueDropped  EnqueueResult = "dropped"
)

// MemoryQueue is an unbounded FIFO. Enqueue never blocks; Dequeue blocks while
// the queue is empty and open. Items left after Close are still delivered.
type MemoryQueue[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	done   chan struct{}
	closed bool
}

func NewMemoryQueue[T any]() *MemoryQueue[T] {
	return &MemoryQueue[T]{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (q *MemoryQueue[T]) Enqueue(item T) EnqueueResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return EnqueueDropped
	}
	q.items = append(q.items, item)
	q.signal()
	return EnqueueAccepted
}

// Supersede appends item after removing pending items it makes redundant.
// Pending items are scanned from the newest backwards; the scan stops at the
// first item for which barrier reports true, and every item before that point
// for which match reports true is removed. Removal and append happen
// atomically with respect to other producers.
func (q *MemoryQueue[T]) Supersede(item T, match, barrier func(T) bool) (EnqueueResult, []T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return EnqueueDropped, nil
	}
	removed := q.removeTail(match, barrier)
	q.items = append(q.items, item)
	q.signal()
	return EnqueueAccepted, removed
}

// RemoveFunc removes pending items the same way Supersede does, without
// enqueuing anything.
func (q *MemoryQueue[T]) RemoveFunc(match, barrier func(T) bool) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeTail(match, barrier)
}

func (q *MemoryQueue[T]) removeTail(match, barrier func(T) bool) []T {
	if match == nil {
		return nil
	}
	start := 0
	for i := len(q.items) - 1; i >= 0; i-- {
		if barrier != nil && barrier(q.items[i]) {
			start = i + 1
			break
		}
	}
	var removed []T
	kept := q.items[:start]
	for _, it := range q.items[start:] {
		if match(it) {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	var zero T
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = zero
	}
	q.items = kept
	return removed
}

// signal wakes a blocked Dequeue. Callers hold q.mu.
func (q *MemoryQueue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Dequeue returns the oldest item, blocking until one is available. It
// returns io.EOF once the queue is closed and empty, or ctx.Err() when ctx is
// done first.
func (q *MemoryQueue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) > 0 {
				q.signal()
			}
			q.mu.Unlock()
			return item, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return zero, io.EOF
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Drain removes and returns every pending item.
func (q *MemoryQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Close stops accepting items. It is safe to call more than once.
func (q *MemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	return nil
}

func (q *MemoryQueue[T]) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

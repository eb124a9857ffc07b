// Package fifo implements an unbounded first-in first-out queue. Producers
// never block, consumers block in Pop until an item arrives, the queue is
// closed, or their context is cancelled.
package fifo

import (
	"context"
	"sync"

	"github.com/restic/xattrbridge/internal/errors"
)

// ErrClosed is returned by Pop once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded FIFO queue, safe for concurrent use.
type Queue[T any] struct {
	m      sync.Mutex
	items  []T
	closed bool

	// notify holds at most one pending wakeup
	notify chan struct{}
	done   chan struct{}
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (q *Queue[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Push appends item to the queue. It returns false if the queue was already
// closed, the item is dropped in that case.
func (q *Queue[T]) Push(item T) bool {
	q.m.Lock()
	if q.closed {
		q.m.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.m.Unlock()

	q.wake()
	return true
}

// TryPop removes and returns the first item without blocking.
func (q *Queue[T]) TryPop() (item T, ok bool) {
	q.m.Lock()
	defer q.m.Unlock()

	if len(q.items) == 0 {
		return item, false
	}

	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]

	// pass the wakeup on to the next consumer
	if len(q.items) > 0 {
		q.wake()
	}

	return item, true
}

// Pop removes and returns the first item, waiting for one if the queue is
// empty. Items pushed before Close are still returned, afterwards Pop returns
// ErrClosed.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		if item, ok := q.TryPop(); ok {
			return item, nil
		}

		q.m.Lock()
		closed := q.closed && len(q.items) == 0
		q.m.Unlock()

		if closed {
			var zero T
			return zero, ErrClosed
		}

		select {
		case <-q.notify:
		case <-q.done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Close marks the queue as closed. Further calls to Push fail.
func (q *Queue[T]) Close() {
	q.m.Lock()
	defer q.m.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.m.Lock()
	defer q.m.Unlock()
	return len(q.items)
}

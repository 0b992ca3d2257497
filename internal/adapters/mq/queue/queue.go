// Package queue is the bounded in-memory settlement queue.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Settlement is the payload flowing through the queue.
type Settlement = model.Settlement

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a settlement without blocking.
	// Returns ErrFull or ErrClosed when it was not enqueued.
	Enqueue(ctx context.Context, s Settlement) error

	// Dequeue returns a channel that receives settlements until the queue
	// is closed and drained.
	Dequeue(ctx context.Context) <-chan Settlement

	// Len returns the current number of queued settlements.
	Len(ctx context.Context) int

	// Capacity returns the queue bound.
	Capacity() int

	// Close stops accepting settlements. Queued ones are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Settlement
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Settlement, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.publishSize()
	return q
}

func (q *InMemoryQueue) publishSize() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Enqueue adds a settlement to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Settlement) error { //nolint:gocritic // hugeParam: passed by value onto the channel
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", s.Game.ID, ctx.Err())
	default:
	}

	select {
	case q.items <- s:
		metrics.RecordQueueEnqueue()
		q.publishSize()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that receives settlements as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Settlement {
	out := make(chan Settlement)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- s:
					metrics.RecordQueueDequeue()
					q.publishSize()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued settlements.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.publishSize()
	return len(q.items)
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

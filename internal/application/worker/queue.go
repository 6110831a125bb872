package worker

import (
	"context"
	"errors"
	"sync"

	"vitals-monitor/internal/domain"
)

// ErrQueueClosed is returned by Publish after Close.
var ErrQueueClosed = errors.New("archive queue closed")

// Queue hands completed summaries to the pool. It is the diagnosis sink
// sessions publish into.
type Queue struct {
	mu     sync.RWMutex
	ch     chan domain.Summary
	closed bool
}

func NewQueue(buffer int) *Queue {
	if buffer < 0 {
		buffer = 0
	}
	return &Queue{ch: make(chan domain.Summary, buffer)}
}

// Publish enqueues a summary, waiting for buffer space until ctx is done.
func (q *Queue) Publish(ctx context.Context, summary domain.Summary) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- summary:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Summaries is the channel the pool consumes.
func (q *Queue) Summaries() <-chan domain.Summary {
	return q.ch
}

// Close stops accepting summaries. The pool drains what is buffered.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

var _ domain.DiagnosisSink = (*Queue)(nil)

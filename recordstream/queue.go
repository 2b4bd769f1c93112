package recordstream

import (
	"context"

	"github.com/brimdata/wave"
)

const DefaultQueueCapacity = 1024

// A Queue is a bounded FIFO of records shared by any number of producers
// and a single consumer.  A nil record is the sentinel a producer pushes
// when it has finished.  Records from one producer keep their order.
type Queue struct {
	ch chan *wave.Record
}

// NewQueue returns a queue holding at most capacity records, or
// DefaultQueueCapacity records if capacity is not positive.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan *wave.Record, capacity)}
}

// Push appends rec, blocking while the queue is full.  It returns the
// context's error if ctx is done first.
func (q *Queue) Push(ctx context.Context, rec *wave.Record) error {
	select {
	case q.ch <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done pushes the sentinel that marks the end of one producer.
func (q *Queue) Done(ctx context.Context) error {
	return q.Push(ctx, nil)
}

// Pop removes the oldest record, blocking while the queue is empty.  A nil
// record with a nil error is a sentinel.
func (q *Queue) Pop(ctx context.Context) (*wave.Record, error) {
	select {
	case rec := <-q.ch:
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) Len() int { return len(q.ch) }
func (q *Queue) Cap() int { return cap(q.ch) }

// Reset discards any queued records.  It must not be called while
// producers are running.
func (q *Queue) Reset() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}

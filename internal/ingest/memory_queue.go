package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/hallimar/bookvault/internal/core"
)

// MemoryQueue implements core.IngestQueue with a buffered channel.
// Jobs do not survive a restart; it suits tests and single-process
// imports.
type MemoryQueue struct {
	queue  chan *core.InsertJob
	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates an in-memory ingest queue. bufferSize caps
// the number of buffered jobs and defaults to 10000.
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &MemoryQueue{
		queue: make(chan *core.InsertJob, bufferSize),
	}
}

// Enqueue adds a job to the queue. Returns an error when the buffer is
// full rather than blocking the importer.
func (q *MemoryQueue) Enqueue(ctx context.Context, job *core.InsertJob) error {
	if job == nil {
		return ErrInvalidJob
	}

	// The lock is held across the send; Close takes the write lock
	// before closing the channel, so it cannot close mid-send. The
	// select never blocks, so the lock is released promptly.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.queue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("memory queue is full")
	}
}

// Dequeue retrieves up to batchSize jobs in FIFO order without
// blocking.
func (q *MemoryQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.InsertJob, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	jobs := make([]*core.InsertJob, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		select {
		case job := <-q.queue:
			if job == nil {
				return jobs, nil
			}
			jobs = append(jobs, job)
		case <-ctx.Done():
			return jobs, ctx.Err()
		default:
			return jobs, nil
		}
	}
	return jobs, nil
}

// Size returns the current number of buffered jobs.
func (q *MemoryQueue) Size() int {
	return len(q.queue)
}

// Close closes the queue and prevents further enqueuing.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.queue)
	return nil
}

// Package ingest implements the batch import pipeline: a delimited
// file reader, queue backends for pending inserts, and a journal that
// tracks batches until they reach the database.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hallimar/bookvault/internal/core"
)

var (
	// ErrQueueClosed is returned when enqueuing to a closed queue.
	ErrQueueClosed = errors.New("ingest queue is closed")

	// ErrInvalidJob is returned when a nil or incomplete job is enqueued.
	ErrInvalidJob = errors.New("invalid insert job")

	// ErrListOpsNotSupported is returned when the KV backend behind a
	// redis queue does not implement list operations.
	ErrListOpsNotSupported = errors.New("kv store does not support list operations")
)

// RedisQueue implements core.IngestQueue over a Redis list. Jobs are
// JSON-encoded and survive restarts, unlike the memory queue.
type RedisQueue struct {
	ops    core.ListStore
	key    string
	closed atomic.Bool
}

// NewRedisQueue creates a list-backed ingest queue. The KV store must
// implement core.ListStore. prefix namespaces the queue key; it
// defaults to "ingest".
func NewRedisQueue(kvStore core.KVStore, prefix string) (*RedisQueue, error) {
	ops, ok := kvStore.(core.ListStore)
	if !ok {
		return nil, ErrListOpsNotSupported
	}
	if prefix == "" {
		prefix = "ingest"
	}
	return &RedisQueue{
		ops: ops,
		key: fmt.Sprintf("%s:%s", prefix, core.TableName),
	}, nil
}

// Enqueue pushes a job onto the end of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job *core.InsertJob) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	if job == nil {
		return ErrInvalidJob
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal insert job: %w", err)
	}
	if err := q.ops.ListPush(ctx, q.key, data); err != nil {
		return fmt.Errorf("failed to enqueue insert job: %w", err)
	}
	return nil
}

// Dequeue pops up to batchSize jobs in FIFO order. Entries that fail
// to decode are skipped.
func (q *RedisQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.InsertJob, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	jobs := make([]*core.InsertJob, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		data, err := q.ops.ListPop(ctx, q.key)
		if err != nil {
			if len(jobs) > 0 {
				return jobs, nil
			}
			return nil, fmt.Errorf("failed to dequeue insert job: %w", err)
		}
		if data == nil {
			break
		}

		var job core.InsertJob
		if err := json.Unmarshal(data, &job); err != nil {
			continue
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

// Size returns the list length, or 0 when it cannot be read.
func (q *RedisQueue) Size() int {
	if q.closed.Load() {
		return 0
	}
	length, err := q.ops.ListLength(context.Background(), q.key)
	if err != nil {
		return 0
	}
	return int(length)
}

// Close closes the queue. The underlying KV store stays open; its
// owner closes it.
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

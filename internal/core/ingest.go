package core

import (
	"context"
	"time"
)

// InsertJob is a pending catalog insert flowing through the import
// pipeline. Jobs are enqueued by the importer and drained into the
// database in transactional batches.
type InsertJob struct {
	// Book is the row to insert.
	Book Book `json:"book"`

	// Source identifies where the job came from, typically the import
	// file path. Used for reporting failed rows.
	Source string `json:"source,omitempty"`

	// Line is the 1-based line number in the source file, if any.
	Line int `json:"line,omitempty"`

	// EnqueuedAt is when the job entered the queue.
	EnqueuedAt time.Time `json:"enqueued_at"`

	// Attempts tracks how many times this job has been retried.
	Attempts int `json:"attempts,omitempty"`
}

// IngestQueue defines the interface for the import pipeline's queue.
// Backends: in-memory channel, redis list, kafka topic.
type IngestQueue interface {
	// Enqueue adds an insert job to the queue.
	Enqueue(ctx context.Context, job *InsertJob) error

	// Dequeue retrieves up to batchSize jobs in FIFO order.
	// Returns an empty slice when no jobs are available.
	Dequeue(ctx context.Context, batchSize int) ([]*InsertJob, error)

	// Size returns the current number of queued jobs. Backends that
	// cannot count exactly (kafka) return an approximation.
	Size() int

	// Close closes the queue and releases resources.
	Close() error
}

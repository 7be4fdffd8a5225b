package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hallimar/bookvault/internal/core"
)

// BatchRecord is a journal entry for one drained batch. The drainer
// records a batch before writing it to the database and acknowledges
// it after the transaction commits, so an operator can find batches
// that never made it.
type BatchRecord struct {
	// BatchID uniquely identifies the batch.
	BatchID string `json:"batch_id"`

	// Source is the import source shared by the jobs, if any.
	Source string `json:"source,omitempty"`

	// ISBNs lists the books in the batch.
	ISBNs []string `json:"isbns"`

	// RecordedAt is when the batch entered the journal.
	RecordedAt time.Time `json:"recorded_at"`
}

// Journal tracks in-flight import batches in the KV store.
type Journal struct {
	kvStore core.KVStore
	prefix  string
	ttl     time.Duration
}

// NewJournal creates a journal. prefix namespaces the entries and
// defaults to "journal"; ttl bounds how long entries are retained and
// defaults to 24 hours.
func NewJournal(kvStore core.KVStore, prefix string, ttl time.Duration) *Journal {
	if prefix == "" {
		prefix = "journal"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Journal{kvStore: kvStore, prefix: prefix, ttl: ttl}
}

// Record stores a batch entry. A missing BatchID is generated from the
// batch contents and timestamp.
func (j *Journal) Record(ctx context.Context, record *BatchRecord) error {
	if record.BatchID == "" {
		record.BatchID = j.generateBatchID(len(record.ISBNs))
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal batch record: %w", err)
	}

	if err := j.kvStore.Set(ctx, j.entryKey(record.BatchID), data, j.ttl); err != nil {
		return fmt.Errorf("failed to store batch record: %w", err)
	}
	return nil
}

// Get retrieves a batch record by ID.
func (j *Journal) Get(ctx context.Context, batchID string) (*BatchRecord, error) {
	data, err := j.kvStore.Get(ctx, j.entryKey(batchID))
	if err != nil {
		return nil, fmt.Errorf("failed to get batch record: %w", err)
	}

	var record BatchRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch record: %w", err)
	}
	return &record, nil
}

// Acknowledge marks a batch as committed to the database.
func (j *Journal) Acknowledge(ctx context.Context, batchID string) error {
	if err := j.kvStore.Set(ctx, j.ackKey(batchID), []byte("1"), j.ttl); err != nil {
		return fmt.Errorf("failed to acknowledge batch: %w", err)
	}
	return nil
}

// IsAcknowledged reports whether a batch has been committed.
func (j *Journal) IsAcknowledged(ctx context.Context, batchID string) (bool, error) {
	exists, err := j.kvStore.Exists(ctx, j.ackKey(batchID))
	if err != nil {
		return false, fmt.Errorf("failed to check batch acknowledgment: %w", err)
	}
	return exists, nil
}

func (j *Journal) entryKey(batchID string) string {
	return fmt.Sprintf("%s:%s:entry:%s", j.prefix, core.TableName, batchID)
}

func (j *Journal) ackKey(batchID string) string {
	return fmt.Sprintf("%s:%s:ack:%s", j.prefix, core.TableName, batchID)
}

func (j *Journal) generateBatchID(size int) string {
	return fmt.Sprintf("%s_%d_%d", core.TableName, size, time.Now().UnixNano())
}

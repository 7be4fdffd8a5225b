package bookvault

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/ingest"
	"github.com/hallimar/bookvault/internal/schema"
)

// Drainer moves queued insert jobs into the database in transactional
// batches, rate limited so a bulk import cannot overwhelm MySQL.
type Drainer struct {
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	queue   core.IngestQueue
	db      core.Database
	journal *ingest.Journal
	config  DrainerConfig
}

// DrainerConfig contains the drainer settings.
type DrainerConfig struct {
	// DrainRate is the maximum number of inserts per second.
	DrainRate int

	// BatchSize is how many jobs are dequeued and committed per
	// transaction.
	BatchSize int

	// PollInterval is how often to check an empty queue.
	PollInterval time.Duration

	// MaxRetries caps how often a failed batch is requeued.
	MaxRetries int
}

// DefaultDrainerConfig returns sensible drainer defaults.
func DefaultDrainerConfig() DrainerConfig {
	return DrainerConfig{
		DrainRate:    50,
		BatchSize:    100,
		PollInterval: 100 * time.Millisecond,
		MaxRetries:   3,
	}
}

// NewDrainer creates a drainer. journal may be nil to skip batch
// journaling.
func NewDrainer(queue core.IngestQueue, db core.Database, journal *ingest.Journal, config DrainerConfig) *Drainer {
	defaults := DefaultDrainerConfig()
	if config.DrainRate <= 0 {
		config.DrainRate = defaults.DrainRate
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = defaults.MaxRetries
	}

	return &Drainer{
		queue:   queue,
		db:      db,
		journal: journal,
		config:  config,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the drain loop in its own goroutine. Call Stop to shut
// it down.
func (d *Drainer) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.mu.Unlock()

	go d.run(ctx)
	log.Printf("[DRAINER] started: rate=%d inserts/sec batch=%d", d.config.DrainRate, d.config.BatchSize)
	return nil
}

// Stop gracefully stops the drainer, waiting for the in-flight batch
// to finish.
func (d *Drainer) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	<-d.doneCh
	log.Printf("[DRAINER] stopped")
	return nil
}

// IsRunning reports whether the drain loop is active.
func (d *Drainer) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// QueueSize returns the current depth of the ingest queue.
func (d *Drainer) QueueSize() int {
	if d.queue == nil {
		return 0
	}
	return d.queue.Size()
}

func (d *Drainer) run(ctx context.Context) {
	defer close(d.doneCh)

	limiter := rate.NewLimiter(rate.Limit(d.config.DrainRate), 1)

	for {
		select {
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		default:
			// Poll by dequeuing rather than checking Size; the kafka
			// backend only approximates its depth and reports 0 for a
			// backlog it has not seen yet.
			jobs, err := d.queue.Dequeue(ctx, d.config.BatchSize)
			if err != nil {
				log.Printf("[DRAINER] dequeue failed: %v", err)
				time.Sleep(d.config.PollInterval)
				continue
			}
			if len(jobs) == 0 {
				time.Sleep(d.config.PollInterval)
				continue
			}

			d.drainBatch(ctx, jobs, limiter)
		}
	}
}

// drainBatch writes one batch inside a single transaction. Duplicate
// ISBNs are skipped; any other failure rolls the batch back and
// requeues it.
func (d *Drainer) drainBatch(ctx context.Context, jobs []*core.InsertJob, limiter *rate.Limiter) {
	record := d.recordBatch(ctx, jobs)

	tx, err := d.db.BeginTx(ctx)
	if err != nil {
		log.Printf("[DRAINER] failed to begin transaction: %v", err)
		d.requeue(ctx, jobs)
		return
	}

	inserted := 0
	for _, job := range jobs {
		if job == nil {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			tx.Rollback()
			d.requeue(ctx, jobs)
			return
		}

		query, args, err := schema.BuildInsert(job.Book)
		if err != nil {
			log.Printf("[DRAINER] dropping invalid job from %s line %d: %v", job.Source, job.Line, err)
			continue
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			if errors.Is(err, core.ErrDuplicateISBN) {
				log.Printf("[DRAINER] skipping duplicate isbn %s from %s line %d", job.Book.ISBN, job.Source, job.Line)
				continue
			}
			log.Printf("[DRAINER] insert failed, rolling back batch: %v", err)
			tx.Rollback()
			d.requeue(ctx, jobs)
			return
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[DRAINER] commit failed: %v", err)
		d.requeue(ctx, jobs)
		return
	}

	if d.journal != nil && record != nil {
		if err := d.journal.Acknowledge(ctx, record.BatchID); err != nil {
			log.Printf("[DRAINER] failed to acknowledge batch %s: %v", record.BatchID, err)
		}
	}
	log.Printf("[DRAINER] committed batch: %d inserted, %d skipped", inserted, len(jobs)-inserted)
}

func (d *Drainer) recordBatch(ctx context.Context, jobs []*core.InsertJob) *ingest.BatchRecord {
	if d.journal == nil {
		return nil
	}

	record := &ingest.BatchRecord{ISBNs: make([]string, 0, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		record.ISBNs = append(record.ISBNs, job.Book.ISBN)
		if record.Source == "" {
			record.Source = job.Source
		}
	}
	if err := d.journal.Record(ctx, record); err != nil {
		log.Printf("[DRAINER] failed to journal batch: %v", err)
		return nil
	}
	return record
}

// requeue puts a failed batch back on the queue. Jobs that exhausted
// their retries are dropped and reported.
func (d *Drainer) requeue(ctx context.Context, jobs []*core.InsertJob) {
	for _, job := range jobs {
		if job == nil {
			continue
		}
		job.Attempts++
		if job.Attempts > d.config.MaxRetries {
			log.Printf("[DRAINER] dropping job %s from %s line %d after %d attempts",
				job.Book.ISBN, job.Source, job.Line, job.Attempts)
			continue
		}
		if err := d.queue.Enqueue(ctx, job); err != nil {
			log.Printf("[DRAINER] failed to requeue job %s: %v", job.Book.ISBN, err)
		}
	}
}

package bookvault

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/ingest"
)

// Importer reads delimited catalog files and feeds the ingest queue.
// The drainer moves the queued jobs into the database.
type Importer struct {
	queue     core.IngestQueue
	separator string
}

// NewImporter creates an importer over a queue. separator defaults to
// ";".
func NewImporter(queue core.IngestQueue, separator string) *Importer {
	if separator == "" {
		separator = ";"
	}
	return &Importer{queue: queue, separator: separator}
}

// ImportFile parses a catalog file and enqueues one insert job per
// book. It returns the number of enqueued jobs. The file must be fully
// valid; a malformed line rejects the whole file before anything is
// enqueued.
func (im *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	books, err := ingest.ReadCatalogFile(path, im.separator)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, book := range books {
		job := &core.InsertJob{
			Book:       book,
			Source:     path,
			EnqueuedAt: time.Now(),
		}
		if err := im.queue.Enqueue(ctx, job); err != nil {
			return enqueued, fmt.Errorf("failed to enqueue book %s: %w", book.ISBN, err)
		}
		enqueued++
	}

	log.Printf("[IMPORT] enqueued %d books from %s", enqueued, path)
	return enqueued, nil
}

// ImportBooks enqueues books directly, bypassing file parsing. Useful
// when the rows come from another system.
func (im *Importer) ImportBooks(ctx context.Context, source string, books []Book) (int, error) {
	enqueued := 0
	for _, book := range books {
		job := &core.InsertJob{
			Book:       toCore(book),
			Source:     source,
			EnqueuedAt: time.Now(),
		}
		if err := im.queue.Enqueue(ctx, job); err != nil {
			return enqueued, fmt.Errorf("failed to enqueue book %s: %w", book.ISBN, err)
		}
		enqueued++
	}
	return enqueued, nil
}

package bookvault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/ingest"
)

// txDB is an in-memory core.Database whose transactions stage inserts
// until Commit, enforcing ISBN uniqueness like the real table.
type txDB struct {
	mu    sync.Mutex
	books []core.Book
}

func (d *txDB) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	return nil, errors.New("not supported")
}

func (d *txDB) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	return nil, errors.New("not supported")
}

func (d *txDB) BeginTx(ctx context.Context) (core.Transaction, error) {
	return &fakeTx{db: d}, nil
}

func (d *txDB) Close() error { return nil }

func (d *txDB) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.books)
}

func (d *txDB) hasISBN(isbn string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.books {
		if b.ISBN == isbn {
			return true
		}
	}
	return false
}

type fakeTx struct {
	db     *txDB
	staged []core.Book
}

func (t *fakeTx) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	return nil, errors.New("not supported")
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	if !strings.HasPrefix(query, "INSERT INTO book") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	book := core.Book{
		Title:  args[0].(string),
		Author: args[1].(string),
		ISBN:   args[2].(string),
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	for _, b := range t.db.books {
		if b.ISBN == book.ISBN {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateISBN, book.ISBN)
		}
	}
	for _, b := range t.staged {
		if b.ISBN == book.ISBN {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateISBN, book.ISBN)
		}
	}
	t.staged = append(t.staged, book)
	return txResult{}, nil
}

func (t *fakeTx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.books = append(t.db.books, t.staged...)
	t.staged = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	t.staged = nil
	return nil
}

type txResult struct{}

func (txResult) LastInsertId() (int64, error) { return 0, nil }
func (txResult) RowsAffected() (int64, error) { return 1, nil }

// journalKV is a minimal in-memory core.KVStore for the batch journal.
type journalKV struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newJournalKV() *journalKV {
	return &journalKV{items: make(map[string][]byte)}
}

func (f *journalKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.items[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return value, nil
}

func (f *journalKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = value
	return nil
}

func (f *journalKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
	return nil
}

func (f *journalKV) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[key]
	return ok, nil
}

func (f *journalKV) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range items {
		f.items[k] = v
	}
	return nil
}

func (f *journalKV) Close() error { return nil }

func enqueueBooks(t *testing.T, queue core.IngestQueue, isbns ...string) {
	t.Helper()
	for _, isbn := range isbns {
		job := &core.InsertJob{
			Book: core.Book{
				Title:  "The Last Wish",
				Author: "Andrzej Sapkowski",
				ISBN:   isbn,
			},
			Source: "books.txt",
		}
		if err := queue.Enqueue(context.Background(), job); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDrainerMovesJobsToDatabase(t *testing.T) {
	queue := ingest.NewMemoryQueue(100)
	defer queue.Close()
	db := &txDB{}
	journal := ingest.NewJournal(newJournalKV(), "", time.Hour)

	enqueueBooks(t, queue, "isbn-0", "isbn-1", "isbn-2", "isbn-3", "isbn-4")

	d := NewDrainer(queue, db, journal, DrainerConfig{
		DrainRate:    1000,
		BatchSize:    10,
		PollInterval: 10 * time.Millisecond,
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	waitFor(t, func() bool { return db.count() == 5 }, "jobs never reached the database")
	if queue.Size() != 0 {
		t.Errorf("expected drained queue, size %d", queue.Size())
	}
}

func TestDrainerSkipsDuplicates(t *testing.T) {
	queue := ingest.NewMemoryQueue(100)
	defer queue.Close()
	db := &txDB{books: []core.Book{{Title: "The Last Wish", Author: "Andrzej Sapkowski", ISBN: "existing"}}}

	enqueueBooks(t, queue, "existing", "fresh")

	d := NewDrainer(queue, db, nil, DrainerConfig{
		DrainRate:    1000,
		BatchSize:    10,
		PollInterval: 10 * time.Millisecond,
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	waitFor(t, func() bool { return db.hasISBN("fresh") }, "fresh book never inserted")
	if db.count() != 2 {
		t.Errorf("expected 2 books after duplicate skip, got %d", db.count())
	}
}

func TestDrainerLifecycle(t *testing.T) {
	queue := ingest.NewMemoryQueue(10)
	defer queue.Close()
	d := NewDrainer(queue, &txDB{}, nil, DefaultDrainerConfig())

	if d.IsRunning() {
		t.Error("drainer must not run before Start")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !d.IsRunning() {
		t.Error("drainer should run after Start")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Errorf("second Start should be a no-op, got %v", err)
	}

	if err := d.Stop(); err != nil {
		t.Fatal(err)
	}
	if d.IsRunning() {
		t.Error("drainer must not run after Stop")
	}
	if err := d.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hallimar/bookvault/internal/core"
)

// fakeDB is an in-memory core.Database that understands the queries
// the schema package generates. It enforces the unique isbn index the
// way MySQL would, surfaced through the catalog's sentinel errors.
type fakeDB struct {
	mu      sync.Mutex
	books   []core.Book
	queries int
}

func (f *fakeDB) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++

	column := extractWhereColumn(query)
	value := args[0].(string)

	var matches []core.Book
	for _, b := range f.books {
		if field, ok := b.Field(column); ok && field == value {
			matches = append(matches, b)
		}
	}
	return &fakeRows{books: matches}, nil
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasPrefix(query, "INSERT INTO book"):
		book := core.Book{
			Title:  args[0].(string),
			Author: args[1].(string),
			ISBN:   args[2].(string),
		}
		for _, b := range f.books {
			if b.ISBN == book.ISBN {
				return nil, fmt.Errorf("%w: %s", core.ErrDuplicateISBN, book.ISBN)
			}
		}
		f.books = append(f.books, book)
		return fakeResult{affected: 1}, nil

	case strings.HasPrefix(query, "UPDATE book SET"):
		columns := extractSetColumns(query)
		isbn := args[len(args)-1].(string)

		idx := -1
		for i, b := range f.books {
			if b.ISBN == isbn {
				idx = i
				break
			}
		}
		if idx == -1 {
			return fakeResult{affected: 0}, nil
		}

		updated := f.books[idx]
		for i, col := range columns {
			value := args[i].(string)
			switch col {
			case core.ColumnTitle:
				updated.Title = value
			case core.ColumnAuthor:
				updated.Author = value
			case core.ColumnISBN:
				for j, b := range f.books {
					if j != idx && b.ISBN == value {
						return nil, fmt.Errorf("%w: %s", core.ErrDuplicateISBN, value)
					}
				}
				updated.ISBN = value
			}
		}
		f.books[idx] = updated
		return fakeResult{affected: 1}, nil

	case strings.HasPrefix(query, "DELETE FROM book"):
		isbn := args[0].(string)
		for i, b := range f.books {
			if b.ISBN == isbn {
				f.books = append(f.books[:i], f.books[i+1:]...)
				return fakeResult{affected: 1}, nil
			}
		}
		return fakeResult{affected: 0}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func (f *fakeDB) BeginTx(ctx context.Context) (core.Transaction, error) {
	return nil, errors.New("transactions not supported")
}

func (f *fakeDB) Close() error { return nil }

func (f *fakeDB) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

// extractWhereColumn pulls the column name out of "... WHERE col = ?".
func extractWhereColumn(query string) string {
	i := strings.Index(query, "WHERE ")
	rest := query[i+len("WHERE "):]
	return rest[:strings.Index(rest, " = ?")]
}

// extractSetColumns pulls the column names out of
// "UPDATE book SET a = ?, b = ? WHERE ...".
func extractSetColumns(query string) []string {
	set := query[len("UPDATE book SET "):strings.Index(query, " WHERE")]
	parts := strings.Split(set, ", ")
	columns := make([]string, len(parts))
	for i, p := range parts {
		columns[i] = strings.TrimSuffix(p, " = ?")
	}
	return columns
}

type fakeRows struct {
	books []core.Book
	pos   int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.books) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	b := r.books[r.pos-1]
	*dest[0].(*string) = b.Title
	*dest[1].(*string) = b.Author
	*dest[2].(*string) = b.ISBN
	return nil
}

func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error   { return nil }

type fakeResult struct {
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

// fakeKV is an in-memory core.KVStore.
type fakeKV struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{items: make(map[string][]byte)}
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.items[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return value, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = value
	return nil
}

func (f *fakeKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
	return nil
}

func (f *fakeKV) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[key]
	return ok, nil
}

func (f *fakeKV) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range items {
		f.items[k] = v
	}
	return nil
}

func (f *fakeKV) Close() error { return nil }

func (f *fakeKV) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[key]
	return ok
}

var witcher = core.Book{
	Title:  "The Last Wish",
	Author: "Andrzej Sapkowski",
	ISBN:   "978-0316029186",
}

func newTestStore() (*Store, *fakeDB, *fakeKV) {
	db := &fakeDB{}
	kv := newFakeKV()
	return NewStore(db, NewCacheHandler(kv, "", time.Minute)), db, kv
}

// waitForKey polls until the key appears in the cache; async populate
// runs in its own goroutine.
func waitForKey(t *testing.T, kv *fakeKV, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if kv.has(key) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("key %s never appeared in cache", key)
}

func TestAddAndGet(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	if err := store.Add(ctx, witcher); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.GetByISBN(ctx, witcher.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if got != witcher {
		t.Errorf("expected %+v, got %+v", witcher, got)
	}
}

func TestAddRejectsIncompleteBook(t *testing.T) {
	store, db, _ := newTestStore()

	err := store.Add(context.Background(), core.Book{Title: "The Last Wish", ISBN: "978-0316029186"})
	if !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if db.queryCount() != 0 {
		t.Error("incomplete book must be rejected before reaching the database")
	}
}

func TestAddRejectsDuplicateISBN(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	if err := store.Add(ctx, witcher); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	dup := core.Book{Title: "Sword of Destiny", Author: "Andrzej Sapkowski", ISBN: witcher.ISBN}
	if err := store.Add(ctx, dup); !errors.Is(err, core.ErrDuplicateISBN) {
		t.Fatalf("expected ErrDuplicateISBN, got %v", err)
	}
}

func TestDuplicateTitleAuthorAllowed(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	first := witcher
	second := core.Book{Title: witcher.Title, Author: witcher.Author, ISBN: "978-1473231061"}

	if err := store.Add(ctx, first); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if err := store.Add(ctx, second); err != nil {
		t.Fatalf("second Add with same title/author failed: %v", err)
	}

	books, err := store.ListByAuthor(ctx, witcher.Author)
	if err != nil {
		t.Fatalf("ListByAuthor failed: %v", err)
	}
	if len(books) != 2 {
		t.Errorf("expected 2 books, got %d", len(books))
	}
}

func TestGetByISBNNotFound(t *testing.T) {
	store, _, _ := newTestStore()

	_, err := store.GetByISBN(context.Background(), "no-such-isbn")
	if !errors.Is(err, core.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestGetByISBNServedFromCache(t *testing.T) {
	db := &fakeDB{books: []core.Book{witcher}}
	kv := newFakeKV()
	cache := NewCacheHandler(kv, "", time.Minute)
	store := NewStore(db, cache)
	ctx := context.Background()

	if err := cache.Put(ctx, witcher); err != nil {
		t.Fatalf("cache Put failed: %v", err)
	}

	got, err := store.GetByISBN(ctx, witcher.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if got != witcher {
		t.Errorf("expected %+v, got %+v", witcher, got)
	}
	if db.queryCount() != 0 {
		t.Errorf("expected cache hit to skip the database, saw %d queries", db.queryCount())
	}
}

func TestGetByISBNFallbackPopulatesCache(t *testing.T) {
	db := &fakeDB{books: []core.Book{witcher}}
	kv := newFakeKV()
	store := NewStore(db, NewCacheHandler(kv, "", time.Minute))

	if _, err := store.GetByISBN(context.Background(), witcher.ISBN); err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	waitForKey(t, kv, "book:"+witcher.ISBN)
}

func TestFindByField(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	if err := store.Add(ctx, witcher); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.FindByField(ctx, core.ColumnTitle, witcher.Title)
	if err != nil {
		t.Fatalf("FindByField failed: %v", err)
	}
	if got.ISBN != witcher.ISBN {
		t.Errorf("expected isbn %s, got %s", witcher.ISBN, got.ISBN)
	}

	if _, err := store.FindByField(ctx, "publisher", "x"); !errors.Is(err, core.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	store, _, kv := newTestStore()
	ctx := context.Background()

	if err := store.Add(ctx, witcher); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	waitForKey(t, kv, "book:"+witcher.ISBN)

	if err := store.Update(ctx, witcher.ISBN, map[string]string{"title": "The Witcher: The Last Wish"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if kv.has("book:" + witcher.ISBN) {
		t.Error("expected update to invalidate the cached entry")
	}

	got, err := store.GetByISBN(ctx, witcher.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN after update failed: %v", err)
	}
	if got.Title != "The Witcher: The Last Wish" {
		t.Errorf("unexpected title after update: %s", got.Title)
	}
}

func TestUpdateNotFound(t *testing.T) {
	store, _, _ := newTestStore()

	err := store.Update(context.Background(), "no-such-isbn", map[string]string{"title": "x"})
	if !errors.Is(err, core.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestUpdateToCollidingISBN(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	other := core.Book{Title: "Blood of Elves", Author: "Andrzej Sapkowski", ISBN: "978-0316029193"}
	if err := store.Add(ctx, witcher); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(ctx, other); err != nil {
		t.Fatal(err)
	}

	err := store.Update(ctx, other.ISBN, map[string]string{"isbn": witcher.ISBN})
	if !errors.Is(err, core.ErrDuplicateISBN) {
		t.Fatalf("expected ErrDuplicateISBN, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	if err := store.Add(ctx, witcher); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ctx, witcher.ISBN); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := store.GetByISBN(ctx, witcher.ISBN); !errors.Is(err, core.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound after remove, got %v", err)
	}

	if err := store.Remove(ctx, witcher.ISBN); !errors.Is(err, core.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound for second remove, got %v", err)
	}
}

// slowKV wraps fakeKV with a read latency and a counter so tests can
// observe how many reads actually reach the backend.
type slowKV struct {
	*fakeKV
	getMu sync.Mutex
	gets  int
	delay time.Duration
}

func (s *slowKV) Get(ctx context.Context, key string) ([]byte, error) {
	s.getMu.Lock()
	s.gets++
	s.getMu.Unlock()
	time.Sleep(s.delay)
	return s.fakeKV.Get(ctx, key)
}

func (s *slowKV) getCount() int {
	s.getMu.Lock()
	defer s.getMu.Unlock()
	return s.gets
}

func TestConcurrentGetsShareBackendRead(t *testing.T) {
	kv := &slowKV{fakeKV: newFakeKV(), delay: 50 * time.Millisecond}
	cache := NewCacheHandler(kv, "", time.Minute)
	ctx := context.Background()

	if err := cache.Put(ctx, witcher); err != nil {
		t.Fatalf("cache Put failed: %v", err)
	}

	const readers = 10
	books := make([]core.Book, readers)
	errs := make([]error, readers)

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			books[i], errs[i] = cache.Get(ctx, witcher.ISBN)
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		if errs[i] != nil {
			t.Fatalf("reader %d failed: %v", i, errs[i])
		}
		if books[i] != witcher {
			t.Errorf("reader %d got %+v", i, books[i])
		}
	}

	// Concurrent readers of one key must coalesce onto a shared
	// backend read instead of each hitting the store.
	if got := kv.getCount(); got >= readers {
		t.Errorf("expected fewer than %d backend reads for %d concurrent gets, got %d", readers, readers, got)
	}
}

func TestConcurrentGetsShareBackendMiss(t *testing.T) {
	kv := &slowKV{fakeKV: newFakeKV(), delay: 50 * time.Millisecond}
	cache := NewCacheHandler(kv, "", time.Minute)
	ctx := context.Background()

	const readers = 10
	errs := make([]error, readers)

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.Get(ctx, witcher.ISBN)
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		if errs[i] == nil {
			t.Fatalf("reader %d expected a miss error", i)
		}
	}
	if got := kv.getCount(); got >= readers {
		t.Errorf("expected fewer than %d backend reads for %d concurrent misses, got %d", readers, readers, got)
	}
}

func TestKeyBuilder(t *testing.T) {
	if got := NewKeyBuilder("").BuildKey("123"); got != "book:123" {
		t.Errorf("expected book:123, got %s", got)
	}
	if got := NewKeyBuilder("prod").BuildKey("123"); got != "prod:book:123" {
		t.Errorf("expected prod:book:123, got %s", got)
	}
}

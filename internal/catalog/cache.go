package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/schema"
)

// KeyBuilder builds cache keys in the format
// {namespace}:book:{isbn}, or book:{isbn} with no namespace.
type KeyBuilder struct {
	namespace string
}

// NewKeyBuilder creates a key builder with an optional namespace.
func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

// BuildKey constructs the cache key for a book ISBN.
func (kb *KeyBuilder) BuildKey(isbn string) string {
	if kb.namespace != "" {
		return fmt.Sprintf("%s:%s:%s", kb.namespace, core.TableName, isbn)
	}
	return fmt.Sprintf("%s:%s", core.TableName, isbn)
}

// CacheHandler is the read cache in front of the catalog. Values are
// JSON-encoded books keyed by ISBN. Concurrent reads of the same ISBN
// are coordinated so only one goroutine touches the backend.
type CacheHandler struct {
	kvStore           core.KVStore
	keyBuilder        *KeyBuilder
	ttl               time.Duration
	stampedePreventer *stampedePreventer
}

// NewCacheHandler creates a cache handler over a KV backend.
func NewCacheHandler(kvStore core.KVStore, namespace string, ttl time.Duration) *CacheHandler {
	return &CacheHandler{
		kvStore:           kvStore,
		keyBuilder:        NewKeyBuilder(namespace),
		ttl:               ttl,
		stampedePreventer: newStampedePreventer(),
	}
}

// Get retrieves a cached book by ISBN. A miss or decode failure is
// returned as an error; the caller falls back to the database.
func (ch *CacheHandler) Get(ctx context.Context, isbn string) (core.Book, error) {
	cacheKey := ch.keyBuilder.BuildKey(isbn)

	if ch.stampedePreventer.isInFlight(cacheKey) {
		return ch.stampedePreventer.waitForResult(ctx, cacheKey)
	}

	ch.stampedePreventer.markInFlight(cacheKey)
	defer ch.stampedePreventer.markComplete(cacheKey)

	value, err := ch.kvStore.Get(ctx, cacheKey)
	if err != nil {
		err = fmt.Errorf("cache miss: %w", err)
		ch.stampedePreventer.setError(cacheKey, err)
		return core.Book{}, err
	}

	book, err := schema.DecodeCacheValue(value)
	if err != nil {
		err = fmt.Errorf("failed to decode cache value: %w", err)
		ch.stampedePreventer.setError(cacheKey, err)
		return core.Book{}, err
	}

	ch.stampedePreventer.setResult(cacheKey, book)
	return book, nil
}

// Put stores a book in the cache under its ISBN.
func (ch *CacheHandler) Put(ctx context.Context, book core.Book) error {
	value, err := schema.EncodeCacheValue(book)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	cacheKey := ch.keyBuilder.BuildKey(book.ISBN)
	if err := ch.kvStore.Set(ctx, cacheKey, value, ch.ttl); err != nil {
		return fmt.Errorf("failed to populate cache: %w", err)
	}
	return nil
}

// Invalidate removes a book from the cache.
func (ch *CacheHandler) Invalidate(ctx context.Context, isbn string) error {
	return ch.kvStore.Delete(ctx, ch.keyBuilder.BuildKey(isbn))
}

// stampedePreventer coordinates concurrent reads for the same key.
// Only one request hits the backend; the rest wait for its result.
type stampedePreventer struct {
	mu      sync.RWMutex
	pending map[string]*pendingRead
}

type pendingRead struct {
	mu       sync.Mutex
	result   core.Book
	err      error
	resolved bool
	done     chan struct{}
	waiters  int
	deadline time.Time
}

func newStampedePreventer() *stampedePreventer {
	return &stampedePreventer{
		pending: make(map[string]*pendingRead),
	}
}

func (sp *stampedePreventer) isInFlight(key string) bool {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	p, exists := sp.pending[key]
	if !exists {
		return false
	}
	return !time.Now().After(p.deadline)
}

func (sp *stampedePreventer) markInFlight(key string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	p, exists := sp.pending[key]
	if !exists {
		p = &pendingRead{
			done:     make(chan struct{}),
			deadline: time.Now().Add(30 * time.Second),
		}
		sp.pending[key] = p
	}
	p.waiters++
}

func (sp *stampedePreventer) markComplete(key string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	p, exists := sp.pending[key]
	if !exists {
		return
	}

	p.waiters--
	if p.waiters <= 0 {
		// Delay cleanup so late waiters still see the result.
		go func() {
			time.Sleep(100 * time.Millisecond)
			sp.mu.Lock()
			defer sp.mu.Unlock()
			if p, exists := sp.pending[key]; exists && p.waiters <= 0 {
				delete(sp.pending, key)
			}
		}()
	}
}

func (sp *stampedePreventer) setResult(key string, result core.Book) {
	sp.mu.RLock()
	p, exists := sp.pending[key]
	sp.mu.RUnlock()

	if !exists {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.resolved {
		p.result = result
		p.resolved = true
		close(p.done)
	}
}

func (sp *stampedePreventer) setError(key string, err error) {
	sp.mu.RLock()
	p, exists := sp.pending[key]
	sp.mu.RUnlock()

	if !exists {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.resolved {
		p.err = err
		p.resolved = true
		close(p.done)
	}
}

func (sp *stampedePreventer) waitForResult(ctx context.Context, key string) (core.Book, error) {
	sp.mu.RLock()
	p, exists := sp.pending[key]
	sp.mu.RUnlock()

	if !exists {
		return core.Book{}, fmt.Errorf("no pending read for key: %s", key)
	}

	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.err != nil {
			return core.Book{}, p.err
		}
		return p.result, nil
	case <-ctx.Done():
		return core.Book{}, ctx.Err()
	}
}

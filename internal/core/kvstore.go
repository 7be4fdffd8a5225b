package core

import (
	"context"
	"time"
)

// KVStore defines the interface for the cache backend.
// Implementations exist for Redis and DynamoDB.
type KVStore interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss-compatible errors when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair with an optional TTL.
	// A ttl of 0 means the key does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists checks whether a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// BatchSet stores multiple key-value pairs with a shared TTL.
	BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error

	// Close closes the connection to the backend.
	Close() error
}

// ListStore is implemented by KV backends that support FIFO list
// operations. The redis ingest queue requires it.
type ListStore interface {
	// ListPush appends a value to the end of a list.
	ListPush(ctx context.Context, key string, value []byte) error

	// ListPop removes and returns the first element of a list.
	// Returns (nil, nil) when the list is empty.
	ListPop(ctx context.Context, key string) ([]byte, error)

	// ListLength returns the length of a list.
	ListLength(ctx context.Context, key string) (int64, error)
}

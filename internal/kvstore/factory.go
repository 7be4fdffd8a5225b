// Package kvstore provides the cache backends (Redis, DynamoDB) behind
// a factory registry. Backends register themselves from init so the
// client can construct a store from configuration alone.
package kvstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hallimar/bookvault/internal/core"
)

// ErrCacheMiss is returned by Get when a key does not exist or has
// expired. All backends normalize their not-found conditions to it.
var ErrCacheMiss = errors.New("cache miss")

// Factory is the strategy interface for creating cache backends.
type Factory interface {
	// Create creates a new store instance from the provided config.
	Create(config Config) (core.KVStore, error)

	// Type returns the backend identifier ("redis", "dynamodb").
	Type() string

	// Validate validates backend-specific configuration.
	Validate(config Config) error
}

// Config holds the settings needed to create a cache backend.
type Config struct {
	Type         string
	Endpoints    []string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// DynamoDB-specific fields.
	Region          string
	TableName       string
	Endpoint        string // optional, for LocalStack
	AccessKeyID     string // optional, can use IAM role instead
	SecretAccessKey string // optional, can use IAM role instead
}

var (
	factoryRegistry = make(map[string]Factory)
	registryMutex   sync.RWMutex
)

// RegisterFactory registers a backend factory. Called from each
// backend's init function. Panics on nil, empty type, or duplicate
// registration.
func RegisterFactory(factory Factory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}

	factoryRegistry[factory.Type()] = factory
}

// Create constructs a cache backend using the factory registered for
// config.Type.
func Create(config Config) (core.KVStore, error) {
	if config.Type == "" {
		return nil, fmt.Errorf("cache type is required")
	}

	registryMutex.RLock()
	factory, exists := factoryRegistry[config.Type]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}

	if err := factory.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", config.Type, err)
	}

	return factory.Create(config)
}

// RegisteredTypes returns the identifiers of all registered backends.
func RegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	return types
}

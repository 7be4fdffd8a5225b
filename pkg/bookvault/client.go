// Package bookvault is the public API of the book catalog store. It
// wires a MySQL-backed catalog with a read cache (Redis or DynamoDB)
// and a rate-limited batch import pipeline.
//
// Typical usage:
//
//	config := bookvault.DefaultConfig()
//	config.Database.Database = "bookvault"
//	config.Database.Username = "catalog"
//
//	client, _ := bookvault.NewClient(config)
//	defer client.Close()
//
//	catalog := client.Catalog()
//	catalog.Add(ctx, bookvault.Book{Title: "The Last Wish", Author: "Andrzej Sapkowski", ISBN: "978-0316029186"})
//	book, _ := catalog.GetByISBN(ctx, "978-0316029186")
//
//	client.Start(ctx) // background drainer for bulk imports
//	client.Importer().ImportFile(ctx, "books.txt")
//	defer client.Stop()
package bookvault

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hallimar/bookvault/internal/client"
)

// Client is the entry point for interacting with the catalog.
type Client interface {
	// Catalog returns the typed book store.
	Catalog() *Catalog

	// Importer returns the batch importer feeding the ingest queue.
	Importer() *Importer

	// Start launches the background drainer that moves queued imports
	// into the database. Non-blocking.
	Start(ctx context.Context) error

	// Stop gracefully stops the drainer, waiting for the in-flight
	// batch.
	Stop() error

	// IsRunning reports whether the drainer is active.
	IsRunning() bool

	// QueueSize returns the current depth of the ingest queue.
	QueueSize() int

	// Close stops the drainer and releases all connections.
	Close() error
}

// lifecycle states guarding client transitions.
type state int

const (
	stateReady state = iota
	stateRunning
	stateClosed
)

// configProvider hands the configuration to the internal wiring as
// YAML, avoiding an import cycle.
type configProvider struct {
	config *Config
}

func (cp *configProvider) GetYAML() ([]byte, error) {
	return yaml.Marshal(cp.config)
}

type clientImpl struct {
	mu       sync.Mutex
	impl     *client.Impl
	catalog  *Catalog
	importer *Importer
	drainer  *Drainer
	state    state
}

// NewClient creates a client from the configuration. It connects to
// the database and cache, applies the schema, and prepares the import
// pipeline. The drainer is not started until Start is called.
func NewClient(config *Config) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	impl, err := client.NewImpl(&configProvider{config: config})
	if err != nil {
		return nil, err
	}

	cfg := impl.Config()
	drainer := NewDrainer(impl.Queue(), impl.Database(), impl.Journal(), DrainerConfig{
		DrainRate:    cfg.Import.DrainRate,
		BatchSize:    cfg.Import.BatchSize,
		PollInterval: 100 * time.Millisecond,
		MaxRetries:   DefaultDrainerConfig().MaxRetries,
	})

	return &clientImpl{
		impl:     impl,
		catalog:  &Catalog{store: impl.Catalog()},
		importer: NewImporter(impl.Queue(), cfg.Import.Separator),
		drainer:  drainer,
		state:    stateReady,
	}, nil
}

func (c *clientImpl) Catalog() *Catalog {
	return c.catalog
}

func (c *clientImpl) Importer() *Importer {
	return c.importer
}

func (c *clientImpl) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateClosed:
		return ErrClosed
	case stateRunning:
		return nil
	}

	if err := c.drainer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start drainer: %w", err)
	}
	c.state = stateRunning
	return nil
}

func (c *clientImpl) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateRunning {
		return nil
	}

	if err := c.drainer.Stop(); err != nil {
		return fmt.Errorf("failed to stop drainer: %w", err)
	}
	c.state = stateReady
	return nil
}

func (c *clientImpl) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateRunning
}

func (c *clientImpl) QueueSize() int {
	return c.drainer.QueueSize()
}

func (c *clientImpl) Close() error {
	if err := c.Stop(); err != nil {
		log.Printf("[CLIENT] error stopping drainer during close: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed
	return c.impl.Close()
}

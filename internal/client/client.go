// Package client wires the internal components (database, cache,
// ingest queue, catalog) from a loaded configuration. The public
// pkg/bookvault facade delegates here to avoid import cycles.
package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/hallimar/bookvault/internal/catalog"
	"github.com/hallimar/bookvault/internal/config"
	"github.com/hallimar/bookvault/internal/core"
	"github.com/hallimar/bookvault/internal/database"
	"github.com/hallimar/bookvault/internal/ingest"
	"github.com/hallimar/bookvault/internal/kvstore"
)

// ConfigProvider supplies the configuration as YAML. The public
// package implements it so this package never imports it.
type ConfigProvider interface {
	GetYAML() ([]byte, error)
}

// Impl owns the wired components and their shutdown order.
type Impl struct {
	mu        sync.Mutex
	configMgr *config.Manager
	kvStore   core.KVStore
	database  core.Database
	queue     core.IngestQueue
	journal   *ingest.Journal
	catalog   *catalog.Store
	closed    bool
}

// NewImpl loads the configuration, connects to the database and cache,
// applies the schema, and builds the catalog and ingest queue.
func NewImpl(configProvider ConfigProvider) (*Impl, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("config provider cannot be nil")
	}

	configMgr := config.NewManager()
	yamlData, err := configProvider.GetYAML()
	if err != nil {
		return nil, fmt.Errorf("failed to get config YAML: %w", err)
	}
	if err := configMgr.LoadFromYAML(yamlData); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	impl := &Impl{configMgr: configMgr}
	if err := impl.initialize(); err != nil {
		impl.Close()
		return nil, err
	}
	return impl, nil
}

func (c *Impl) initialize() error {
	cfg := c.configMgr.Get()

	kvStore, err := kvstore.Create(kvstore.Config{
		Type:            cfg.Cache.Type,
		Endpoints:       cfg.Cache.Redis.Endpoints,
		Password:        cfg.Cache.Redis.Password,
		DB:              cfg.Cache.Redis.DB,
		PoolSize:        cfg.Cache.Redis.PoolSize,
		MinIdleConns:    cfg.Cache.Redis.MinIdleConns,
		DialTimeout:     cfg.Cache.DialTimeout,
		ReadTimeout:     cfg.Cache.ReadTimeout,
		WriteTimeout:    cfg.Cache.WriteTimeout,
		Region:          cfg.Cache.DynamoDB.Region,
		TableName:       cfg.Cache.DynamoDB.TableName,
		Endpoint:        cfg.Cache.DynamoDB.Endpoint,
		AccessKeyID:     cfg.Cache.DynamoDB.AccessKeyID,
		SecretAccessKey: cfg.Cache.DynamoDB.SecretAccessKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	c.kvStore = kvStore

	db, err := database.NewMySQLDatabase(database.Config{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		Database:          cfg.Database.Database,
		Username:          cfg.Database.Username,
		Password:          cfg.Database.Password,
		MaxOpenConns:      cfg.Database.MaxOpenConns,
		MaxIdleConns:      cfg.Database.MaxIdleConns,
		ConnMaxLifetime:   cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:   cfg.Database.ConnMaxIdleTime,
		ConnectionTimeout: cfg.Database.ConnectionTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	c.database = db

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	cache := catalog.NewCacheHandler(kvStore, cfg.Cache.Namespace, cfg.Cache.TTL)
	c.catalog = catalog.NewStore(db, cache)
	c.journal = ingest.NewJournal(kvStore, "", cfg.Import.JournalTTL)

	queue, err := c.createQueue()
	if err != nil {
		return err
	}
	c.queue = queue

	log.Printf("[CLIENT] initialized: cache=%s queue=%s database=%s:%d/%s",
		cfg.Cache.Type, cfg.Import.QueueType, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	return nil
}

func (c *Impl) createQueue() (core.IngestQueue, error) {
	cfg := c.configMgr.Get()

	switch cfg.Import.QueueType {
	case "redis":
		queue, err := ingest.NewRedisQueue(c.kvStore, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create redis queue: %w", err)
		}
		return queue, nil
	case "kafka":
		queue, err := ingest.NewKafkaQueue(ingest.KafkaQueueConfig{
			Brokers:         cfg.Import.Kafka.Brokers,
			Topic:           cfg.Import.Kafka.Topic,
			GroupID:         cfg.Import.Kafka.GroupID,
			BatchSize:       cfg.Import.Kafka.BatchSize,
			BatchTimeout:    cfg.Import.Kafka.BatchTimeout,
			WriteTimeout:    cfg.Import.Kafka.WriteTimeout,
			ReadTimeout:     cfg.Import.Kafka.ReadTimeout,
			RequiredAcks:    cfg.Import.Kafka.RequiredAcks,
			MaxMessageBytes: cfg.Import.Kafka.MaxMessageBytes,
			MinBytes:        cfg.Import.Kafka.MinBytes,
			MaxBytes:        cfg.Import.Kafka.MaxBytes,
			MaxWait:         cfg.Import.Kafka.MaxWait,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka queue: %w", err)
		}
		return queue, nil
	default:
		return ingest.NewMemoryQueue(cfg.Import.QueueBufferSize), nil
	}
}

// Config returns the loaded configuration.
func (c *Impl) Config() *config.Internal {
	return c.configMgr.Get()
}

// Catalog returns the wired catalog store.
func (c *Impl) Catalog() *catalog.Store {
	return c.catalog
}

// Queue returns the ingest queue.
func (c *Impl) Queue() core.IngestQueue {
	return c.queue
}

// Journal returns the batch journal.
func (c *Impl) Journal() *ingest.Journal {
	return c.journal
}

// Database returns the database handle.
func (c *Impl) Database() core.Database {
	return c.database
}

// Close releases the queue, cache, and database, in that order.
func (c *Impl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.queue != nil {
		if err := c.queue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close queue: %w", err))
		}
	}
	if c.kvStore != nil {
		if err := c.kvStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

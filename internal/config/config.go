// Package config loads and validates the client configuration from
// YAML, JSON, or environment variables. Cache backends contribute
// their own validation through the ConfigValidator registry.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigValidator is the strategy interface for validating the cache
// section of the configuration. Each backend registers its own
// validator from init.
type ConfigValidator interface {
	// Validate checks the cache configuration for this backend type.
	Validate(config *Internal) error

	// Type returns the backend identifier ("redis", "dynamodb").
	Type() string
}

var (
	validatorRegistry = make(map[string]ConfigValidator)
	validatorMutex    sync.RWMutex
)

// RegisterValidator registers a backend config validator. Panics on
// nil, empty type, or duplicate registration.
func RegisterValidator(validator ConfigValidator) {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if validator.Type() == "" {
		panic("validator type cannot be empty")
	}

	validatorMutex.Lock()
	defer validatorMutex.Unlock()

	if _, exists := validatorRegistry[validator.Type()]; exists {
		panic(fmt.Sprintf("validator for type %q is already registered", validator.Type()))
	}

	validatorRegistry[validator.Type()] = validator
}

// GetValidator retrieves a validator by backend type.
func GetValidator(validatorType string) (ConfigValidator, bool) {
	validatorMutex.RLock()
	defer validatorMutex.RUnlock()

	validator, exists := validatorRegistry[validatorType]
	return validator, exists
}

// Manager handles loading configuration from files and the
// environment.
type Manager struct {
	config *Internal
}

// NewManager creates a configuration manager holding defaults.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Default returns a configuration with sensible defaults: a local
// redis cache, a local MySQL, and the in-memory ingest queue.
func Default() *Internal {
	return &Internal{
		Cache: InternalCacheConfig{
			Type: "redis",
			TTL:  1 * time.Hour,
			Redis: InternalRedisConfig{
				Endpoints:    []string{"localhost:6379"},
				DB:           0,
				PoolSize:     10,
				MinIdleConns: 5,
			},
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: InternalDatabaseConfig{
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Import: InternalImportConfig{
			BatchSize:       100,
			DrainRate:       50,
			Separator:       ";",
			QueueType:       "memory",
			QueueBufferSize: 10000,
			JournalTTL:      24 * time.Hour,
			Kafka: InternalKafkaConfig{
				Brokers:         []string{"localhost:9092"},
				Topic:           "bookvault-import",
				GroupID:         "bookvault-import",
				BatchSize:       100,
				BatchTimeout:    10 * time.Millisecond,
				WriteTimeout:    10 * time.Second,
				ReadTimeout:     10 * time.Second,
				RequiredAcks:    -1,
				MaxMessageBytes: 1000000,
				MinBytes:        1,
				MaxBytes:        10 * 1024 * 1024,
				MaxWait:         100 * time.Millisecond,
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, chosen by
// extension.
func (m *Manager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return m.LoadFromYAML(data)
	case ".json":
		return m.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data layered over the
// defaults.
func (m *Manager) LoadFromYAML(data []byte) error {
	config := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := Validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.config = config
	return nil
}

// LoadFromJSON loads configuration from JSON data layered over the
// defaults.
func (m *Manager) LoadFromJSON(data []byte) error {
	config := Default()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	if err := Validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.config = config
	return nil
}

// LoadFromEnv loads configuration from BOOKVAULT_* environment
// variables layered over the defaults. Examples:
//
//	BOOKVAULT_CACHE_TYPE=redis
//	BOOKVAULT_CACHE_ENDPOINTS=localhost:6379,localhost:6380
//	BOOKVAULT_DATABASE_HOST=localhost
//	BOOKVAULT_DATABASE_PORT=3306
//	BOOKVAULT_IMPORT_BATCH_SIZE=100
func (m *Manager) LoadFromEnv() error {
	config := Default()

	if val := os.Getenv("BOOKVAULT_CACHE_TYPE"); val != "" {
		config.Cache.Type = val
	}
	if val := os.Getenv("BOOKVAULT_CACHE_NAMESPACE"); val != "" {
		config.Cache.Namespace = val
	}
	if val := os.Getenv("BOOKVAULT_CACHE_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			config.Cache.TTL = ttl
		}
	}
	if val := os.Getenv("BOOKVAULT_CACHE_ENDPOINTS"); val != "" {
		config.Cache.Redis.Endpoints = strings.Split(val, ",")
	}
	if val := os.Getenv("BOOKVAULT_CACHE_PASSWORD"); val != "" {
		config.Cache.Redis.Password = val
	}
	if val := os.Getenv("BOOKVAULT_CACHE_DB"); val != "" {
		var db int
		if _, err := fmt.Sscanf(val, "%d", &db); err == nil {
			config.Cache.Redis.DB = db
		}
	}
	if val := os.Getenv("BOOKVAULT_CACHE_POOL_SIZE"); val != "" {
		var size int
		if _, err := fmt.Sscanf(val, "%d", &size); err == nil {
			config.Cache.Redis.PoolSize = size
		}
	}
	if val := os.Getenv("BOOKVAULT_CACHE_DYNAMODB_REGION"); val != "" {
		config.Cache.DynamoDB.Region = val
	}
	if val := os.Getenv("BOOKVAULT_CACHE_DYNAMODB_TABLE"); val != "" {
		config.Cache.DynamoDB.TableName = val
	}

	if val := os.Getenv("BOOKVAULT_DATABASE_HOST"); val != "" {
		config.Database.Host = val
	}
	if val := os.Getenv("BOOKVAULT_DATABASE_PORT"); val != "" {
		var port int
		if _, err := fmt.Sscanf(val, "%d", &port); err == nil {
			config.Database.Port = port
		}
	}
	if val := os.Getenv("BOOKVAULT_DATABASE_DATABASE"); val != "" {
		config.Database.Database = val
	}
	if val := os.Getenv("BOOKVAULT_DATABASE_USERNAME"); val != "" {
		config.Database.Username = val
	}
	if val := os.Getenv("BOOKVAULT_DATABASE_PASSWORD"); val != "" {
		config.Database.Password = val
	}
	if val := os.Getenv("BOOKVAULT_DATABASE_MAX_OPEN_CONNS"); val != "" {
		var maxOpen int
		if _, err := fmt.Sscanf(val, "%d", &maxOpen); err == nil {
			config.Database.MaxOpenConns = maxOpen
		}
	}
	if val := os.Getenv("BOOKVAULT_DATABASE_MAX_IDLE_CONNS"); val != "" {
		var maxIdle int
		if _, err := fmt.Sscanf(val, "%d", &maxIdle); err == nil {
			config.Database.MaxIdleConns = maxIdle
		}
	}

	if val := os.Getenv("BOOKVAULT_IMPORT_BATCH_SIZE"); val != "" {
		var batchSize int
		if _, err := fmt.Sscanf(val, "%d", &batchSize); err == nil {
			config.Import.BatchSize = batchSize
		}
	}
	if val := os.Getenv("BOOKVAULT_IMPORT_DRAIN_RATE"); val != "" {
		var drainRate int
		if _, err := fmt.Sscanf(val, "%d", &drainRate); err == nil {
			config.Import.DrainRate = drainRate
		}
	}
	if val := os.Getenv("BOOKVAULT_IMPORT_SEPARATOR"); val != "" {
		config.Import.Separator = val
	}
	if val := os.Getenv("BOOKVAULT_IMPORT_QUEUE_TYPE"); val != "" {
		config.Import.QueueType = val
	}
	if val := os.Getenv("BOOKVAULT_IMPORT_KAFKA_BROKERS"); val != "" {
		config.Import.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("BOOKVAULT_IMPORT_KAFKA_TOPIC"); val != "" {
		config.Import.Kafka.Topic = val
	}

	if err := Validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.config = config
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Internal {
	return m.config
}

// Validate checks the configuration. The cache section is checked by
// the validator registered for its backend type.
func Validate(config *Internal) error {
	if config.Cache.Type == "" {
		return fmt.Errorf("cache.type is required")
	}

	validator, exists := GetValidator(config.Cache.Type)
	if !exists {
		return fmt.Errorf("unsupported cache type: %s", config.Cache.Type)
	}
	if err := validator.Validate(config); err != nil {
		return fmt.Errorf("cache validation failed: %w", err)
	}
	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be greater than 0")
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Database.Port <= 0 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if config.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if config.Database.Username == "" {
		return fmt.Errorf("database.username is required")
	}
	if config.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be greater than 0")
	}

	if config.Import.BatchSize <= 0 {
		return fmt.Errorf("import.batch_size must be greater than 0")
	}
	if config.Import.DrainRate <= 0 {
		return fmt.Errorf("import.drain_rate must be greater than 0")
	}
	if config.Import.Separator == "" {
		return fmt.Errorf("import.separator is required")
	}
	switch config.Import.QueueType {
	case "memory", "redis", "kafka":
	default:
		return fmt.Errorf("import.queue_type must be 'memory', 'redis', or 'kafka'")
	}
	if config.Import.QueueType == "memory" && config.Import.QueueBufferSize <= 0 {
		return fmt.Errorf("import.queue_buffer_size must be greater than 0")
	}
	if config.Import.QueueType == "kafka" {
		if len(config.Import.Kafka.Brokers) == 0 {
			return fmt.Errorf("import.kafka.brokers is required when queue_type is 'kafka'")
		}
		if config.Import.Kafka.Topic == "" {
			return fmt.Errorf("import.kafka.topic is required when queue_type is 'kafka'")
		}
	}
	if config.Import.QueueType == "redis" && config.Cache.Type != "redis" {
		return fmt.Errorf("import.queue_type 'redis' requires cache.type 'redis'")
	}

	return nil
}

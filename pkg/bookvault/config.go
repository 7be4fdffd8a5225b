package bookvault

import (
	"time"
)

// Config is the root configuration for the bookvault client.
type Config struct {
	// Cache configures the read cache in front of the catalog.
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Database configures the MySQL instance holding the book table.
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Import configures the batch import pipeline.
	Import ImportConfig `yaml:"import" json:"import"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Type is the backend type: "redis" or "dynamodb".
	Type string `yaml:"type" json:"type"`

	// Namespace is an optional prefix for cache keys.
	// Format: {namespace}:book:{isbn}
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// TTL is the time-to-live for cached books.
	TTL time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// Redis contains Redis-specific settings.
	Redis RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`

	// DynamoDB contains DynamoDB-specific settings.
	DynamoDB DynamoDBConfig `yaml:"dynamodb,omitempty" json:"dynamodb,omitempty"`

	// DialTimeout is the timeout for establishing connections.
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`

	// ReadTimeout is the timeout for read operations.
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`

	// WriteTimeout is the timeout for write operations.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// RedisConfig contains Redis-specific settings.
type RedisConfig struct {
	// Endpoints is the list of Redis endpoints. The first one is used
	// for single-node mode.
	Endpoints []string `yaml:"endpoints" json:"endpoints"`

	// Password is the authentication password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the Redis database number (0-15).
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// PoolSize is the connection pool size.
	PoolSize int `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int `yaml:"min_idle_conns,omitempty" json:"min_idle_conns,omitempty"`
}

// DynamoDBConfig contains DynamoDB-specific settings.
type DynamoDBConfig struct {
	// Region is the AWS region.
	Region string `yaml:"region" json:"region"`

	// TableName is the DynamoDB table holding cached books.
	TableName string `yaml:"table_name" json:"table_name"`

	// Endpoint optionally overrides the AWS endpoint, e.g. for
	// LocalStack.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// AccessKeyID and SecretAccessKey override the default credential
	// chain when both are set.
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// DatabaseConfig configures the MySQL connection.
type DatabaseConfig struct {
	// Host is the database host address.
	Host string `yaml:"host" json:"host"`

	// Port is the database port number.
	Port int `yaml:"port" json:"port"`

	// Database is the database name.
	Database string `yaml:"database" json:"database"`

	// Username is the database username.
	Username string `yaml:"username" json:"username"`

	// Password is the database password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `yaml:"max_open_conns,omitempty" json:"max_open_conns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int `yaml:"max_idle_conns,omitempty" json:"max_idle_conns,omitempty"`

	// ConnMaxLifetime is how long a connection may be reused.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty" json:"conn_max_lifetime,omitempty"`

	// ConnMaxIdleTime is how long a connection may sit idle.
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time,omitempty" json:"conn_max_idle_time,omitempty"`

	// ConnectionTimeout is the timeout for establishing connections.
	ConnectionTimeout time.Duration `yaml:"connection_timeout,omitempty" json:"connection_timeout,omitempty"`
}

// ImportConfig configures the batch import pipeline.
type ImportConfig struct {
	// BatchSize is how many queued inserts are drained per
	// transaction.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// DrainRate caps database inserts per second during an import.
	DrainRate int `yaml:"drain_rate" json:"drain_rate"`

	// Separator is the field separator in import files.
	Separator string `yaml:"separator" json:"separator"`

	// QueueType selects the queue backend: "memory", "redis", or
	// "kafka".
	QueueType string `yaml:"queue_type,omitempty" json:"queue_type,omitempty"`

	// QueueBufferSize is the buffer size for the in-memory queue.
	QueueBufferSize int `yaml:"queue_buffer_size,omitempty" json:"queue_buffer_size,omitempty"`

	// JournalTTL is how long batch journal entries are retained.
	JournalTTL time.Duration `yaml:"journal_ttl,omitempty" json:"journal_ttl,omitempty"`

	// Kafka contains Kafka-specific settings, used when QueueType is
	// "kafka".
	Kafka KafkaConfig `yaml:"kafka,omitempty" json:"kafka,omitempty"`
}

// KafkaConfig configures the Kafka ingest queue.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `yaml:"brokers" json:"brokers"`

	// Topic is the topic carrying insert jobs.
	Topic string `yaml:"topic" json:"topic"`

	// GroupID is the consumer group for the drainer.
	GroupID string `yaml:"group_id" json:"group_id"`

	// BatchSize is the producer batch size.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// BatchTimeout is the producer batching timeout.
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`

	// WriteTimeout is the producer write timeout.
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// ReadTimeout is the consumer read timeout.
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`

	// RequiredAcks is the number of acknowledgments required
	// (0, 1, or -1 for all).
	RequiredAcks int `yaml:"required_acks" json:"required_acks"`

	// MaxMessageBytes is the maximum message size.
	MaxMessageBytes int `yaml:"max_message_bytes" json:"max_message_bytes"`

	// MinBytes and MaxBytes bound consumer fetches.
	MinBytes int `yaml:"min_bytes" json:"min_bytes"`
	MaxBytes int `yaml:"max_bytes" json:"max_bytes"`

	// MaxWait is the maximum time the consumer waits for data.
	MaxWait time.Duration `yaml:"max_wait" json:"max_wait"`
}

// DefaultConfig returns a configuration with sensible defaults: a
// local redis cache, a local MySQL, and the in-memory queue. Database
// name and username must still be set by the caller.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Type: "redis",
			TTL:  1 * time.Hour,
			Redis: RedisConfig{
				Endpoints:    []string{"localhost:6379"},
				PoolSize:     10,
				MinIdleConns: 5,
			},
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Import: ImportConfig{
			BatchSize:       100,
			DrainRate:       50,
			Separator:       ";",
			QueueType:       "memory",
			QueueBufferSize: 10000,
			JournalTTL:      24 * time.Hour,
			Kafka: KafkaConfig{
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

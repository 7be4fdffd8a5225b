package config

import (
	"time"
)

// Internal is the configuration structure the wiring code consumes.
// It mirrors the public Config type to avoid import cycles between
// pkg/bookvault and the internal packages.
type Internal struct {
	Cache    InternalCacheConfig    `yaml:"cache" json:"cache"`
	Database InternalDatabaseConfig `yaml:"database" json:"database"`
	Import   InternalImportConfig   `yaml:"import" json:"import"`
}

// InternalCacheConfig selects and configures the read cache backend.
type InternalCacheConfig struct {
	Type         string                 `yaml:"type" json:"type"`
	Namespace    string                 `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	TTL          time.Duration          `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	Redis        InternalRedisConfig    `yaml:"redis,omitempty" json:"redis,omitempty"`
	DynamoDB     InternalDynamoDBConfig `yaml:"dynamodb,omitempty" json:"dynamodb,omitempty"`
	DialTimeout  time.Duration          `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration          `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout time.Duration          `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// InternalRedisConfig contains Redis-specific configuration.
type InternalRedisConfig struct {
	Endpoints    []string `yaml:"endpoints" json:"endpoints"`
	Password     string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int      `yaml:"db" json:"db"`
	PoolSize     int      `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// InternalDynamoDBConfig contains DynamoDB-specific configuration.
type InternalDynamoDBConfig struct {
	Region          string `yaml:"region" json:"region"`
	TableName       string `yaml:"table_name" json:"table_name"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// InternalDatabaseConfig contains configuration for the MySQL catalog.
type InternalDatabaseConfig struct {
	Host              string        `yaml:"host" json:"host"`
	Port              int           `yaml:"port" json:"port"`
	Database          string        `yaml:"database" json:"database"`
	Username          string        `yaml:"username" json:"username"`
	Password          string        `yaml:"password,omitempty" json:"password,omitempty"`
	MaxOpenConns      int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns      int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout"`
}

// InternalImportConfig configures the batch import pipeline.
type InternalImportConfig struct {
	BatchSize       int                 `yaml:"batch_size" json:"batch_size"`
	DrainRate       int                 `yaml:"drain_rate" json:"drain_rate"` // inserts per second against MySQL
	Separator       string              `yaml:"separator" json:"separator"`
	QueueType       string              `yaml:"queue_type" json:"queue_type"`
	QueueBufferSize int                 `yaml:"queue_buffer_size" json:"queue_buffer_size"`
	JournalTTL      time.Duration       `yaml:"journal_ttl" json:"journal_ttl"`
	Kafka           InternalKafkaConfig `yaml:"kafka,omitempty" json:"kafka,omitempty"`
}

// InternalKafkaConfig contains Kafka-specific configuration for the
// kafka ingest queue.
type InternalKafkaConfig struct {
	Brokers         []string      `yaml:"brokers" json:"brokers"`
	Topic           string        `yaml:"topic" json:"topic"`
	GroupID         string        `yaml:"group_id" json:"group_id"`
	BatchSize       int           `yaml:"batch_size" json:"batch_size"`
	BatchTimeout    time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	RequiredAcks    int           `yaml:"required_acks" json:"required_acks"`
	MaxMessageBytes int           `yaml:"max_message_bytes" json:"max_message_bytes"`
	MinBytes        int           `yaml:"min_bytes" json:"min_bytes"`
	MaxBytes        int           `yaml:"max_bytes" json:"max_bytes"`
	MaxWait         time.Duration `yaml:"max_wait" json:"max_wait"`
}

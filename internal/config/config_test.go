package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hallimar/bookvault/internal/config"
	_ "github.com/hallimar/bookvault/internal/kvstore" // registers backend validators
)

func validConfig() *config.Internal {
	cfg := config.Default()
	cfg.Database.Database = "bookvault"
	cfg.Database.Username = "bookvault"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	if err := config.Validate(validConfig()); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Internal)
		wantMsg string
	}{
		{
			name:    "missing cache type",
			mutate:  func(c *config.Internal) { c.Cache.Type = "" },
			wantMsg: "cache.type is required",
		},
		{
			name:    "unsupported cache type",
			mutate:  func(c *config.Internal) { c.Cache.Type = "memcached" },
			wantMsg: "unsupported cache type",
		},
		{
			name:    "no redis endpoints",
			mutate:  func(c *config.Internal) { c.Cache.Redis.Endpoints = nil },
			wantMsg: "at least one endpoint",
		},
		{
			name:    "missing database name",
			mutate:  func(c *config.Internal) { c.Database.Database = "" },
			wantMsg: "database.database is required",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *config.Internal) { c.Import.BatchSize = 0 },
			wantMsg: "batch_size",
		},
		{
			name:    "bad queue type",
			mutate:  func(c *config.Internal) { c.Import.QueueType = "sqs" },
			wantMsg: "queue_type",
		},
		{
			name: "kafka queue without brokers",
			mutate: func(c *config.Internal) {
				c.Import.QueueType = "kafka"
				c.Import.Kafka.Brokers = nil
			},
			wantMsg: "kafka.brokers",
		},
		{
			name: "redis queue without redis cache",
			mutate: func(c *config.Internal) {
				c.Import.QueueType = "redis"
				c.Cache.Type = "dynamodb"
				c.Cache.DynamoDB.Region = "us-east-1"
				c.Cache.DynamoDB.TableName = "bookvault-cache"
			},
			wantMsg: "requires cache.type 'redis'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	data := []byte(`
cache:
  type: redis
  redis:
    endpoints: ["cache-1:6379"]
    db: 2
database:
  host: db.internal
  database: bookvault
  username: catalog
import:
  batch_size: 250
  drain_rate: 20
  separator: ";"
`)

	m := config.NewManager()
	if err := m.LoadFromYAML(data); err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("expected default ttl 1h, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.Redis.Endpoints[0] != "cache-1:6379" {
		t.Errorf("unexpected endpoints: %v", cfg.Cache.Redis.Endpoints)
	}
	if cfg.Cache.Redis.DB != 2 {
		t.Errorf("expected db 2, got %d", cfg.Cache.Redis.DB)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("unexpected host: %s", cfg.Database.Host)
	}
	if cfg.Import.BatchSize != 250 || cfg.Import.DrainRate != 20 {
		t.Errorf("unexpected import config: %+v", cfg.Import)
	}
	// Unset keys keep their defaults.
	if cfg.Database.Port != 3306 {
		t.Errorf("expected default port 3306, got %d", cfg.Database.Port)
	}
	if cfg.Import.QueueType != "memory" {
		t.Errorf("expected default queue type memory, got %s", cfg.Import.QueueType)
	}
}

func TestLoadFromJSON(t *testing.T) {
	data := []byte(`{
		"database": {"host": "localhost", "database": "bookvault", "username": "catalog"},
		"import": {"queue_type": "redis"}
	}`)

	m := config.NewManager()
	if err := m.LoadFromJSON(data); err != nil {
		t.Fatalf("LoadFromJSON failed: %v", err)
	}
	if m.Get().Import.QueueType != "redis" {
		t.Errorf("expected queue type redis, got %s", m.Get().Import.QueueType)
	}
}

func TestLoadFromYAMLInvalid(t *testing.T) {
	m := config.NewManager()
	if err := m.LoadFromYAML([]byte("cache: [not a map]")); err == nil {
		t.Error("expected parse error for malformed YAML")
	}

	// Parses but fails validation.
	if err := m.LoadFromYAML([]byte("database:\n  host: \"\"\n")); err == nil {
		t.Error("expected validation error for empty database host")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOOKVAULT_DATABASE_HOST", "env-db")
	t.Setenv("BOOKVAULT_DATABASE_DATABASE", "bookvault")
	t.Setenv("BOOKVAULT_DATABASE_USERNAME", "catalog")
	t.Setenv("BOOKVAULT_IMPORT_DRAIN_RATE", "5")
	t.Setenv("BOOKVAULT_CACHE_TTL", "15m")

	m := config.NewManager()
	if err := m.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Database.Host != "env-db" {
		t.Errorf("expected host env-db, got %s", cfg.Database.Host)
	}
	if cfg.Import.DrainRate != 5 {
		t.Errorf("expected drain rate 5, got %d", cfg.Import.DrainRate)
	}
	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("expected ttl 15m, got %v", cfg.Cache.TTL)
	}
}

func TestLoadFromFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("key = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := config.NewManager()
	err := m.LoadFromFile(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported config file format") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

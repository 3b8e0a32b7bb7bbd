package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "STORAGE_MODE", "MONGO_URI", "MONGO_DB",
		"KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "IDEMP_TTL",
		"OUTBOX_POLL_INTERVAL", "SESSION_TTL", "RETRY_BACKOFF", "ASSET_FIXTURES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" || cfg.HTTPAddr != ":8080" || cfg.StorageMode != "memory" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.KafkaEnabled() {
		t.Fatal("kafka must be off without brokers")
	}
	if cfg.IdempotencyTTL != 168*time.Hour {
		t.Fatalf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
	if len(cfg.RetryBackoff) != 3 || cfg.RetryBackoff[0] != time.Second {
		t.Fatalf("RetryBackoff = %v", cfg.RetryBackoff)
	}
}

func TestLoadMongoMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_MODE", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("mongo mode without MONGO_URI must fail")
	}

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageMode != "mongo" || cfg.MongoDB != "haulshare" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadKafkaBrokers(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_BROKERS", "broker-a:9092,broker-b:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.KafkaEnabled() || len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown storage mode", "STORAGE_MODE", "postgres"},
		{"bad session ttl", "SESSION_TTL", "soon"},
		{"bad retry backoff", "RETRY_BACKOFF", "1s,fast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load must reject %s=%q", tt.key, tt.val)
			}
		})
	}
}

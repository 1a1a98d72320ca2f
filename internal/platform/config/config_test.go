package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"REGDESK_ADDR", "REDIS_URL", "DATABASE_URL", "NOTIFY_URL", "NOTIFY_TIMEOUT", "KAFKA_BROKERS", "KAFKA_TOPIC", "DRAFT_TTL", "CONFIRMATION_PATH", "LEDGER_BACKEND"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "confirmation.html", cfg.ConfirmationPath)
	assert.Equal(t, BackendMemory, cfg.LedgerBackend)
	assert.Equal(t, "https://www.foo.com", cfg.Notify.URL)
	assert.Zero(t, cfg.Notify.Timeout)
	assert.Zero(t, cfg.DraftTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "registrations", cfg.Kafka.Topic)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REGDESK_ADDR", ":9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("NOTIFY_TIMEOUT", "2s")
	t.Setenv("DRAFT_TTL", "24h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, BackendRedis, cfg.LedgerBackend, "redis is picked when it is the only store configured")
	assert.Equal(t, 2*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.DraftTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestLedgerBackendSelection(t *testing.T) {
	withPG := Server{Postgres: PostgresConfig{URL: "postgres://x"}}

	assert.Equal(t, BackendPostgres, ledgerBackend("", withPG))
	assert.Equal(t, BackendMemory, ledgerBackend("MEMORY", withPG))
	assert.Equal(t, BackendRedis, ledgerBackend(" redis ", Server{}))
	assert.Equal(t, BackendMemory, ledgerBackend("bogus", Server{}))
}

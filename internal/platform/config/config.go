package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger backends selectable with LEDGER_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Server captures process level configuration.
type Server struct {
	Addr             string
	SecureCookies    bool
	ConfirmationPath string
	LedgerBackend    string
	DraftTTL         time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
	Notify   NotifyConfig
	Kafka    KafkaConfig
}

// RedisConfig configures the shared go-redis client. An empty URL keeps
// drafts in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the submission ledger database.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// NotifyConfig configures the outbound form POST. A zero Timeout leaves the
// request unbounded.
type NotifyConfig struct {
	URL     string
	Timeout time.Duration
}

// KafkaConfig enables the Kafka sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             getString("REGDESK_ADDR", ":8080"),
		SecureCookies:    os.Getenv("SECURE_COOKIES") == "true",
		ConfirmationPath: getString("CONFIRMATION_PATH", "confirmation.html"),
		DraftTTL:         getDuration("DRAFT_TTL", 0),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Notify: NotifyConfig{
			URL:     getString("NOTIFY_URL", "https://www.foo.com"),
			Timeout: getDuration("NOTIFY_TIMEOUT", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getString("KAFKA_TOPIC", "registrations"),
		},
	}
	cfg.LedgerBackend = ledgerBackend(os.Getenv("LEDGER_BACKEND"), cfg)
	return cfg
}

// ledgerBackend defaults to the most durable backend that is configured.
func ledgerBackend(raw string, cfg Server) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case BackendMemory:
		return BackendMemory
	case BackendRedis:
		return BackendRedis
	case BackendPostgres:
		return BackendPostgres
	}
	switch {
	case cfg.Postgres.URL != "":
		return BackendPostgres
	case cfg.Redis.URL != "":
		return BackendRedis
	default:
		return BackendMemory
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

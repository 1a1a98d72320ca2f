package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

var draftOpDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "regdesk_draft_store_duration_ms",
	Help:    "Latency of Redis draft store operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
}, []string{"op"})

const draftKeyPrefix = "regdesk:draft:"

// Redis stores each device's draft as one JSON string.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a Redis draft store.
type RedisOption func(*Redis)

// WithTTL expires drafts that see no input for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *Redis) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	s := &Redis{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Redis) Save(ctx context.Context, deviceID string, draft models.FormDraft) error {
	defer observe("save", time.Now())
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(deviceID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *Redis) Load(ctx context.Context, deviceID string) (models.FormDraft, error) {
	defer observe("load", time.Now())
	data, err := s.client.Get(ctx, draftKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return decode(data)
}

// Clear deletes the draft. Deleting a missing key is not an error.
func (s *Redis) Clear(ctx context.Context, deviceID string) error {
	defer observe("clear", time.Now())
	if err := s.client.Del(ctx, draftKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

func draftKey(deviceID string) string {
	return draftKeyPrefix + deviceID
}

func observe(op string, start time.Time) {
	draftOpDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

const (
	ledgerKeyPrefix = "regdesk:submissions:"

	// appendMaxRetries bounds optimistic-lock retries when two appends race
	// on the same device key.
	appendMaxRetries = 5
)

// Redis stores each device's ledger as one JSON array, rewritten on append.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Load returns the stored ledger, an empty ledger when none is stored, or an
// error wrapping sentinel.ErrCorrupt when the stored array cannot be decoded.
func (s *Redis) Load(ctx context.Context, deviceID string) (models.Ledger, error) {
	data, err := s.client.Get(ctx, ledgerKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Ledger{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return decodeLedger(data)
}

// Append adds submission to the end of the array under WATCH so concurrent
// appends never drop entries. A corrupt stored array is replaced.
func (s *Redis) Append(ctx context.Context, deviceID string, submission models.Submission) error {
	key := ledgerKey(deviceID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		entries, err := decodeLedger(data)
		if err != nil {
			entries = models.Ledger{}
		}
		entries = append(entries, submission)
		encoded, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("encode ledger: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for range appendMaxRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("append ledger: %w", err)
	}
	return fmt.Errorf("append ledger: %w", sentinel.ErrConflict)
}

func decodeLedger(data []byte) (models.Ledger, error) {
	if len(data) == 0 {
		return models.Ledger{}, nil
	}
	var entries models.Ledger
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode ledger: %w: %v", sentinel.ErrCorrupt, err)
	}
	if entries == nil {
		entries = models.Ledger{}
	}
	return entries, nil
}

func ledgerKey(deviceID string) string {
	return ledgerKeyPrefix + deviceID
}

// Package ledger persists the append-only list of accepted submissions per device.
package ledger

import (
	"context"
	"sync"

	"regdesk/internal/registration/models"
)

// InMemory keeps each device's ledger in insertion order.
type InMemory struct {
	mu      sync.RWMutex
	ledgers map[string]models.Ledger
}

func NewInMemory() *InMemory {
	return &InMemory{ledgers: make(map[string]models.Ledger)}
}

// Load returns a copy so callers cannot mutate stored entries.
func (s *InMemory) Load(_ context.Context, deviceID string) (models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(models.Ledger{}, s.ledgers[deviceID]...), nil
}

func (s *InMemory) Append(_ context.Context, deviceID string, submission models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[deviceID] = append(s.ledgers[deviceID], submission)
	return nil
}

// Package draft persists the single in-progress form draft of each device.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

// InMemory keeps serialized drafts in a map, mirroring browser storage where
// the draft is one JSON string under a fixed key.
type InMemory struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{drafts: make(map[string][]byte)}
}

func (s *InMemory) Save(_ context.Context, deviceID string, draft models.FormDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[deviceID] = data
	return nil
}

func (s *InMemory) Load(_ context.Context, deviceID string) (models.FormDraft, error) {
	s.mu.RLock()
	data, ok := s.drafts[deviceID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return decode(data)
}

func (s *InMemory) Clear(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, deviceID)
	return nil
}

func decode(data []byte) (models.FormDraft, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode draft: %w: %v", sentinel.ErrCorrupt, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode draft: %w: null document", sentinel.ErrCorrupt)
	}
	return models.NormalizeDraft(raw), nil
}

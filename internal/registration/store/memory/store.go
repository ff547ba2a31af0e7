package memory

import (
	"context"
	"fmt"
	"sync"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

// InMemory keeps records in insertion order with a key index for O(1)
// uniqueness checks. Not durable; used for tests and demo mode.
type InMemory struct {
	mu      sync.RWMutex
	records []*models.Record
	keys    map[string]struct{}
}

func New() *InMemory {
	return &InMemory{keys: make(map[string]struct{})}
}

func (s *InMemory) Lookup(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[models.UsernameKey(username)]
	return ok, nil
}

// Append checks the key and stores the record under one write lock.
func (s *InMemory) Append(_ context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	key := record.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key]; exists {
		return fmt.Errorf("append %q: %w", record.Username, sentinel.ErrAlreadyUsed)
	}
	s.keys[key] = struct{}{}
	s.records = append(s.records, record.Clone())
	return nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) Close() error { return nil }

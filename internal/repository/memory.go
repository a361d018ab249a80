package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// MemoryStore is a volatile case store. Cases are deep-copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	cases map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cases: make(map[string][]byte)}
}

// LoadAllCases returns a copy of every stored case.
func (m *MemoryStore) LoadAllCases(ctx context.Context) (map[string]*domain.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*domain.Case, len(m.cases))
	for id, data := range m.cases {
		c, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode case %s: %w", id, err)
		}
		out[id] = c
	}
	return out, nil
}

// SaveAllCases upserts the given cases.
func (m *MemoryStore) SaveAllCases(ctx context.Context, cases map[string]*domain.Case) error {
	encoded := make(map[string][]byte, len(cases))
	for id, c := range cases {
		if c == nil || id == "" || id != c.ID {
			return fmt.Errorf("%w: case key %q does not match case id", ErrInvalidInput, id)
		}
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode case %s: %w", id, err)
		}
		encoded[id] = data
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, data := range encoded {
		m.cases[id] = data
	}
	return nil
}

// GetCase returns a copy of one case.
func (m *MemoryStore) GetCase(ctx context.Context, caseID string) (*domain.Case, error) {
	m.mu.RLock()
	data, ok := m.cases[caseID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

// Mode returns "memory".
func (m *MemoryStore) Mode() string {
	return "memory"
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func decode(data []byte) (*domain.Case, error) {
	var c domain.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

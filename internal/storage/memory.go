// internal/storage/memory.go
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/kbrooks/land-tracker/internal/domain"
)

// Memory is an in-process Storage used by tests.
type Memory struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
	state    *domain.RunState
}

func NewMemory() *Memory {
	return &Memory{listings: make(map[string]domain.Listing)}
}

func (m *Memory) UpsertListing(_ context.Context, l domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return nil
}

func (m *Memory) FetchListings(_ context.Context, source string) ([]domain.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		if source != "" && l.Source != source {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ReadRunState(_ context.Context) (*domain.RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, ErrNotFound
	}
	st := *m.state
	return &st, nil
}

func (m *Memory) WriteRunState(_ context.Context, s domain.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &s
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/domain"
)

// MemoryStore is the single-instance Store.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[domain.DeviceID]app.StreamStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[domain.DeviceID]app.StreamStatus)}
}

func (s *MemoryStore) Save(_ context.Context, st app.StreamStatus) error {
	s.mu.Lock()
	s.rows[st.DeviceID] = st
	s.mu.Unlock()
	return nil
}

// Get returns nil when the device has no row.
func (s *MemoryStore) Get(_ context.Context, id domain.DeviceID) (*app.StreamStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *MemoryStore) Delete(_ context.Context, id domain.DeviceID) error {
	s.mu.Lock()
	delete(s.rows, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]app.StreamStatus, error) {
	s.mu.RLock()
	out := make([]app.StreamStatus, 0, len(s.rows))
	for _, st := range s.rows {
		out = append(out, st)
	}
	s.mu.RUnlock()
	sortByDevice(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func sortByDevice(rows []app.StreamStatus) {
	slices.SortFunc(rows, func(a, b app.StreamStatus) int {
		switch {
		case a.DeviceID < b.DeviceID:
			return -1
		case a.DeviceID > b.DeviceID:
			return 1
		}
		return 0
	})
}

var _ Store = (*MemoryStore)(nil)

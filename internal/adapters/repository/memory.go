package repository

import (
	"context"
	"sync"

	"github.com/okian/pacegrid/internal/domain/model"
)

// MemoryStore is a process-local SnapshotStore.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnapshot stores a copy of s.
func (m *MemoryStore) SaveSnapshot(_ context.Context, s Snapshot) error {
	cp := copySnapshot(s)
	m.mu.Lock()
	m.snap = &cp
	m.mu.Unlock()
	return nil
}

// LoadSnapshot returns a copy of the stored snapshot.
func (m *MemoryStore) LoadSnapshot(_ context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return Snapshot{}, ErrNotFound
	}
	return copySnapshot(*m.snap), nil
}

func copySnapshot(s Snapshot) Snapshot {
	s.Visible = model.CloneRuns(s.Visible)
	s.Focused = append([]string(nil), s.Focused...)
	return s
}

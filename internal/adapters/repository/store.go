// Package repository persists visible-set snapshots and PB cache entries.
package repository

import (
	"context"
	"time"

	"github.com/okian/pacegrid/internal/domain/model"
)

// Snapshot is the last published visible set.
type Snapshot struct {
	Sequence  uint64                `json:"sequence"`
	Visible   []model.NormalizedRun `json:"visible"`
	Focused   []string              `json:"focused"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// SnapshotStore keeps the latest snapshot so a restart can resume with
// the previous visible set.
type SnapshotStore interface {
	// SaveSnapshot replaces the stored snapshot.
	SaveSnapshot(ctx context.Context, s Snapshot) error
	// LoadSnapshot returns ErrNotFound when nothing was saved yet.
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

var (
	_ SnapshotStore = (*MemoryStore)(nil)
	_ SnapshotStore = (*RedisStore)(nil)
)

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/split"
)

func TestMemoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.LoadSnapshot(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	elapsed := 60.0
	snap := Snapshot{
		Sequence: 3,
		Visible: []model.NormalizedRun{
			{LiveAccount: "alice", Milestone: split.Nether, ElapsedSeconds: &elapsed},
			{LiveAccount: "bob", Placeholder: true},
		},
		Focused:   []string{"alice"},
		UpdatedAt: time.UnixMilli(1_700_000_000_000),
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// mutating the caller's copy must not leak into the store
	snap.Visible[0].LiveAccount = "mallory"
	snap.Focused[0] = "mallory"

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sequence != 3 {
		t.Errorf("expected sequence 3, got %d", got.Sequence)
	}
	if accounts := model.Accounts(got.Visible); len(accounts) != 2 || accounts[0] != "alice" || accounts[1] != "bob" {
		t.Errorf("unexpected accounts %v", accounts)
	}
	if len(got.Focused) != 1 || got.Focused[0] != "alice" {
		t.Errorf("unexpected focused %v", got.Focused)
	}
	if !got.UpdatedAt.Equal(time.UnixMilli(1_700_000_000_000)) {
		t.Errorf("unexpected updated_at %v", got.UpdatedAt)
	}
}

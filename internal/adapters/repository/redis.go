package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/pkg/metrics"
)

const defaultRedisPrefix = "pacegrid:visible"

// RedisStore keeps the snapshot in Redis: a sorted set of accounts scored
// by rank, a hash of JSON run records, the focused list and a meta record.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) rankKey() string    { return s.prefix + ":rank" }
func (s *RedisStore) runsKey() string    { return s.prefix + ":runs" }
func (s *RedisStore) focusedKey() string { return s.prefix + ":focused" }
func (s *RedisStore) metaKey() string    { return s.prefix + ":meta" }

type snapshotMeta struct {
	Sequence  uint64 `json:"sequence"`
	UpdatedAt int64  `json:"updated_at"`
}

// SaveSnapshot rebuilds every key in one transaction.
func (s *RedisStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	members := make([]*redis.Z, 0, len(snap.Visible))
	records := make(map[string]any, len(snap.Visible))
	for i := range snap.Visible {
		r := &snap.Visible[i]
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal run %s: %w", r.LiveAccount, err)
		}
		members = append(members, &redis.Z{Score: float64(i), Member: r.LiveAccount})
		records[r.LiveAccount] = b
	}
	focused, err := json.Marshal(snap.Focused)
	if err != nil {
		return fmt.Errorf("marshal focused: %w", err)
	}
	meta, err := json.Marshal(snapshotMeta{Sequence: snap.Sequence, UpdatedAt: snap.UpdatedAt.UnixMilli()})
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.rankKey(), s.runsKey())
	if len(members) > 0 {
		pipe.ZAdd(ctx, s.rankKey(), members...)
		pipe.HSet(ctx, s.runsKey(), records)
	}
	pipe.Set(ctx, s.focusedKey(), focused, 0)
	pipe.Set(ctx, s.metaKey(), meta, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordErrorByComponent("repository", "redis_save")
		return fmt.Errorf("update redis snapshot failed: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot back in rank order.
func (s *RedisStore) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	rawMeta, err := s.client.Get(ctx, s.metaKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get meta: %w", err)
	}
	var meta snapshotMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return Snapshot{}, fmt.Errorf("%w: meta: %w", ErrCorruptRecord, err)
	}

	snap := Snapshot{Sequence: meta.Sequence, UpdatedAt: unixMilli(meta.UpdatedAt), Visible: []model.NormalizedRun{}}

	accounts, err := s.client.ZRange(ctx, s.rankKey(), 0, -1).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("zrange: %w", err)
	}
	if len(accounts) > 0 {
		vals, err := s.client.HMGet(ctx, s.runsKey(), accounts...).Result()
		if err != nil {
			return Snapshot{}, fmt.Errorf("hmget: %w", err)
		}
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				return Snapshot{}, fmt.Errorf("%w: missing run %s", ErrCorruptRecord, accounts[i])
			}
			var r model.NormalizedRun
			if err := json.Unmarshal([]byte(str), &r); err != nil {
				return Snapshot{}, fmt.Errorf("%w: run %s: %w", ErrCorruptRecord, accounts[i], err)
			}
			snap.Visible = append(snap.Visible, r)
		}
	}

	rawFocused, err := s.client.Get(ctx, s.focusedKey()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		snap.Focused = []string{}
	case err != nil:
		return Snapshot{}, fmt.Errorf("get focused: %w", err)
	default:
		if err := json.Unmarshal(rawFocused, &snap.Focused); err != nil {
			return Snapshot{}, fmt.Errorf("%w: focused: %w", ErrCorruptRecord, err)
		}
	}
	return snap, nil
}

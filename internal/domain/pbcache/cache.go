// Package pbcache caches personal-best lookups per runner and enriches
// normalized runs with them.
package pbcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/pkg/logger"
	"github.com/okian/pacegrid/pkg/metrics"
)

// Defaults.
const (
	DefaultTTL         = time.Hour
	defaultConcurrency = 8
)

// Lookup fetches the personal best in seconds for a username. A nil
// result with a nil error means the runner has no PB.
type Lookup interface {
	Lookup(ctx context.Context, username string) (*float64, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, username string) (*float64, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, username string) (*float64, error) {
	return f(ctx, username)
}

// Entry is one cached PB. Value nil is a cached negative result.
type Entry struct {
	Value     *float64
	Timestamp time.Time
}

// Persister stores entries outside the process.
type Persister interface {
	LoadEntries(ctx context.Context) (map[string]Entry, error)
	PutEntry(ctx context.Context, key string, e Entry) error
	DeleteEntries(ctx context.Context, keys []string) error
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is a TTL cache of PB lookups safe for concurrent use.
type Cache struct {
	lookup      Lookup
	persister   Persister
	ttl         time.Duration
	concurrency int
	now         func() time.Time
	log         logger.Logger

	mu      sync.RWMutex
	entries map[string]Entry
	group   singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache backed by lookup.
func New(lookup Lookup, opts ...Option) *Cache {
	c := &Cache{
		lookup:      lookup,
		ttl:         DefaultTTL,
		concurrency: defaultConcurrency,
		now:         time.Now,
		log:         logger.Get().Named("pbcache"),
		entries:     make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Warm loads persisted entries that are still fresh.
func (c *Cache) Warm(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}
	loaded, err := c.persister.LoadEntries(ctx)
	if err != nil {
		return err
	}
	now := c.now()
	c.mu.Lock()
	for k, e := range loaded {
		if c.fresh(e, now) {
			c.entries[k] = e
		}
	}
	size := len(c.entries)
	c.mu.Unlock()
	metrics.UpdatePBCacheSize(size)
	c.log.Info(ctx, "pb cache warmed", logger.Int("entries", size))
	return nil
}

func (c *Cache) fresh(e Entry, now time.Time) bool {
	return now.Sub(e.Timestamp) < c.ttl
}

// Get returns the PB for key, looking it up when missing or expired.
// Lookup failures yield a nil PB and are cached like any other result.
func (c *Cache) Get(ctx context.Context, key string) *float64 {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.fresh(e, c.now()) {
		c.hits.Add(1)
		metrics.RecordPBCacheHit()
		return e.Value
	}

	c.misses.Add(1)
	metrics.RecordPBCacheMiss()

	v, _, _ := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, key), nil
	})
	pb, _ := v.(*float64)
	return pb
}

func (c *Cache) fetch(ctx context.Context, key string) *float64 {
	var pb *float64
	if c.lookup == nil {
		c.log.Warn(ctx, "pb lookup skipped", logger.String("key", key), logger.Error(ErrNoLookup))
	} else {
		v, err := c.lookup.Lookup(ctx, key)
		switch {
		case err == nil:
			pb = v
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// not cached; the next cycle retries
			return nil
		default:
			metrics.RecordPBLookupError()
			c.log.Warn(ctx, "pb lookup failed", logger.String("key", key), logger.Error(err))
		}
	}

	c.store(ctx, key, Entry{Value: pb, Timestamp: c.now()})
	return pb
}

func (c *Cache) store(ctx context.Context, key string, e Entry) {
	c.mu.Lock()
	c.entries[key] = e
	size := len(c.entries)
	c.mu.Unlock()
	metrics.UpdatePBCacheSize(size)

	if c.persister != nil {
		if err := c.persister.PutEntry(ctx, key, e); err != nil {
			metrics.RecordErrorByComponent("pbcache", "persist")
			c.log.Warn(ctx, "pb cache persist failed", logger.String("key", key), logger.Error(err))
		}
	}
}

// EnrichAll returns a copy of runs with PersonalBestSeconds filled in.
// Lookups run concurrently; runs that already carry a PB are left alone.
func (c *Cache) EnrichAll(ctx context.Context, runs []model.NormalizedRun) []model.NormalizedRun {
	out := model.CloneRuns(runs)
	if len(out) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range out {
		if out[i].PersonalBestSeconds != nil || out[i].Placeholder {
			continue
		}
		key := out[i].PBKey()
		if key == "" {
			continue
		}
		g.Go(func() error {
			// each goroutine owns index i
			out[i].PersonalBestSeconds = c.Get(gctx, key)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Sweep evicts entries older than the TTL and returns how many were removed.
func (c *Cache) Sweep(ctx context.Context) int {
	now := c.now()
	var expired []string

	c.mu.Lock()
	for k, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, k)
			expired = append(expired, k)
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.UpdatePBCacheSize(size)
	if len(expired) == 0 {
		if size > 0 {
			st := c.Stats()
			c.log.Debug(ctx, "pb cache status", logger.Int("size", size), logger.Float64("hit_rate", st.HitRate))
		}
		return 0
	}

	metrics.RecordPBEvictions(len(expired))
	c.log.Info(ctx, "pb cache swept", logger.Int("evicted", len(expired)), logger.Int("size", size))
	if c.persister != nil {
		if err := c.persister.DeleteEntries(ctx, expired); err != nil {
			metrics.RecordErrorByComponent("pbcache", "persist")
			c.log.Warn(ctx, "pb cache delete failed", logger.Error(err))
		}
	}
	return len(expired)
}

// Run sweeps every TTL/2 until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Stats returns a snapshot of hit/miss counters and the current size.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: size}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

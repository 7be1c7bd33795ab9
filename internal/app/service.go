// Package service polls the live-runs feed, ranks runners and publishes
// changes of the visible channel set.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pacegrid/internal/adapters/paceman"
	"github.com/okian/pacegrid/internal/adapters/repository"
	"github.com/okian/pacegrid/internal/domain/feed"
	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/pbcache"
	"github.com/okian/pacegrid/internal/domain/ranking"
	"github.com/okian/pacegrid/pkg/logger"
	"github.com/okian/pacegrid/pkg/metrics"
)

// Default intervals.
const (
	DefaultPollInterval    = 10 * time.Second
	DefaultRescoreInterval = time.Second
)

// Publisher receives visible-set updates.
type Publisher interface {
	Publish(ctx context.Context, u model.Update) int
}

// Service owns the visible set.
type Service struct {
	mu sync.RWMutex

	// Core components
	feed     paceman.LiveRunsSource
	pb       *pbcache.Cache
	pbLookup pbcache.Lookup
	store    repository.SnapshotStore
	hub      Publisher

	// Configuration
	settings        ranking.Settings
	pollInterval    time.Duration
	rescoreInterval time.Duration
	now             func() time.Time

	// State
	pollMu    sync.Mutex
	visible   []model.NormalizedRun
	focused   []string
	sequence  uint64
	updatedAt time.Time
	lastPoll  time.Time
	lastErr   error
	polls     uint64
	changes   uint64

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service.
func New(opts ...Option) *Service {
	s := &Service{
		settings:        ranking.DefaultSettings(),
		pollInterval:    DefaultPollInterval,
		rescoreInterval: DefaultRescoreInterval,
		now:             time.Now,
		visible:         []model.NormalizedRun{},
		focused:         []string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.pb == nil {
		s.pb = pbcache.New(s.pbLookup, pbcache.WithClock(s.now))
	}
	return s
}

// Start restores the last snapshot, runs a first poll and starts the
// poll, re-score and cache sweep loops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting pacegrid service...",
		logger.Duration("poll_interval", s.pollInterval),
		logger.Duration("rescore_interval", s.rescoreInterval),
	)

	s.restore(ctx)
	if err := s.pb.Warm(ctx); err != nil {
		s.logger.Warn(ctx, "pb cache warm failed", logger.Error(err))
	}
	if _, err := s.Poll(ctx); err != nil {
		s.logger.Warn(ctx, "initial poll failed", logger.Error(err))
	}

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.pollLoop(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.rescoreLoop(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.pb.Run(runCtx)
	}()

	s.logger.Info(ctx, "pacegrid service started", logger.Int("visible", len(s.Current().Visible)))
	return nil
}

// Stop cancels the loops and waits for them.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping pacegrid service...")
	cancel()
	s.wg.Wait()
	s.logger.Info(context.Background(), "pacegrid service stopped")
}

func (s *Service) restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap, err := s.store.LoadSnapshot(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		metrics.RecordErrorByComponent("service", "restore")
		s.logger.Warn(ctx, "snapshot restore failed", logger.Error(err))
		return
	}

	s.mu.Lock()
	s.sequence = snap.Sequence
	s.visible = model.CloneRuns(snap.Visible)
	if s.visible == nil {
		s.visible = []model.NormalizedRun{}
	}
	s.focused = append([]string{}, snap.Focused...)
	s.updatedAt = snap.UpdatedAt
	s.mu.Unlock()

	metrics.UpdateVisibleSize(len(snap.Visible))
	s.logger.Info(ctx, "snapshot restored",
		logger.Int64("sequence", int64(snap.Sequence)),
		logger.Strings("visible", model.Accounts(snap.Visible)),
	)
}

func (s *Service) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Poll(ctx); err != nil && !errors.Is(err, ErrPollInProgress) && ctx.Err() == nil {
				s.logger.Error(ctx, "poll failed", logger.Error(err))
			}
		}
	}
}

func (s *Service) rescoreLoop(ctx context.Context) {
	ticker := time.NewTicker(s.rescoreInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Rescore(ctx, s.now())
		}
	}
}

// Poll runs one fetch, enrich and reconcile cycle. Overlapping calls
// return ErrPollInProgress. On error the previous visible set is kept.
func (s *Service) Poll(ctx context.Context) (model.Result, error) {
	if !s.pollMu.TryLock() {
		metrics.RecordPollCycle("skipped")
		return model.Result{}, ErrPollInProgress
	}
	defer s.pollMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RecordPollLatency(float64(time.Since(start).Milliseconds()))
	}()

	res, err := s.poll(ctx)

	s.mu.Lock()
	s.polls++
	s.lastPoll = s.now()
	s.lastErr = err
	s.mu.Unlock()

	switch {
	case err != nil:
		metrics.RecordPollCycle("error")
		metrics.RecordErrorByComponent("feed", errorKind(err))
		return model.Result{}, err
	case res.Changed:
		metrics.RecordPollCycle("changed")
	default:
		metrics.RecordPollCycle("unchanged")
	}
	return res, nil
}

func (s *Service) poll(ctx context.Context) (model.Result, error) {
	if s.feed == nil {
		return model.Result{}, ErrNoFeed
	}
	raw, err := s.feed.LiveRuns(ctx)
	if err != nil {
		return model.Result{}, fmt.Errorf("fetch live runs: %w", err)
	}

	settings := s.Settings()
	pools := feed.Normalize(raw, settings.FeedOptions())
	metrics.UpdateFeedRuns("live", len(pools.Live))
	metrics.UpdateFeedRuns("hidden", len(pools.Hidden))

	in := ranking.InputFromPools(pools)
	if !in.FilteredEmpty {
		in.Live = s.pb.EnrichAll(ctx, in.Live)
	}

	prev := s.Current().Visible
	res := ranking.Reconcile(in, prev, settings, s.now())
	s.enrichBackfill(ctx, res.Visible)

	s.logger.Debug(ctx, "poll reconciled",
		logger.Int("raw", len(raw)),
		logger.Int("live", len(pools.Live)),
		logger.Int("hidden", len(pools.Hidden)),
		logger.Bool("filtered_empty", pools.FilteredEmpty),
		logger.Bool("changed", res.Changed),
	)
	if res.Changed {
		s.apply(ctx, res.Visible, res.Focused, model.ReasonPoll)
	}
	return res, nil
}

// enrichBackfill looks up PBs for hidden-pool runs that made it into
// visible. PBs do not affect order or change detection.
func (s *Service) enrichBackfill(ctx context.Context, visible []model.NormalizedRun) {
	var idx []int
	for i := range visible {
		if visible[i].Hidden && visible[i].PersonalBestSeconds == nil {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}
	picked := make([]model.NormalizedRun, len(idx))
	for j, i := range idx {
		picked[j] = visible[i]
	}
	picked = s.pb.EnrichAll(ctx, picked)
	for j, i := range idx {
		visible[i] = picked[j]
	}
}

// Rescore re-ranks the visible set at now and publishes an update when
// the order changed. Scores are refreshed either way.
func (s *Service) Rescore(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	cur := s.visible
	next := ranking.Rescore(cur, now)
	if !ranking.OrderChanged(cur, next) {
		s.visible = next
		s.mu.Unlock()
		metrics.RecordRescoreTick("unchanged")
		return false
	}
	u := s.installLocked(next, nil, model.ReasonRescore)
	s.mu.Unlock()

	metrics.RecordRescoreTick("reordered")
	s.emit(ctx, u)
	return true
}

// apply installs a new visible set, persists it and publishes it.
func (s *Service) apply(ctx context.Context, visible []model.NormalizedRun, focused []string, reason string) {
	s.mu.Lock()
	u := s.installLocked(visible, focused, reason)
	s.mu.Unlock()
	s.emit(ctx, u)
}

// installLocked replaces the state; a nil focused keeps the current focus.
func (s *Service) installLocked(visible []model.NormalizedRun, focused []string, reason string) model.Update {
	s.sequence++
	s.visible = visible
	if focused != nil {
		s.focused = focused
	}
	s.updatedAt = s.now()
	s.changes++
	return s.currentLocked(reason)
}

func (s *Service) emit(ctx context.Context, u model.Update) { //nolint:gocritic // hugeParam: published by value
	metrics.RecordVisibleChange()
	metrics.UpdateVisibleSize(len(u.Visible))
	s.logger.Info(ctx, "visible set updated",
		logger.String("reason", u.Reason),
		logger.Int64("sequence", int64(u.Sequence)),
		logger.Strings("visible", model.Accounts(u.Visible)),
		logger.Strings("focused", u.Focused),
	)

	if s.store != nil {
		snap := repository.Snapshot{Sequence: u.Sequence, Visible: u.Visible, Focused: u.Focused, UpdatedAt: u.At}
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			metrics.RecordErrorByComponent("service", "snapshot_save")
			s.logger.Warn(ctx, "snapshot save failed", logger.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.Publish(ctx, u)
	}
}

func (s *Service) currentLocked(reason string) model.Update {
	return model.Update{
		Sequence: s.sequence,
		Reason:   reason,
		Visible:  model.CloneRuns(s.visible),
		Focused:  append([]string{}, s.focused...),
		At:       s.updatedAt,
	}
}

// Current returns a copy of the visible set.
func (s *Service) Current() model.Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked(model.ReasonSnapshot)
}

// Settings returns the active visibility policy.
func (s *Service) Settings() ranking.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// CacheStats returns PB cache statistics.
func (s *Service) CacheStats() pbcache.Stats {
	return s.pb.Stats()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"sequence":         s.sequence,
		"visible":          len(s.visible),
		"focused":          append([]string{}, s.focused...),
		"polls":            s.polls,
		"changes":          s.changes,
		"poll_interval":    s.pollInterval.String(),
		"rescore_interval": s.rescoreInterval.String(),
		"filter_active":    s.settings.FilterActive(),
	}
	if !s.lastPoll.IsZero() {
		stats["last_poll_at"] = s.lastPoll
	}
	if !s.updatedAt.IsZero() {
		stats["updated_at"] = s.updatedAt
	}
	if s.lastErr != nil {
		stats["last_error"] = s.lastErr.Error()
	}
	return stats
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, paceman.ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, paceman.ErrUpstreamStatus):
		return "upstream_status"
	case errors.Is(err, paceman.ErrDecode):
		return "decode"
	case errors.Is(err, ErrNoFeed):
		return "no_feed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "fetch"
	}
}

package service

import (
	"time"

	"github.com/okian/pacegrid/internal/adapters/paceman"
	"github.com/okian/pacegrid/internal/adapters/repository"
	"github.com/okian/pacegrid/internal/domain/pbcache"
	"github.com/okian/pacegrid/internal/domain/ranking"
	"github.com/okian/pacegrid/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFeed sets the live-runs source.
func WithFeed(f paceman.LiveRunsSource) Option {
	return func(s *Service) {
		s.feed = f
	}
}

// WithPBLookup sets the PB backend used when no cache is given.
func WithPBLookup(l pbcache.Lookup) Option {
	return func(s *Service) {
		s.pbLookup = l
	}
}

// WithPBCache sets a preconfigured PB cache.
func WithPBCache(c *pbcache.Cache) Option {
	return func(s *Service) {
		s.pb = c
	}
}

// WithStore sets the snapshot store.
func WithStore(st repository.SnapshotStore) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithHub sets where updates are published.
func WithHub(p Publisher) Option {
	return func(s *Service) {
		s.hub = p
	}
}

// WithSettings sets the visibility policy.
func WithSettings(st ranking.Settings) Option {
	return func(s *Service) {
		s.settings = st
	}
}

// WithPollInterval sets the feed polling period.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithRescoreInterval sets the live re-score period.
func WithRescoreInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.rescoreInterval = d
		}
	}
}

// WithClock injects the time source used for scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

package testfeed

import (
	"time"

	"github.com/okian/pacegrid/pkg/logger"
)

// Option configures the Server.
type Option func(*Server)

// WithRunners sets how many synthetic runners are generated.
func WithRunners(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.numRunners = n
		}
	}
}

// WithSeed fixes the pace and PB generator seed.
func WithSeed(seed uint64) Option {
	return func(s *Server) {
		s.seed = seed
	}
}

// WithEventID enables the event-scoped feed for id.
func WithEventID(id string) Option {
	return func(s *Server) {
		s.eventID = id
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

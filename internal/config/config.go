// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and PACEGRID_ env vars on top.
// - Errors returned by this package wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pacegrid/internal/domain/feed"
	"github.com/okian/pacegrid/internal/domain/ranking"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the slog handler: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FeedURL is the public live-runs endpoint.
	FeedURL string `koanf:"feed_url"`
	// BackendURL serves PB lookups and event-scoped feeds.
	BackendURL string `koanf:"backend_url"`
	// EventID switches the feed to the event-scoped backend when set.
	EventID string `koanf:"event_id"`

	PollInterval    time.Duration `koanf:"poll_interval"`
	RescoreInterval time.Duration `koanf:"rescore_interval"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`

	PBCacheTTL      time.Duration `koanf:"pb_cache_ttl"`
	PBConcurrency   int           `koanf:"pb_concurrency"`
	PBRatePerSecond float64       `koanf:"pb_rate_per_second"`

	// RedisAddr enables the Redis snapshot store when non-empty.
	RedisAddr string `koanf:"redis_addr"`
	RedisKey  string `koanf:"redis_key"`

	// SQLitePath enables the persistent PB cache when non-empty.
	SQLitePath string `koanf:"sqlite_path"`

	MaxFocussedChannels int `koanf:"max_focussed_channels"`
	MinTotalChannels    int `koanf:"min_total_channels"`
	MaxTotalChannels    int `koanf:"max_total_channels"`

	// FilteredRunners and AlwaysShowAccounts accept comma or newline
	// separated names; "name:comment" entries keep only the name.
	FilteredRunners    []string `koanf:"filtered_runners"`
	AlwaysShowAccounts []string `koanf:"always_show_accounts"`
	FilteringEnabled   bool     `koanf:"filtering_enabled"`
	IncludeCheated     bool     `koanf:"include_cheated"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	st := ranking.DefaultSettings()
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		Addr:                ":9080",
		FeedURL:             "https://paceman.gg/api/ars/liveruns",
		BackendURL:          "http://localhost:3001",
		PollInterval:        10 * time.Second,
		RescoreInterval:     time.Second,
		RequestTimeout:      10 * time.Second,
		PBCacheTTL:          time.Hour,
		PBConcurrency:       8,
		PBRatePerSecond:     5,
		RedisKey:            "pacegrid:visible",
		MaxFocussedChannels: st.MaxFocussedChannels,
		MinTotalChannels:    st.MinTotalChannels,
		MaxTotalChannels:    st.MaxTotalChannels,
		FilteringEnabled:    st.FilteringEnabled,
	}
}

// Validate checks fields that Load cannot coerce.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventID == "" && c.FeedURL == "":
		return fmt.Errorf("%w: feed_url must not be empty", ErrInvalidConfig)
	case c.BackendURL == "":
		return fmt.Errorf("%w: backend_url must not be empty", ErrInvalidConfig)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	case c.RescoreInterval <= 0:
		return fmt.Errorf("%w: rescore_interval must be positive", ErrInvalidConfig)
	case c.PBCacheTTL <= 0:
		return fmt.Errorf("%w: pb_cache_ttl must be positive", ErrInvalidConfig)
	case c.PBConcurrency <= 0:
		return fmt.Errorf("%w: pb_concurrency must be positive", ErrInvalidConfig)
	case c.PBRatePerSecond < 0:
		return fmt.Errorf("%w: pb_rate_per_second must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Settings(); err != nil {
		return err
	}
	return nil
}

// Settings resolves the ranking policy.
func (c *Config) Settings() (ranking.Settings, error) {
	st := ranking.Settings{
		MaxFocussedChannels: c.MaxFocussedChannels,
		MinTotalChannels:    c.MinTotalChannels,
		MaxTotalChannels:    c.MaxTotalChannels,
		FilteredRunners:     feed.ParseRunnerList(c.FilteredRunners...),
		AlwaysShowAccounts:  feed.ParseRunnerList(c.AlwaysShowAccounts...),
		FilteringEnabled:    c.FilteringEnabled,
		IncludeCheated:      c.IncludeCheated,
	}
	if err := st.Validate(); err != nil {
		return ranking.Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return st, nil
}

package ranking

import (
	"fmt"

	"github.com/okian/pacegrid/internal/domain/feed"
)

// Settings are the caller-owned visibility policies.
type Settings struct {
	MaxFocussedChannels int `json:"max_focussed_channels"`
	MinTotalChannels    int `json:"min_total_channels"`
	MaxTotalChannels    int `json:"max_total_channels"`
	// FilteredRunners are Minecraft names; when filtering is enabled only
	// these runners are eligible.
	FilteredRunners []string `json:"filtered_runners"`
	// AlwaysShowAccounts are streaming accounts appended as placeholders
	// when the grid is short.
	AlwaysShowAccounts []string `json:"always_show_accounts"`
	FilteringEnabled   bool     `json:"filtering_enabled"`
	IncludeCheated     bool     `json:"include_cheated"`
}

// DefaultSettings returns the stock grid policy.
func DefaultSettings() Settings {
	return Settings{
		MaxFocussedChannels: 1,
		MinTotalChannels:    3,
		MaxTotalChannels:    3,
		FilteringEnabled:    true,
	}
}

// Validate checks channel limits.
func (s Settings) Validate() error {
	switch {
	case s.MaxFocussedChannels < 0:
		return fmt.Errorf("%w: max_focussed_channels %d < 0", ErrInvalidSettings, s.MaxFocussedChannels)
	case s.MinTotalChannels < 0:
		return fmt.Errorf("%w: min_total_channels %d < 0", ErrInvalidSettings, s.MinTotalChannels)
	case s.MaxTotalChannels <= 0:
		return fmt.Errorf("%w: max_total_channels %d <= 0", ErrInvalidSettings, s.MaxTotalChannels)
	case s.MinTotalChannels > s.MaxTotalChannels:
		return fmt.Errorf("%w: min_total_channels %d > max_total_channels %d",
			ErrInvalidSettings, s.MinTotalChannels, s.MaxTotalChannels)
	}
	return nil
}

// FilterActive reports whether the runner filter applies.
func (s Settings) FilterActive() bool {
	return s.FilteringEnabled && len(s.FilteredRunners) > 0
}

// FeedOptions derives the normalizer options.
func (s Settings) FeedOptions() feed.Options {
	return feed.Options{
		Filter:           s.FilteredRunners,
		FilteringEnabled: s.FilteringEnabled,
		IncludeCheated:   s.IncludeCheated,
	}
}

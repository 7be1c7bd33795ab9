// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/pacegrid/internal/domain/split"
)

// MilestoneEvent is a progress marker emitted by the live-runs feed.
// RTA and IGT are milliseconds.
type MilestoneEvent struct {
	EventID string `json:"eventId"`
	RTA     int64  `json:"rta"`
	IGT     int64  `json:"igt"`
}

// RunUser identifies the runner and their streaming account.
type RunUser struct {
	UUID        string  `json:"uuid"`
	LiveAccount *string `json:"liveAccount"`
	Username    string  `json:"username,omitempty"`
}

// RawRun is one entry of the upstream live-runs feed.
type RawRun struct {
	EventList   []MilestoneEvent `json:"eventList"`
	User        RunUser          `json:"user"`
	Nickname    string           `json:"nickname"`
	IsHidden    bool             `json:"isHidden"`
	IsCheated   bool             `json:"isCheated"`
	LastUpdated int64            `json:"lastUpdated"`

	// PB is pre-populated only by the event-scoped backend for placeholder entries.
	PB *float64 `json:"pb,omitempty"`
}

// SplitEvents adapts the event list for split.Extract.
func (r *RawRun) SplitEvents() []split.Event {
	out := make([]split.Event, len(r.EventList))
	for i, e := range r.EventList {
		out[i] = split.Event{EventID: e.EventID, IGT: e.IGT}
	}
	return out
}

// Score is the adjusted-time ranking value. Lower Value ranks first.
type Score struct {
	Value                   float64         `json:"value"`
	UsedMilestone           split.Milestone `json:"usedMilestone"`
	CurrentMilestoneValue   float64         `json:"currentMilestoneValue"`
	NextMilestone           split.Milestone `json:"nextMilestone"`
	NextMilestoneValue      *float64        `json:"nextMilestoneValue"`
	EstimatedElapsedSeconds *float64        `json:"estimatedElapsedSeconds"`
}

// NormalizedRun is a runner record rebuilt on every poll cycle.
type NormalizedRun struct {
	LiveAccount         string          `json:"liveAccount"`
	DisplayName         string          `json:"displayName"`
	MinecraftName       string          `json:"minecraftName"`
	Milestone           split.Milestone `json:"milestone"`
	ElapsedSeconds      *float64        `json:"elapsedSeconds"`
	LastUpdated         *int64          `json:"lastUpdated"`
	PersonalBestSeconds *float64        `json:"personalBestSeconds"`
	Score               Score           `json:"score"`

	// Hidden marks runs taken from the hidden/cheated fallback pool.
	Hidden bool `json:"hidden,omitempty"`
	// Placeholder marks always-show accounts with no live feed data.
	Placeholder bool `json:"placeholder,omitempty"`
}

// HasProgress reports whether the run carries enough data to be re-scored.
func (r *NormalizedRun) HasProgress() bool {
	return r.Milestone.Valid() && r.ElapsedSeconds != nil && *r.ElapsedSeconds != 0 &&
		r.LastUpdated != nil && *r.LastUpdated != 0
}

// PBKey is the PB cache key: lowercased Minecraft name, else display name.
func (r *NormalizedRun) PBKey() string {
	if r.MinecraftName != "" {
		return lower(r.MinecraftName)
	}
	return lower(r.DisplayName)
}

// Result is the output of one reconciliation.
type Result struct {
	Visible []NormalizedRun `json:"visible"`
	Focused []string        `json:"focused"`
	Changed bool            `json:"changed"`
}

// Update reasons.
const (
	ReasonPoll     = "poll"
	ReasonRescore  = "rescore"
	ReasonSnapshot = "snapshot"
)

// Update is what subscribers receive when the visible set changes.
type Update struct {
	Sequence uint64          `json:"sequence"`
	Reason   string          `json:"reason"`
	Visible  []NormalizedRun `json:"visible"`
	Focused  []string        `json:"focused"`
	At       time.Time       `json:"at"`
}

// Package split defines run milestones and derives a runner's current
// milestone from the cumulative event list reported by the feed.
package split

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Milestone is a progress checkpoint. The zero value means "none reached".
type Milestone int

// Milestones in progression order.
const (
	None Milestone = iota
	Nether
	S1
	S2
	Blind
	Stronghold
	EndEnter
	Finish
)

// Feed event identifiers.
const (
	EventEnterNether     = "rsg.enter_nether"
	EventEnterBastion    = "rsg.enter_bastion"
	EventEnterFortress   = "rsg.enter_fortress"
	EventFirstPortal     = "rsg.first_portal"
	EventEnterStronghold = "rsg.enter_stronghold"
	EventEnterEnd        = "rsg.enter_end"
)

const msPerSecond = 1000.0

type params struct {
	name             string
	goodSplitSeconds float64
	progressionBonus float64
}

var table = map[Milestone]params{
	Nether:     {"NETHER", 90, -0.1},
	S1:         {"S1", 120, 0.1},
	S2:         {"S2", 240, 0.7},
	Blind:      {"BLIND", 300, 0.8},
	Stronghold: {"STRONGHOLD", 400, 0.85},
	EndEnter:   {"END ENTER", 420, 0.9},
	Finish:     {"FINISH", 600, 1.0},
}

// Event is the subset of a feed event the extractor reads.
type Event struct {
	EventID string
	IGT     int64
}

// Valid reports whether m is a real milestone.
func (m Milestone) Valid() bool {
	_, ok := table[m]
	return ok
}

// String returns the display name used by the feed UI, e.g. "END ENTER".
func (m Milestone) String() string {
	if p, ok := table[m]; ok {
		return p.name
	}
	return ""
}

// GoodSplitSeconds is the reference completion time for m.
func (m Milestone) GoodSplitSeconds() float64 {
	return table[m].goodSplitSeconds
}

// ProgressionBonus rewards reaching later milestones.
func (m Milestone) ProgressionBonus() float64 {
	return table[m].progressionBonus
}

// Next returns the successor of m, or false when m is last or invalid.
func (m Milestone) Next() (Milestone, bool) {
	if !m.Valid() || m == Finish {
		return None, false
	}
	return m + 1, true
}

// Parse maps a display name back to a milestone. Empty input yields None.
func Parse(name string) (Milestone, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for m, p := range table {
		if p.name == name {
			return m, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownMilestone, name)
}

// MarshalJSON encodes m by name; None encodes as null.
func (m Milestone) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a milestone name or null.
func (m *Milestone) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = None
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("decode milestone: %w", err)
	}
	parsed, err := Parse(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Extract returns the latest milestone reached and its in-game time in
// seconds. Event lists are cumulative, so later milestones are tested first.
// Runners with no tracked event get None and nil.
func Extract(events []Event) (Milestone, *float64) {
	igt := make(map[string]int64, len(events))
	for _, e := range events {
		if _, seen := igt[e.EventID]; !seen {
			igt[e.EventID] = e.IGT
		}
	}

	seconds := func(ms int64) *float64 {
		s := float64(ms) / msPerSecond
		return &s
	}

	if t, ok := igt[EventEnterEnd]; ok {
		return EndEnter, seconds(t)
	}
	if t, ok := igt[EventEnterStronghold]; ok {
		return Stronghold, seconds(t)
	}
	if t, ok := igt[EventFirstPortal]; ok {
		return Blind, seconds(t)
	}

	fortress, hasFortress := igt[EventEnterFortress]
	bastion, hasBastion := igt[EventEnterBastion]
	switch {
	case hasFortress && hasBastion:
		return S2, seconds(max(fortress, bastion))
	case hasFortress:
		return S1, seconds(fortress)
	case hasBastion:
		return S1, seconds(bastion)
	}

	if t, ok := igt[EventEnterNether]; ok {
		return Nether, seconds(t)
	}
	return None, nil
}

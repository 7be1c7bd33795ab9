// Package ranking selects and orders the visible channel set and decides
// whether it changed since the previous cycle.
package ranking

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/pacegrid/internal/domain/feed"
	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/scoring"
)

// Input is one cycle's enriched feed data.
type Input struct {
	Live          []model.NormalizedRun
	Hidden        []model.NormalizedRun
	FilteredEmpty bool
}

// InputFromPools adapts normalizer output.
func InputFromPools(p feed.Pools) Input {
	return Input{Live: p.Live, Hidden: p.Hidden, FilteredEmpty: p.FilteredEmpty}
}

// Reconcile builds the visible set from the live pool, backfilling from
// prev, the hidden pool and always-show accounts until MinTotalChannels is
// reached, then caps it at MaxTotalChannels.
func Reconcile(in Input, prev []model.NormalizedRun, s Settings, now time.Time) model.Result {
	if in.FilteredEmpty {
		return model.Result{Visible: []model.NormalizedRun{}, Focused: []string{}, Changed: true}
	}

	visible := make([]model.NormalizedRun, 0, len(in.Live)+s.MinTotalChannels)
	for i := range in.Live {
		r := in.Live[i]
		r.Score = scoring.Run(&r, now)
		visible = append(visible, r)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return scoring.Less(visible[i].Score, visible[j].Score)
	})

	included := make(map[string]struct{}, len(visible))
	for i := range visible {
		included[strings.ToLower(visible[i].LiveAccount)] = struct{}{}
	}
	add := func(r model.NormalizedRun) bool {
		if len(visible) >= s.MinTotalChannels {
			return false
		}
		key := strings.ToLower(r.LiveAccount)
		if _, ok := included[key]; ok {
			return true
		}
		r.Score = scoring.Run(&r, now)
		visible = append(visible, r)
		included[key] = struct{}{}
		return true
	}

	for i := range prev {
		if s.FilterActive() && !feed.Matches(s.FilteredRunners, prev[i].MinecraftName) {
			continue
		}
		if !add(prev[i]) {
			break
		}
	}
	for i := range in.Hidden {
		if !add(in.Hidden[i]) {
			break
		}
	}
	for _, account := range s.AlwaysShowAccounts {
		if !add(placeholder(account)) {
			break
		}
	}

	if s.MaxTotalChannels > 0 && len(visible) > s.MaxTotalChannels {
		visible = visible[:s.MaxTotalChannels]
	}

	return model.Result{
		Visible: visible,
		Focused: Focused(visible, s.MaxFocussedChannels),
		Changed: s.FilterActive() || Changed(prev, visible),
	}
}

func placeholder(account string) model.NormalizedRun {
	account = strings.ToLower(strings.TrimSpace(account))
	return model.NormalizedRun{
		LiveAccount: account,
		DisplayName: account,
		Placeholder: true,
	}
}

// Focused returns the first limit accounts of visible.
func Focused(visible []model.NormalizedRun, limit int) []string {
	n := max(min(limit, len(visible)), 0)
	return model.Accounts(visible[:n])
}

// Changed reports whether next differs from prev in account order, or any
// runner present in both changed milestone or elapsed time.
func Changed(prev, next []model.NormalizedRun) bool {
	if OrderChanged(prev, next) {
		return true
	}
	byAccount := make(map[string]*model.NormalizedRun, len(prev))
	for i := range prev {
		byAccount[prev[i].LiveAccount] = &prev[i]
	}
	for i := range next {
		old, ok := byAccount[next[i].LiveAccount]
		if !ok {
			continue
		}
		if old.Milestone != next[i].Milestone || !sameFloat(old.ElapsedSeconds, next[i].ElapsedSeconds) {
			return true
		}
	}
	return false
}

// OrderChanged reports whether the account sequences differ.
func OrderChanged(prev, next []model.NormalizedRun) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if prev[i].LiveAccount != next[i].LiveAccount {
			return true
		}
	}
	return false
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Rescore recomputes scores at now for runs with full progress data and
// re-sorts those runs among the positions they occupy. Other runs keep
// their index. The input is not modified.
func Rescore(visible []model.NormalizedRun, now time.Time) []model.NormalizedRun {
	out := model.CloneRuns(visible)
	var slots []int
	var scored []model.NormalizedRun
	for i := range out {
		if !out[i].HasProgress() {
			continue
		}
		out[i].Score = scoring.Run(&out[i], now)
		slots = append(slots, i)
		scored = append(scored, out[i])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scoring.Less(scored[i].Score, scored[j].Score)
	})
	for k, idx := range slots {
		out[idx] = scored[k]
	}
	return out
}

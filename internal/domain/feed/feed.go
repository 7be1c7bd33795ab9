// Package feed turns raw live-run feed entries into normalized runner
// records split into a primary live pool and a hidden fallback pool.
package feed

import (
	"slices"
	"strings"

	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/split"
)

// Options controls pool partitioning and name filtering.
type Options struct {
	// Filter holds Minecraft names; see ParseRunnerList.
	Filter           []string
	FilteringEnabled bool
	// IncludeCheated keeps cheated (but not hidden) runs in the live pool.
	IncludeCheated bool
}

// FilterActive reports whether the name filter applies.
func (o Options) FilterActive() bool {
	return o.FilteringEnabled && len(o.Filter) > 0
}

// Pools is the output of Normalize.
type Pools struct {
	Live   []model.NormalizedRun
	Hidden []model.NormalizedRun
	// FilteredEmpty is set when an active filter matched nothing in either
	// pool. Callers must show an empty grid rather than unfiltered data.
	FilteredEmpty bool
	FilterActive  bool
}

// Normalize partitions raw into live and hidden pools, applies the name
// filter and extracts milestones. Entries without a live account are
// dropped. Accounts are compared case-insensitively: a repeated account
// keeps its first entry per pool, and a live entry always wins over a
// hidden one.
func Normalize(raw []model.RawRun, opts Options) Pools {
	active := opts.FilterActive()
	out := Pools{FilterActive: active}
	liveSeen := make(map[string]struct{}, len(raw))
	hiddenSeen := make(map[string]struct{})

	for i := range raw {
		r := &raw[i]
		if r.User.LiveAccount == nil || strings.TrimSpace(*r.User.LiveAccount) == "" {
			continue
		}
		if active && !Matches(opts.Filter, r.Nickname) {
			continue
		}
		key := accountKey(*r.User.LiveAccount)

		if isLive(r, opts.IncludeCheated) {
			if _, dup := liveSeen[key]; dup {
				continue
			}
			liveSeen[key] = struct{}{}
			out.Live = append(out.Live, NormalizeRun(r))
			continue
		}
		if _, dup := hiddenSeen[key]; dup {
			continue
		}
		hiddenSeen[key] = struct{}{}
		out.Hidden = append(out.Hidden, hiddenRun(r))
	}

	if len(out.Hidden) > 0 && len(liveSeen) > 0 {
		out.Hidden = slices.DeleteFunc(out.Hidden, func(r model.NormalizedRun) bool {
			_, ok := liveSeen[accountKey(r.LiveAccount)]
			return ok
		})
	}

	out.FilteredEmpty = active && len(out.Live) == 0 && len(out.Hidden) == 0
	return out
}

func accountKey(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

func isLive(r *model.RawRun, includeCheated bool) bool {
	if r.IsHidden {
		return false
	}
	return includeCheated || !r.IsCheated
}

// NormalizeRun maps one raw entry through the split extractor.
func NormalizeRun(r *model.RawRun) model.NormalizedRun {
	n := baseRun(r)
	n.Milestone, n.ElapsedSeconds = split.Extract(r.SplitEvents())
	return n
}

// hiddenRun keeps identity and PB data only; hidden and cheated progress is
// never ranked.
func hiddenRun(r *model.RawRun) model.NormalizedRun {
	n := baseRun(r)
	n.Hidden = true
	return n
}

func baseRun(r *model.RawRun) model.NormalizedRun {
	account := *r.User.LiveAccount
	display := r.User.Username
	if display == "" {
		display = account
	}
	n := model.NormalizedRun{
		LiveAccount:   account,
		DisplayName:   display,
		MinecraftName: r.Nickname,
	}
	if r.LastUpdated != 0 {
		lu := r.LastUpdated
		n.LastUpdated = &lu
	}
	if r.PB != nil {
		pb := *r.PB
		n.PersonalBestSeconds = &pb
	}
	return n
}

// Matches reports whether name equals any entry of filter, ignoring case.
// An empty name never matches.
func Matches(filter []string, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, f := range filter {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// ParseRunnerList parses runner names. Each entry may span several lines;
// a line in bot-export form "name:12/34/56" contributes only "name".
// Blank lines are dropped.
func ParseRunnerList(entries ...string) []string {
	var out []string
	for _, entry := range entries {
		for _, line := range strings.Split(entry, "\n") {
			if i := strings.IndexByte(line, ':'); i > 0 {
				line = line[:i]
			}
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

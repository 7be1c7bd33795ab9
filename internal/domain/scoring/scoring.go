// Package scoring computes the adjusted-time score used to rank runners
// who are at different milestones. Lower scores rank first.
package scoring

import (
	"math"
	"time"

	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/split"
)

const msPerSecond = 1000.0

// Worst is the sentinel for runners without usable progress data.
var Worst = math.Inf(1)

// Compute scores a runner at milestone m with elapsed in-game seconds.
//
// When lastUpdated (epoch ms) is known, wall-clock time since that update
// is added to elapsed and scored against the next milestone; the final
// value is the larger of the two so imminent progress never scores better
// than the current milestone allows.
func Compute(m split.Milestone, elapsed *float64, lastUpdated *int64, now time.Time) model.Score {
	if !m.Valid() || elapsed == nil || *elapsed == 0 {
		return model.Score{Value: Worst}
	}

	current := *elapsed/m.GoodSplitSeconds() - m.ProgressionBonus()
	out := model.Score{
		Value:                 current,
		UsedMilestone:         m,
		CurrentMilestoneValue: current,
	}

	if lastUpdated == nil || *lastUpdated == 0 {
		return out
	}

	next, ok := m.Next()
	if !ok {
		return out
	}

	sinceUpdate := float64(now.UnixMilli()-*lastUpdated) / msPerSecond
	estimated := *elapsed + sinceUpdate
	nextValue := estimated/next.GoodSplitSeconds() - next.ProgressionBonus()

	out.NextMilestone = next
	out.NextMilestoneValue = &nextValue
	out.EstimatedElapsedSeconds = &estimated
	if nextValue > current {
		out.Value = nextValue
		out.UsedMilestone = next
	}
	return out
}

// Run scores r at now.
func Run(r *model.NormalizedRun, now time.Time) model.Score {
	return Compute(r.Milestone, r.ElapsedSeconds, r.LastUpdated, now)
}

// Less orders scores ascending. Sentinel scores compare equal to each other.
func Less(a, b model.Score) bool {
	return a.Value < b.Value
}

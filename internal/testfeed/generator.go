// Package testfeed serves a synthetic live-runs feed and PB backend for
// local runs and integration tests.
package testfeed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/split"
)

// Route timings in seconds at pace 1.0.
var route = []struct {
	eventID string
	at      float64
}{
	{split.EventEnterNether, 90},
	{split.EventEnterBastion, 120},
	{split.EventEnterFortress, 240},
	{split.EventFirstPortal, 300},
	{split.EventEnterStronghold, 400},
	{split.EventEnterEnd, 420},
}

// Pace and reset ranges.
const (
	paceMin       = 0.7
	paceRange     = 0.6
	resetAfterEnd = 60 * time.Second
	rtaOverhead   = 1.05
	hiddenEvery   = 7
	pbMinSeconds  = 480.0
	pbRange       = 600.0
	noPBEvery     = 5
)

// Runner is one synthetic streamer replaying the route at a fixed pace.
type Runner struct {
	UUID     string
	Account  string
	Nickname string
	Pace     float64
	Start    time.Time
	Hidden   bool
	PB       *float64
}

// Generate creates n runners with unique uuids. Starts are spread over
// one cycle so the feed shows every milestone at once.
func Generate(n int, rnd *rand.Rand, now time.Time) []Runner {
	runners := make([]Runner, n)
	for i := range runners {
		pace := paceMin + rnd.Float64()*paceRange
		r := Runner{
			UUID:     uuid.New().String(),
			Account:  fmt.Sprintf("streamer%02d", i+1),
			Nickname: fmt.Sprintf("Runner%02d", i+1),
			Pace:     pace,
			Hidden:   i > 0 && i%hiddenEvery == 0,
		}
		r.Start = now.Add(-time.Duration(rnd.Float64() * float64(r.cycle())))
		if i%noPBEvery != noPBEvery-1 {
			pb := pbMinSeconds + rnd.Float64()*pbRange
			r.PB = &pb
		}
		runners[i] = r
	}
	return runners
}

func (r *Runner) cycle() time.Duration {
	end := route[len(route)-1].at * r.Pace
	return time.Duration(end*float64(time.Second)) + resetAfterEnd
}

// Elapsed is the in-game time of the current attempt at now.
func (r *Runner) Elapsed(now time.Time) time.Duration {
	d := now.Sub(r.Start)
	if d < 0 {
		return 0
	}
	return d % r.cycle()
}

// RawRun renders the runner as a feed entry at now. The event list holds
// every split already passed in the current attempt.
func (r *Runner) RawRun(now time.Time) model.RawRun {
	elapsed := r.Elapsed(now).Seconds()
	account := r.Account
	run := model.RawRun{
		User:     model.RunUser{UUID: r.UUID, LiveAccount: &account},
		Nickname: r.Nickname,
		IsHidden: r.Hidden,
	}

	var last float64
	for _, step := range route {
		at := step.at * r.Pace
		if at > elapsed {
			break
		}
		igt := int64(at * 1000)
		run.EventList = append(run.EventList, model.MilestoneEvent{
			EventID: step.eventID,
			IGT:     igt,
			RTA:     int64(float64(igt) * rtaOverhead),
		})
		last = at
	}
	if len(run.EventList) > 0 {
		since := time.Duration((elapsed - last) * float64(time.Second))
		run.LastUpdated = now.Add(-since).UnixMilli()
	}
	return run
}

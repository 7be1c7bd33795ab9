package model

import "strings"

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// CloneRuns returns a shallow copy of runs so callers can reorder freely.
func CloneRuns(runs []NormalizedRun) []NormalizedRun {
	if runs == nil {
		return nil
	}
	out := make([]NormalizedRun, len(runs))
	copy(out, runs)
	return out
}

// Accounts lists the live accounts of runs in order.
func Accounts(runs []NormalizedRun) []string {
	out := make([]string, len(runs))
	for i := range runs {
		out[i] = runs[i].LiveAccount
	}
	return out
}

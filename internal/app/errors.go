package service

import "errors"

// Sentinel errors for the service.
var (
	ErrPollInProgress = errors.New("poll already in progress")
	ErrNoFeed         = errors.New("no live-runs feed configured")
)

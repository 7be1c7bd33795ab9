package split

import "errors"

// Sentinel kinds for milestone errors.
var (
	ErrUnknownMilestone = errors.New("unknown milestone")
)

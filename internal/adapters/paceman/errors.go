package paceman

import "errors"

// Sentinel errors for upstream calls.
var (
	ErrUpstreamStatus = errors.New("upstream returned non-2xx status")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrPBUnavailable  = errors.New("pb unavailable")
	ErrDecode         = errors.New("decode upstream response")
)

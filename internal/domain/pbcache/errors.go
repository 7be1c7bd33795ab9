package pbcache

import "errors"

// ErrNoLookup is logged when a cache has no lookup backend.
var ErrNoLookup = errors.New("pb lookup not configured")

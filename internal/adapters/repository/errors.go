package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("snapshot not found")
	ErrCorruptRecord = errors.New("corrupt stored record")
)

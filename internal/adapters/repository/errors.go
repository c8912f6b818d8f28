package repository

import "errors"

// Sentinel kinds for progress store errors.
var (
	ErrNotFound = errors.New("progress record not found")
)

package persistence

import "errors"

var (
	// ErrNotFound is returned when no blob is stored under the requested key.
	ErrNotFound = errors.New("persistence: not found")
	// ErrClosed is returned by adapters used after Close.
	ErrClosed = errors.New("persistence: adapter closed")
)

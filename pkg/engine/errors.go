package engine

import "errors"

var (
	// ErrInvalidCount is returned for a non-positive suggestion count.
	ErrInvalidCount = errors.New("suggestion count must be positive")
	// ErrLayoutNotReady is returned when recognition is asked for before a
	// layout with keys was set.
	ErrLayoutNotReady = errors.New("keyboard layout not ready")
	// ErrStale is handed to a request callback when a newer request was
	// published before it finished.
	ErrStale = errors.New("superseded by a newer request")
	// ErrStopped is returned once the engine's pool has been stopped.
	ErrStopped = errors.New("engine stopped")
)

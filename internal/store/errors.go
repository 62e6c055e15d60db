package store

import "errors"

// Sentinel errors.
var (
	// ErrCorrupt reports stored rows that cannot be decoded back into the model.
	ErrCorrupt = errors.New("stored collection is corrupt")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

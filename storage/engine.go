package storage

import (
	"context"
	"errors"
)

// ErrUnavailable wraps I/O failures reported by an engine backend.
var ErrUnavailable = errors.New("storage engine unavailable")

// ErrCorruptValue is returned by [Load] when a stored value cannot be decoded.
var ErrCorruptValue = errors.New("storage value corrupt")

// ErrClosed is returned by engines used after Close.
var ErrClosed = errors.New("storage engine closed")

// Update is one observed state of a key. Value must be treated as read-only.
type Update struct {
	Value   []byte
	Present bool
}

// Engine is the persistence contract consumed by the session store.
type Engine interface {
	// Get returns the last value set for key; present is false if the key
	// was never set or was cleared.
	Get(ctx context.Context, key string) (value []byte, present bool, err error)

	// Set stores value under key. present=false clears the key.
	Set(ctx context.Context, key string, value []byte, present bool) error

	// Observe pushes the current state of key, then every later Set of key,
	// until ctx is cancelled. The channel is closed afterwards.
	Observe(ctx context.Context, key string) (<-chan Update, error)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

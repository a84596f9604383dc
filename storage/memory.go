package storage

import (
	"context"
	"sync"
)

// MemoryEngine is a volatile Engine storing values in a process local map.
// It is safe for concurrent access and best suited for tests or ephemeral
// stores. Values are copied on the way in and out.
type MemoryEngine struct {
	mu       sync.Mutex
	values   map[string][]byte
	notifier *notifier
	closed   bool
	done     chan struct{}
}

// NewMemoryEngine constructs an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		values:   make(map[string][]byte),
		notifier: newNotifier(),
		done:     make(chan struct{}),
	}
}

// Get implements Engine.
func (e *MemoryEngine) Get(_ context.Context, key string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false, ErrClosed
	}
	v, ok := e.values[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

// Set implements Engine.
func (e *MemoryEngine) Set(_ context.Context, key string, value []byte, present bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	u := Update{Present: present}
	if present {
		stored := cloneBytes(value)
		if stored == nil {
			stored = []byte{}
		}
		e.values[key] = stored
		u.Value = cloneBytes(stored)
	} else {
		delete(e.values, key)
	}

	e.notifier.publish(key, u)
	return nil
}

// Observe implements Engine.
func (e *MemoryEngine) Observe(ctx context.Context, key string) (<-chan Update, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	current := Update{}
	if v, ok := e.values[key]; ok {
		current = Update{Value: cloneBytes(v), Present: true}
	}

	sub := e.notifier.subscribe(key, current)
	watch(ctx, e.done, e.notifier, key, sub, e.mu.Lock, e.mu.Unlock)
	return sub.ch, nil
}

// Keys returns the number of stored keys.
func (e *MemoryEngine) Keys() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.values)
}

// Close terminates all observers and rejects later calls.
func (e *MemoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)
	e.notifier.closeAll()
	return nil
}

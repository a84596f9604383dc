package storage

import (
	"context"
	"fmt"
)

// Codec converts typed values to and from their stored form.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// Key is a typed engine key.
type Key[T any] struct {
	Name  string
	Codec Codec[T]
}

// NewKey builds a typed key.
func NewKey[T any](name string, codec Codec[T]) Key[T] {
	return Key[T]{Name: name, Codec: codec}
}

// Load reads and decodes key. A value that fails to decode is reported as
// ErrCorruptValue together with present=false.
func Load[T any](ctx context.Context, e Engine, key Key[T]) (T, bool, error) {
	var zero T

	raw, present, err := e.Get(ctx, key.Name)
	if err != nil || !present {
		return zero, false, err
	}

	v, err := key.Codec.Decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("%w: %s: %v", ErrCorruptValue, key.Name, err)
	}
	return v, true, nil
}

// Store encodes v and writes it under key.
func Store[T any](ctx context.Context, e Engine, key Key[T], v T) error {
	raw, err := key.Codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.Name, err)
	}
	return e.Set(ctx, key.Name, raw, true)
}

// Clear removes key.
func Clear[T any](ctx context.Context, e Engine, key Key[T]) error {
	return e.Set(ctx, key.Name, nil, false)
}

// DecodeUpdate decodes an observed update. Absent and undecodable values
// both report ok=false; corrupt is true for the latter.
func DecodeUpdate[T any](key Key[T], u Update) (v T, ok bool, corrupt bool) {
	if !u.Present {
		return v, false, false
	}
	decoded, err := key.Codec.Decode(u.Value)
	if err != nil {
		return v, false, true
	}
	return decoded, true, false
}

// StringCodec stores a string as its raw bytes.
type StringCodec struct{}

// Encode implements Codec.
func (StringCodec) Encode(s string) ([]byte, error) { return []byte(s), nil }

// Decode implements Codec.
func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }

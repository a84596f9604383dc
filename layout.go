package goLink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrEthical07/goLink/session"
	"github.com/MrEthical07/goLink/storage"
)

const (
	listKeySuffix   = "sessions"
	secretKeyPrefix = "secret."
)

// layout is the persisted representation of the session set. Methods that
// touch the engine run with the store lock held, except the transforms.
type layout interface {
	name() string
	listKey() string
	save(ctx context.Context, sess session.Session) error
	remove(ctx context.Context, sessionID, url string) error
	load(ctx context.Context) ([]session.Session, error)
	ids(ctx context.Context) ([]string, error)
	// scope narrows a read to url. Layouts without URLs return all sessions.
	scope(sessions []session.Session, url string) []session.Session
	// transform maps an update of the list key to sessions in stored order.
	// It reports false when the snapshot could not be assembled.
	transform(ctx context.Context, u storage.Update) ([]session.Session, bool)
	transformIDs(ctx context.Context, u storage.Update) ([]string, bool)
}

func newLayout(kind Layout, env layoutEnv) layout {
	if kind == LayoutSeparated {
		return newSeparatedLayout(env)
	}
	return newUnifiedLayout(env)
}

// layoutEnv is what a layout needs from the store.
type layoutEnv struct {
	engine  storage.Engine
	prefix  string
	metrics *Metrics
	log     *slog.Logger
}

// loadKey reads key, converting corrupt values to absent.
func loadKey[T any](ctx context.Context, env layoutEnv, key storage.Key[T]) (T, bool, error) {
	v, ok, err := storage.Load(ctx, env.engine, key)
	if err == nil {
		return v, ok, nil
	}
	if errors.Is(err, storage.ErrCorruptValue) {
		env.corrupt(ctx, key.Name)
		var zero T
		return zero, false, nil
	}
	return v, false, env.engineError(ctx, "load", key.Name, err)
}

func storeKey[T any](ctx context.Context, env layoutEnv, key storage.Key[T], v T) error {
	if err := storage.Store(ctx, env.engine, key, v); err != nil {
		return env.engineError(ctx, "store", key.Name, err)
	}
	return nil
}

func clearKey[T any](ctx context.Context, env layoutEnv, key storage.Key[T]) error {
	if err := storage.Clear(ctx, env.engine, key); err != nil {
		return env.engineError(ctx, "clear", key.Name, err)
	}
	return nil
}

// decodeKey decodes an observed update of key, converting corrupt values to absent.
func decodeKey[T any](ctx context.Context, env layoutEnv, key storage.Key[T], u storage.Update) (T, bool) {
	v, ok, corrupt := storage.DecodeUpdate(key, u)
	if corrupt {
		env.corrupt(ctx, key.Name)
	}
	return v, ok
}

func (env layoutEnv) corrupt(ctx context.Context, key string) {
	env.metrics.Inc(MetricCorruptValue)
	env.log.WarnContext(ctx, "stored value failed to decode, reading as absent", "key", key)
}

func (env layoutEnv) engineError(ctx context.Context, op, key string, err error) error {
	env.metrics.Inc(MetricEngineFailure)
	env.log.ErrorContext(ctx, "storage engine failure", "op", op, "key", key, "error", err)
	return fmt.Errorf("%w: %s %s: %w", ErrEngineUnavailable, op, key, err)
}

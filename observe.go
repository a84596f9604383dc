package goLink

import (
	"context"
	"fmt"
	"slices"

	"github.com/MrEthical07/goLink/internal/feed"
	"github.com/MrEthical07/goLink/session"
	"github.com/MrEthical07/goLink/storage"
)

// ObserveSessions returns a feed of the complete session set in stored
// order. The current set is pushed first; afterwards a snapshot is pushed
// whenever the session list key is written and the result differs from the
// previous push. The channel is closed when ctx is done. Received slices
// belong to the caller.
func (s *Store) ObserveSessions(ctx context.Context) (<-chan []session.Session, error) {
	return observe(ctx, s, s.layout.transform, session.EqualLists, slices.Clone[[]session.Session])
}

// ObserveSessionsFor is ObserveSessions scoped to the sessions owned by url
// and sorted by identifier descending.
func (s *Store) ObserveSessionsFor(ctx context.Context, url string) (<-chan []session.Session, error) {
	scoped := func(ctx context.Context, u storage.Update) ([]session.Session, bool) {
		all, ok := s.layout.transform(ctx, u)
		if !ok {
			return nil, false
		}
		out := s.layout.scope(all, url)
		session.SortByIDDesc(out)
		return out, true
	}
	return observe(ctx, s, scoped, session.EqualLists, slices.Clone[[]session.Session])
}

// ObserveSessionIDs returns a feed of the raw identifier list.
func (s *Store) ObserveSessionIDs(ctx context.Context) (<-chan []string, error) {
	return observe(ctx, s, s.layout.transformIDs, func(a, b []string) bool {
		return slices.Equal(a, b)
	}, slices.Clone[[]string])
}

func observe[T any](
	ctx context.Context,
	s *Store,
	transform func(context.Context, storage.Update) (T, bool),
	equal func(a, b T) bool,
	clone func(T) T,
) (<-chan T, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	key := s.layout.listKey()
	src, err := s.engine.Observe(ctx, key)
	if err != nil {
		s.metrics.Inc(MetricEngineFailure)
		s.log.ErrorContext(ctx, "observe failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: observe %s: %w", ErrEngineUnavailable, key, err)
	}

	s.metrics.Inc(MetricFeedOpened)
	return feed.Pipe(ctx, src, feed.Options[T]{
		Transform: transform,
		Equal:     equal,
		Clone:     clone,
		Buffer:    s.cfg.Observe.BufferSize,
		Hooks: feed.Hooks{
			Pushed:       func() { s.metrics.Inc(MetricFeedPush) },
			Deduplicated: func() { s.metrics.Inc(MetricFeedDeduplicated) },
		},
	}), nil
}

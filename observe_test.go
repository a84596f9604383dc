package goLink

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/MrEthical07/goLink/session"
	"github.com/MrEthical07/goLink/storage"
)

func TestObserveSessionsPushesCurrentStateFirst(t *testing.T) {
	forEachLayout(t, func(t *testing.T, layout Layout) {
		s, _ := newMemoryStore(t, layout)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		empty, err := s.ObserveSessions(ctx)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		first := waitFor(t, empty, func([]session.Session) bool { return true })
		if first == nil || len(first) != 0 {
			t.Fatalf("expected empty non-nil initial snapshot, got %#v", first)
		}

		mustSave(t, s, "s1", "secret1", WithURL(urlA))

		feed, err := s.ObserveSessions(ctx)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		got := waitFor(t, feed, func([]session.Session) bool { return true })
		if ids := idsOf(got); !slices.Equal(ids, []string{"s1"}) {
			t.Fatalf("expected current state first, got %v", ids)
		}
	})
}

func TestObserveSessionsFollowsMutations(t *testing.T) {
	forEachLayout(t, func(t *testing.T, layout Layout) {
		s, _ := newMemoryStore(t, layout)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed, err := s.ObserveSessions(ctx)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		waitFor(t, feed, func(v []session.Session) bool { return len(v) == 0 })

		mustSave(t, s, "s1", "secret1", WithURL(urlA))
		mustSave(t, s, "s2", "secret2", WithURL(urlA))
		waitFor(t, feed, func(v []session.Session) bool {
			return slices.Equal(idsOf(v), []string{"s1", "s2"})
		})

		mustDelete(t, s, "s1", urlA)
		waitFor(t, feed, func(v []session.Session) bool {
			return slices.Equal(idsOf(v), []string{"s2"})
		})
	})
}

func TestObserveDeduplicatesIdenticalResave(t *testing.T) {
	forEachLayout(t, func(t *testing.T, layout Layout) {
		s, _ := newMemoryStore(t, layout)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mustSave(t, s, "s1", "secret1", WithURL(urlA))

		feed, err := s.ObserveSessions(ctx)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		waitFor(t, feed, func(v []session.Session) bool { return len(v) == 1 })

		mustSave(t, s, "s1", "secret1", WithURL(urlA))
		expectNoPush(t, feed, 100*time.Millisecond)

		if s.MetricsSnapshot().Counters[MetricFeedDeduplicated] == 0 {
			t.Fatal("expected a deduplicated snapshot")
		}
	})
}

func TestObserveReceiverMayModifySnapshot(t *testing.T) {
	forEachLayout(t, func(t *testing.T, layout Layout) {
		s, _ := newMemoryStore(t, layout)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mustSave(t, s, "s1", "secret1", WithURL(urlA))
		mustSave(t, s, "s2", "secret2", WithURL(urlA))

		feed, err := s.ObserveSessions(ctx)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		got := waitFor(t, feed, func(v []session.Session) bool { return len(v) == 2 })
		got[0], got[1] = got[1], got[0]
		got[0].Secret = "changed"

		mustSave(t, s, "s2", "secret2", WithURL(urlA))
		expectNoPush(t, feed, 100*time.Millisecond)
	})
}

func TestObserveSecretRotationIsPushed(t *testing.T) {
	forEachLayout(t, func(t *testing.T, layout Layout) {
		s, _ := newMemoryStore(t, layout)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mustSave(t, s, "s1", "secret1", WithURL(urlA))
		feed, err := s.ObserveSessions(ctx)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		waitFor(t, feed, func(v []session.Session) bool { return len(v) == 1 })

		mustSave(t, s, "s1", "rotated", WithURL(urlA))
		waitFor(t, feed, func(v []session.Session) bool {
			return len(v) == 1 && v[0].Secret == "rotated"
		})
	})
}

func TestObserveSessionsForScopesAndSorts(t *testing.T) {
	s, _ := newMemoryStore(t, LayoutUnified)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := s.ObserveSessionsFor(ctx, urlA)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	waitFor(t, feed, func(v []session.Session) bool { return len(v) == 0 })

	mustSave(t, s, "a", "1", WithURL(urlA))
	mustSave(t, s, "z", "2", WithURL(urlB))
	mustSave(t, s, "c", "3", WithURL(urlA))

	waitFor(t, feed, func(v []session.Session) bool {
		return slices.Equal(idsOf(v), []string{"c", "a"})
	})

	// A write that only touches another URL produces an identical scoped
	// snapshot and is deduplicated.
	mustSave(t, s, "y", "4", WithURL(urlB))
	expectNoPush(t, feed, 100*time.Millisecond)
}

func TestObserveSessionsKeepsStoredOrder(t *testing.T) {
	s, _ := newMemoryStore(t, LayoutUnified)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mustSave(t, s, "a", "1", WithURL(urlA))
	mustSave(t, s, "c", "2", WithURL(urlA))
	mustSave(t, s, "b", "3", WithURL(urlA))

	feed, err := s.ObserveSessions(ctx)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	got := waitFor(t, feed, func([]session.Session) bool { return true })
	if ids := idsOf(got); !slices.Equal(ids, []string{"a", "c", "b"}) {
		t.Fatalf("expected stored order, got %v", ids)
	}
}

func TestObserveSessionIDs(t *testing.T) {
	forEachLayout(t, func(t *testing.T, layout Layout) {
		s, _ := newMemoryStore(t, layout)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed, err := s.ObserveSessionIDs(ctx)
		if err != nil {
			t.Fatalf("observe ids: %v", err)
		}
		waitFor(t, feed, func(v []string) bool { return len(v) == 0 })

		mustSave(t, s, "s1", "secret1", WithURL(urlA))
		mustSave(t, s, "s2", "secret2", WithURL(urlA))
		waitFor(t, feed, func(v []string) bool { return slices.Equal(v, []string{"s1", "s2"}) })
	})
}

func TestObserveSeparatedDropsPartialEntries(t *testing.T) {
	s, engine := newMemoryStore(t, LayoutSeparated)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mustSave(t, s, "s1", "secret1")

	feed, err := s.ObserveSessions(ctx)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	waitFor(t, feed, func(v []session.Session) bool { return len(v) == 1 })

	list := storage.NewKey[[]string](DefaultConfig().Storage.KeyPrefix+"sessions", session.IDListCodec{})
	if err := storage.Store(ctx, engine, list, []string{"s1", "s3"}); err != nil {
		t.Fatalf("write list: %v", err)
	}
	ids, _ := s.SessionIDs(ctx)
	if !slices.Equal(ids, []string{"s1", "s3"}) {
		t.Fatalf("unexpected raw list %v", ids)
	}
	expectNoPush(t, feed, 100*time.Millisecond)
}

func TestObserveCorruptValueReadsAsEmpty(t *testing.T) {
	s, engine := newMemoryStore(t, LayoutUnified)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mustSave(t, s, "s1", "secret1", WithURL(urlA))
	feed, err := s.ObserveSessions(ctx)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	waitFor(t, feed, func(v []session.Session) bool { return len(v) == 1 })

	if err := engine.Set(ctx, DefaultConfig().Storage.KeyPrefix+"sessions", []byte("garbage"), true); err != nil {
		t.Fatalf("set: %v", err)
	}
	waitFor(t, feed, func(v []session.Session) bool { return len(v) == 0 })
}

func TestObserveClosesOnCancel(t *testing.T) {
	forEachLayout(t, func(t *testing.T, layout Layout) {
		s, _ := newMemoryStore(t, layout)
		ctx, cancel := context.WithCancel(context.Background())

		feed, err := s.ObserveSessions(ctx)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		cancel()

		deadline := time.After(waitTimeout)
		for {
			select {
			case _, ok := <-feed:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("feed not closed after cancel")
			}
		}
	})
}

func TestObserveFeedMetrics(t *testing.T) {
	s, _ := newMemoryStore(t, LayoutUnified)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := s.ObserveSessions(ctx)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	waitFor(t, feed, func([]session.Session) bool { return true })

	snap := s.MetricsSnapshot()
	if snap.Counters[MetricFeedOpened] != 1 {
		t.Fatalf("expected one opened feed, got %d", snap.Counters[MetricFeedOpened])
	}
	if snap.Counters[MetricFeedPush] != 1 {
		t.Fatalf("expected one push, got %d", snap.Counters[MetricFeedPush])
	}
}

package goLink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goLink/session"
	"github.com/MrEthical07/goLink/storage"
)

const waitTimeout = 2 * time.Second

var testLayouts = []Layout{LayoutUnified, LayoutSeparated}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, layout Layout, engine storage.Engine) *Store {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Storage.Layout = layout
	cfg.Metrics.Enabled = true

	store, err := New().
		WithConfig(cfg).
		WithEngine(engine).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newMemoryStore(t *testing.T, layout Layout) (*Store, *storage.MemoryEngine) {
	t.Helper()
	engine := storage.NewMemoryEngine()
	t.Cleanup(func() { _ = engine.Close() })
	return newTestStore(t, layout, engine), engine
}

func forEachLayout(t *testing.T, fn func(t *testing.T, layout Layout)) {
	t.Helper()
	for _, layout := range testLayouts {
		t.Run(layout.String(), func(t *testing.T) {
			fn(t, layout)
		})
	}
}

func mustSave(t *testing.T, s *Store, id, secret string, opts ...SaveOption) {
	t.Helper()
	if err := s.Save(context.Background(), id, secret, opts...); err != nil {
		t.Fatalf("save %s: %v", id, err)
	}
}

func mustDelete(t *testing.T, s *Store, id, url string) {
	t.Helper()
	if err := s.Delete(context.Background(), id, url); err != nil {
		t.Fatalf("delete %s: %v", id, err)
	}
}

func mustSessions(t *testing.T, s *Store) []session.Session {
	t.Helper()
	out, err := s.Sessions(context.Background())
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	return out
}

// waitFor reads ch until pred accepts a value. Feeds conflate, so
// intermediate snapshots may be skipped.
func waitFor[T any](t *testing.T, ch <-chan T, pred func(T) bool) T {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatal("feed closed unexpectedly")
			}
			if pred(v) {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatal("timed out waiting for feed value")
			return zero
		}
	}
}

func expectNoPush[T any](t *testing.T, ch <-chan T, wait time.Duration) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected push: %+v", v)
		}
	case <-time.After(wait):
	}
}

func idsOf(sessions []session.Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ID)
	}
	return out
}

var errEngineDown = errors.New("engine down")

// failingEngine fails every call.
type failingEngine struct{}

func (failingEngine) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errEngineDown
}

func (failingEngine) Set(context.Context, string, []byte, bool) error {
	return errEngineDown
}

func (failingEngine) Observe(context.Context, string) (<-chan storage.Update, error) {
	return nil, errEngineDown
}

// recordingEngine records the key of every Set in order.
type recordingEngine struct {
	*storage.MemoryEngine

	mu   sync.Mutex
	sets []string
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{MemoryEngine: storage.NewMemoryEngine()}
}

func (e *recordingEngine) Set(ctx context.Context, key string, value []byte, present bool) error {
	e.mu.Lock()
	e.sets = append(e.sets, key)
	e.mu.Unlock()
	return e.MemoryEngine.Set(ctx, key, value, present)
}

func (e *recordingEngine) setKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sets...)
}

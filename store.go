package goLink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	internalaudit "github.com/MrEthical07/goLink/internal/audit"
	"github.com/MrEthical07/goLink/session"
	"github.com/MrEthical07/goLink/storage"
)

// Store is the session store. All reads and mutations are serialized by one
// lock; feeds run outside it.
type Store struct {
	cfg     Config
	engine  storage.Engine
	layout  layout
	mu      sync.Mutex
	metrics *Metrics
	audit   *internalaudit.Dispatcher
	log     *slog.Logger

	// owned is closed by Close when the Builder created the engine.
	owned  io.Closer
	closed atomic.Bool
}

// Save inserts or replaces the session identified by sessionID (and, in the
// unified layout, its URL). Sessions owned by other URLs are untouched.
func (s *Store) Save(ctx context.Context, sessionID, secret string, opts ...SaveOption) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	sess, err := buildSession(sessionID, secret, opts)
	if err != nil {
		s.metrics.Inc(MetricSessionSaveRejected)
		s.emitAudit(ctx, AuditEventSessionSaveRejected, sessionID, sess.URL, err)
		return err
	}

	start := time.Now()
	s.mu.Lock()
	err = s.layout.save(ctx, sess)
	s.mu.Unlock()
	s.metrics.Observe(MetricMutationLatency, time.Since(start))

	if errors.Is(err, ErrInvalidArgument) {
		s.metrics.Inc(MetricSessionSaveRejected)
		s.emitAudit(ctx, AuditEventSessionSaveRejected, sess.ID, sess.URL, err)
		return err
	}
	if err != nil {
		s.emitAudit(ctx, AuditEventSessionMutationError, sess.ID, sess.URL, err)
		return err
	}

	s.metrics.Inc(MetricSessionSaved)
	s.log.DebugContext(ctx, "session saved", "session_id", sess.ID, "url", sess.URL)
	s.emitAudit(ctx, AuditEventSessionSaved, sess.ID, sess.URL, nil)
	return nil
}

// Delete removes the session identified by sessionID and url. The separated
// layout ignores url. Deleting an unknown session is a no-op.
func (s *Store) Delete(ctx context.Context, sessionID, url string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	start := time.Now()
	s.mu.Lock()
	err := s.layout.remove(ctx, sessionID, url)
	s.mu.Unlock()
	s.metrics.Observe(MetricMutationLatency, time.Since(start))

	if err != nil {
		s.emitAudit(ctx, AuditEventSessionMutationError, sessionID, url, err)
		return err
	}

	s.metrics.Inc(MetricSessionDeleted)
	s.log.DebugContext(ctx, "session deleted", "session_id", sessionID, "url", url)
	s.emitAudit(ctx, AuditEventSessionDeleted, sessionID, url, nil)
	return nil
}

// Sessions returns every complete session. The unified layout sorts by
// identifier descending; the separated layout keeps list order.
func (s *Store) Sessions(ctx context.Context) ([]session.Session, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Inc(MetricSessionRead)
	return s.layout.load(ctx)
}

// GetSessions returns the sessions owned by url, in Sessions order.
func (s *Store) GetSessions(ctx context.Context, url string) ([]session.Session, error) {
	all, err := s.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	return s.layout.scope(all, url), nil
}

// GetSession returns the first session matching sessionID and url.
func (s *Store) GetSession(ctx context.Context, sessionID, url string) (session.Session, bool, error) {
	scoped, err := s.GetSessions(ctx, url)
	if err != nil {
		return session.Session{}, false, err
	}
	for _, sess := range scoped {
		if sess.ID == sessionID {
			return sess, true, nil
		}
	}
	return session.Session{}, false, nil
}

// SessionIDs returns the stored identifiers, including any whose secret is
// missing in the separated layout.
func (s *Store) SessionIDs(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Inc(MetricSessionRead)
	return s.layout.ids(ctx)
}

// Layout reports the persisted layout.
func (s *Store) Layout() Layout {
	return s.cfg.Storage.Layout
}

// MetricsSnapshot returns a copy of the store counters.
func (s *Store) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (s *Store) AuditDropped() uint64 {
	return s.audit.Dropped()
}

// Close stops accepting calls, flushes queued audit events and closes the
// engine if the Builder created it. Open feeds end when their context does.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.audit.Close()

	var err error
	if s.owned != nil {
		err = s.owned.Close()
	}
	if err != nil {
		return errors.Join(ErrEngineUnavailable, err)
	}
	return nil
}

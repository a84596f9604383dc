package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteEngine is an Engine persisted in a single SQLite file. Observers are
// notified in-process; writes made by another process to the same file are
// not observed.
type SQLiteEngine struct {
	db *sql.DB

	mu       sync.Mutex
	notifier *notifier
	closed   bool
	done     chan struct{}
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteEngine, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	e := &SQLiteEngine{
		db:       db,
		notifier: newNotifier(),
		done:     make(chan struct{}),
	}
	if err := e.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return e, nil
}

func (e *SQLiteEngine) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value BLOB
);
`
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

// Get implements Engine.
func (e *SQLiteEngine) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false, ErrClosed
	}
	return e.getLocked(ctx, key)
}

func (e *SQLiteEngine) getLocked(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := e.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// Set implements Engine.
func (e *SQLiteEngine) Set(ctx context.Context, key string, value []byte, present bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	if present {
		if value == nil {
			value = []byte{}
		}
		const stmt = `
INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value;
`
		if _, err := e.db.ExecContext(ctx, stmt, key, value); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	} else {
		if _, err := e.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	e.notifier.publish(key, Update{Value: cloneBytes(value), Present: present})
	return nil
}

// Observe implements Engine.
func (e *SQLiteEngine) Observe(ctx context.Context, key string) (<-chan Update, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	value, present, err := e.getLocked(ctx, key)
	if err != nil {
		return nil, err
	}

	sub := e.notifier.subscribe(key, Update{Value: value, Present: present})
	watch(ctx, e.done, e.notifier, key, sub, e.mu.Lock, e.mu.Unlock)
	return sub.ch, nil
}

// Close terminates observers and closes the database.
func (e *SQLiteEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)
	e.notifier.closeAll()
	return e.db.Close()
}

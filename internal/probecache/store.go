package probecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"keyflow/internal/keysystem"
)

// ErrLocked reports that another process holds the cache lock.
var ErrLocked = errors.New("probe cache is locked by another process")

// Store manages probe-outcome persistence backed by SQLite. One process owns
// the store at a time; a flock next to the database enforces that across CLI
// invocations.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the probe cache at path.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("probe cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(trimmed + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: trimmed, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close closes the database and releases the cache lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
		s.lock = nil
	}
	return err
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// RecordProbe upserts the outcome of one capability probe. It satisfies the
// negotiator's recorder interface.
func (s *Store) RecordProbe(ctx context.Context, id keysystem.ID, configs []keysystem.Configuration, granted bool, detail string) {
	digest, err := ConfigDigest(configs)
	if err != nil {
		return
	}
	grantedInt := 0
	if granted {
		grantedInt = 1
	}
	_ = s.execWithRetry(ctx, `
INSERT INTO probe_outcomes (key_system, config_digest, granted, detail, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key_system, config_digest)
DO UPDATE SET granted = excluded.granted, detail = excluded.detail, updated_at = excluded.updated_at`,
		string(id), digest, grantedInt, detail, time.Now().UTC().Format(time.RFC3339))
}

// Outcomes lists all recorded probe outcomes, most recent first.
func (s *Store) Outcomes(ctx context.Context) ([]Outcome, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `
SELECT key_system, config_digest, granted, detail, updated_at
FROM probe_outcomes
ORDER BY updated_at DESC, key_system ASC`)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			outcome Outcome
			granted int
			updated string
		)
		if err := rows.Scan(&outcome.KeySystem, &outcome.ConfigDigest, &granted, &outcome.Detail, &updated); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcome.Granted = granted != 0
		if ts, parseErr := time.Parse(time.RFC3339, updated); parseErr == nil {
			outcome.UpdatedAt = ts
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

// Clear removes every recorded outcome.
func (s *Store) Clear(ctx context.Context) error {
	return s.execWithRetry(ctx, "DELETE FROM probe_outcomes")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

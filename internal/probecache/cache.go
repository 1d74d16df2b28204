package probecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"unlinkmkv/internal/segments"
	"unlinkmkv/internal/timecode"
)

// Store is the probe cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS probes (
	path        TEXT PRIMARY KEY,
	size        INTEGER NOT NULL,
	mtime_ns    INTEGER NOT NULL,
	uid         TEXT NOT NULL,
	duration_ns INTEGER NOT NULL,
	cached_at   TEXT NOT NULL
);
`

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init probe cache schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

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

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
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

// Lookup returns the cached probe result for a file identity. A size or
// mtime mismatch counts as a miss; the stale row stays until overwritten.
func (s *Store) Lookup(ctx context.Context, path string, size, mtimeNS int64) (uid string, duration timecode.Timecode, found bool, err error) {
	ctx = ensureContext(ctx)
	var durationNS int64
	err = retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`SELECT uid, duration_ns FROM probes WHERE path = ? AND size = ? AND mtime_ns = ?`,
			path, size, mtimeNS)
		return row.Scan(&uid, &durationNS)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("lookup probe cache: %w", err)
	}
	return uid, timecode.FromNanoseconds(durationNS), true, nil
}

// Save stores or replaces the probe result for a file identity.
func (s *Store) Save(ctx context.Context, path string, size, mtimeNS int64, uid string, duration timecode.Timecode) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO probes (path, size, mtime_ns, uid, duration_ns, cached_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET
				size = excluded.size,
				mtime_ns = excluded.mtime_ns,
				uid = excluded.uid,
				duration_ns = excluded.duration_ns,
				cached_at = excluded.cached_at`,
			path, size, mtimeNS, uid, int64(duration), time.Now().UTC().Format(time.RFC3339))
		return execErr
	})
	if err != nil {
		return fmt.Errorf("save probe cache entry: %w", err)
	}
	return nil
}

// Clear removes every cached entry.
func (s *Store) Clear(ctx context.Context) error {
	ctx = ensureContext(ctx)
	if err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `DELETE FROM probes`)
		return execErr
	}); err != nil {
		return fmt.Errorf("clear probe cache: %w", err)
	}
	return nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var count int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probes`).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count probe cache: %w", err)
	}
	return count, nil
}

// WrapProbe layers the cache over a probe function. A nil store returns the
// probe unchanged. Cache write failures are swallowed so a broken cache
// never blocks processing.
func WrapProbe(store *Store, probe segments.ProbeFunc) segments.ProbeFunc {
	if store == nil {
		return probe
	}
	return func(ctx context.Context, file string) (string, timecode.Timecode, error) {
		info, statErr := os.Stat(file)
		if statErr != nil {
			return probe(ctx, file)
		}
		size := info.Size()
		mtimeNS := info.ModTime().UnixNano()

		if uid, duration, found, err := store.Lookup(ctx, file, size, mtimeNS); err == nil && found {
			return uid, duration, nil
		}
		uid, duration, err := probe(ctx, file)
		if err != nil {
			return "", 0, err
		}
		_ = store.Save(ctx, file, size, mtimeNS, uid, duration)
		return uid, duration, nil
	}
}

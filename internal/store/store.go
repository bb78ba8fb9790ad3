// Package store provides SQLite persistence for browsing sessions: the last
// location and filter of each session and the items it has viewed.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/vitrine/internal/catalog"
)

// memorySeq gives every in-memory store its own shared-cache database.
var memorySeq atomic.Uint64

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Session is the resumable state of one browsing session.
type Session struct {
	ID        string
	Path      string
	Filter    catalog.FilterKey
	StartedAt time.Time
	UpdatedAt time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database,
		// named so separate stores stay separate.
		connStr = fmt.Sprintf("file:vitrine-mem-%d?mode=memory&cache=shared", memorySeq.Add(1))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL DEFAULT '/',
		platform TEXT NOT NULL DEFAULT 'all',
		query TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);

	CREATE TABLE IF NOT EXISTS viewed (
		session_id TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		viewed_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, item_id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveSession inserts or updates a session. StartedAt is kept from the first
// save.
func (s *Store) SaveSession(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		return errors.New("save session: empty id")
	}
	now := time.Now().UTC()
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = now
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = sess.UpdatedAt
	}
	key := sess.Filter.Normalize()
	path := sess.Path
	if path == "" {
		path = "/"
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, path, platform, query, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			platform = excluded.platform,
			query = excluded.query,
			updated_at = excluded.updated_at
	`, sess.ID, path, key.Platform, key.Query, sess.StartedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSession loads a session by id. Returns nil, nil when absent.
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.querySession(`
		SELECT id, path, platform, query, started_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
}

// LatestSession loads the most recently updated session. Returns nil, nil
// when there is none.
func (s *Store) LatestSession() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.querySession(`
		SELECT id, path, platform, query, started_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT 1
	`)
}

// querySession scans one session row. Caller must hold s.mu.
func (s *Store) querySession(query string, args ...any) (*Session, error) {
	var sess Session
	var platform, q string
	err := s.db.QueryRow(query, args...).Scan(&sess.ID, &sess.Path, &platform, &q, &sess.StartedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.Filter = catalog.NewFilterKey(platform, q)
	return &sess, nil
}

// ListSessions returns up to limit sessions, most recently updated first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, path, platform, query, started_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var platform, q string
		if err := rows.Scan(&sess.ID, &sess.Path, &platform, &q, &sess.StartedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sess.Filter = catalog.NewFilterKey(platform, q)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ViewedCounts returns the number of viewed items per session.
func (s *Store) ViewedCounts() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT session_id, COUNT(*) FROM viewed GROUP BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("viewed counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// AddViewed records viewed item ids for a session. Ids already recorded are
// ignored.
func (s *Store) AddViewed(sessionID string, ids ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("add viewed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO viewed (session_id, item_id, viewed_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("add viewed: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, id := range ids {
		if _, err := stmt.Exec(sessionID, id, now); err != nil {
			return fmt.Errorf("add viewed %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// ViewedIDs returns a session's viewed ids in the order they were recorded.
func (s *Store) ViewedIDs(sessionID string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT item_id FROM viewed WHERE session_id = ? ORDER BY viewed_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("viewed ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PruneSessions deletes sessions, and their viewed ids, last updated before
// cutoff. Returns the number of sessions removed.
func (s *Store) PruneSessions(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`
		DELETE FROM viewed WHERE session_id IN (SELECT id FROM sessions WHERE updated_at < ?)
	`, cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("prune viewed: %w", err)
	}
	res, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// Store provides SQLite persistence for sessions and transfer metrics.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new store with the given database path.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		host TEXT NOT NULL,
		username TEXT,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		failure_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		remote_path TEXT,
		host TEXT,
		size_bytes INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		throughput_mbps REAL NOT NULL,
		sha256 TEXT,
		attempts INTEGER DEFAULT 1,
		verified INTEGER DEFAULT 0,
		transferred_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transfers_session_id ON transfers(session_id);
	CREATE INDEX IF NOT EXISTS idx_transfers_transferred_at ON transfers(transferred_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession records the start of a session.
func (s *Store) CreateSession(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, host, username, started_at)
		VALUES (?, ?, ?, ?)
	`, session.ID, session.Host, session.Username, session.StartedAt.UTC())

	return err
}

// EndSession marks a session finished.
func (s *Store) EndSession(id string, endedAt time.Time, failures int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE sessions SET ended_at = ?, failure_count = ?
		WHERE id = ?
	`, endedAt.UTC(), failures, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// ListSessions retrieves sessions, most recent first.
func (s *Store) ListSessions(limit, offset int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(sessionSelect+`
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	return sessions, rows.Err()
}

const sessionSelect = `
	SELECT s.id, s.host, s.username, s.started_at, s.ended_at,
	       COUNT(t.id), s.failure_count
	FROM sessions s
	LEFT JOIN transfers t ON t.session_id = s.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var session Session
	var username sql.NullString
	var endedAt sql.NullTime

	if err := row.Scan(
		&session.ID, &session.Host, &username, &session.StartedAt, &endedAt,
		&session.TransferCount, &session.FailureCount,
	); err != nil {
		return nil, err
	}

	if username.Valid {
		session.Username = username.String
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	return &session, nil
}

// RecordTransfer stores the metrics of a successful transfer.
func (s *Store) RecordTransfer(sessionID string, m transfer.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO transfers (id, session_id, filename, remote_path, host,
		                       size_bytes, duration_ns, throughput_mbps, sha256,
		                       attempts, verified, transferred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.TransferID, sessionID, m.Filename, m.RemotePath, m.Host,
		m.SizeBytes, int64(m.Duration), m.ThroughputMbps, m.SHA256,
		m.Attempts, m.Verified, m.Timestamp.UTC())

	return err
}

// ListTransfers retrieves transfers matching f, oldest first.
func (s *Store) ListTransfers(f TransferFilter) ([]transfer.Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Host != "" {
		where = append(where, "host = ?")
		args = append(args, f.Host)
	}
	if !f.Since.IsZero() {
		where = append(where, "transferred_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		where = append(where, "transferred_at <= ?")
		args = append(args, f.Until.UTC())
	}

	query := `
		SELECT id, filename, remote_path, host, size_bytes, duration_ns,
		       throughput_mbps, sha256, attempts, verified, transferred_at
		FROM transfers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transferred_at ASC, rowid ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transfer.Metrics
	for rows.Next() {
		var m transfer.Metrics
		var remotePath, host, sha sql.NullString
		var durationNs int64

		if err := rows.Scan(
			&m.TransferID, &m.Filename, &remotePath, &host, &m.SizeBytes, &durationNs,
			&m.ThroughputMbps, &sha, &m.Attempts, &m.Verified, &m.Timestamp,
		); err != nil {
			return nil, err
		}

		m.RemotePath = remotePath.String
		m.Host = host.String
		m.SHA256 = sha.String
		m.Duration = time.Duration(durationNs)
		out = append(out, m)
	}

	return out, rows.Err()
}

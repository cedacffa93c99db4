package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Sentinel errors surfaced to callers. The HTTP layer maps these onto
// status codes; the CLI prints them directly.
var (
	// ErrNotFound indicates a referenced campaign, pair, user, or vote
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateVote indicates a vote already exists for the same
	// (pair, user) combination. Callers should offer the edit path
	// instead of retrying.
	ErrDuplicateVote = errors.New("vote already recorded for this pair and user")

	// ErrInvalidTransition indicates a disallowed campaign status change.
	ErrInvalidTransition = errors.New("invalid campaign status transition")
)

// DB wraps a SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// GetStats returns aggregate row counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM campaigns", &s.Campaigns},
		{"SELECT COUNT(*) FROM campaigns WHERE status = 'active'", &s.ActiveCampaigns},
		{"SELECT COUNT(*) FROM pairs", &s.Pairs},
		{"SELECT COUNT(*) FROM votes", &s.Votes},
		{"SELECT COUNT(*) FROM skipped_pairs", &s.Skips},
		{"SELECT COUNT(*) FROM users", &s.Users},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func repeatString(s string, n int) string {
	result := ""
	for i := 0; i < n; i++ {
		result += s
	}
	return result
}

package visits

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// SQLiteStore keeps the visits collection in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and creates the schema if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// An in-memory database lives only as long as its connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Add inserts one visit. The timestamp is assigned here when the caller left it zero.
func (s *SQLiteStore) Add(ctx context.Context, v Visit) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visits (id, session_id, timestamp, user_agent, platform, screen_resolution)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.SessionID, v.Timestamp.UnixMilli(), v.UserAgent, v.Platform, v.ScreenResolution,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

// Count returns the number of stored visits.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return n, nil
}

// List returns stored visits, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, timestamp, user_agent, platform, screen_resolution
		FROM visits
		ORDER BY timestamp ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var v Visit
		var ts int64
		if err := rows.Scan(&v.ID, &v.SessionID, &ts, &v.UserAgent, &v.Platform, &v.ScreenResolution); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			user_agent TEXT NOT NULL DEFAULT '',
			platform TEXT NOT NULL DEFAULT '',
			screen_resolution TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_visits_session ON visits(session_id);
	`)
	return err
}

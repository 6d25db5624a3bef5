package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/hausnet/irbridge/pkg/persistence"
)

// SQLiteStore implements persistence.Store.
type SQLiteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite store.
func NewStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS ir_events (
		id TEXT PRIMARY KEY,
		direction TEXT NOT NULL,
		protocol TEXT NOT NULL,
		payload TEXT,
		bit_length INTEGER DEFAULT 0,
		rawbuf TEXT,
		created_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_direction_created ON ir_events(direction, created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save archives one event.
func (s *SQLiteStore) Save(ev *persistence.Event) error {
	query := `INSERT INTO ir_events (id, direction, protocol, payload, bit_length, rawbuf, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, ev.ID, ev.Direction, ev.Protocol, ev.Payload, ev.BitLength, ev.RawBuf, ev.CreatedAt)
	return err
}

// Recent returns up to limit events, newest first.
func (s *SQLiteStore) Recent(limit int) ([]*persistence.Event, error) {
	query := `SELECT id, direction, protocol, payload, bit_length, rawbuf, created_at FROM ir_events ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*persistence.Event
	for rows.Next() {
		var ev persistence.Event
		if err := rows.Scan(&ev.ID, &ev.Direction, &ev.Protocol, &ev.Payload, &ev.BitLength, &ev.RawBuf, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

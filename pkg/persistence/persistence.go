// Package persistence defines the optional durable archive of IR events.
// The in-memory history buffers are the source of truth for the API; the
// archive only keeps a longer record across restarts.
package persistence

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an event is not found.
var ErrNotFound = errors.New("event not found")

// Event directions.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Event is one archived IR event.
type Event struct {
	ID        string
	Direction string
	Protocol  string
	Payload   string
	BitLength int
	RawBuf    string // comma-separated microsecond samples, empty for keyed records
	CreatedAt time.Time
}

// Store defines the interface for the event archive.
type Store interface {
	// Save archives one event.
	Save(ev *Event) error

	// Recent returns up to limit events, newest first.
	Recent(limit int) ([]*Event, error)

	// Close closes the store.
	Close() error
}

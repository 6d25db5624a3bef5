// Package history implements the fixed-capacity, most-recent-first buffers
// of past IR events.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hausnet/irbridge/pkg/ircode"
)

// DefaultCapacity is the slot count used when none is configured.
const DefaultCapacity = 6

// timestampLayout is the time-of-day format stamped onto stored records.
const timestampLayout = "15:04:05"

// Store is a fixed-capacity rotating log of IR events. Slot 0 is the most
// recent entry; the oldest slot is overwritten on each insert once the
// buffer is full. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	slots []ircode.Record
	now   func() time.Time
}

// New creates a store with the given capacity. Non-positive capacities fall
// back to DefaultCapacity. All slots start unused.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		slots: make([]ircode.Record, capacity),
		now:   time.Now,
	}
}

// Capacity returns the slot count.
func (s *Store) Capacity() int {
	return len(s.slots)
}

// Insert stores a record at the head, rotating older entries toward the
// tail and evicting the oldest. The stored copy gets a fresh timestamp and,
// if absent, an ID. The stored copy is returned.
func (s *Store) Insert(rec ircode.Record) ircode.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Timestamp = s.now().Format(timestampLayout)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	// Assignment copies every field, so a raw record overwriting a keyed
	// one (or vice versa) cannot leak stale fields across rotations.
	copy(s.slots[1:], s.slots[:len(s.slots)-1])
	s.slots[0] = rec

	return rec
}

// Get returns the record in slot n (1-based). The second return value is
// false when n is out of range or the slot has never been used.
func (s *Store) Get(n int) (ircode.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n > len(s.slots) {
		return ircode.Record{}, false
	}
	rec := s.slots[n-1]
	if rec.Empty() {
		return ircode.Record{}, false
	}
	return rec, true
}

// List returns the used slots, most recent first.
func (s *Store) List() []ircode.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ircode.Record, 0, len(s.slots))
	for _, rec := range s.slots {
		if rec.Empty() {
			break
		}
		out = append(out, rec)
	}
	return out
}

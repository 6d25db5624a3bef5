package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hausnet/irbridge/pkg/persistence"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndRecent(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	events := []*persistence.Event{
		{ID: "a", Direction: persistence.DirectionReceived, Protocol: "NEC", Payload: "20DF10EF", BitLength: 32, CreatedAt: base},
		{ID: "b", Direction: persistence.DirectionSent, Protocol: "nec", Payload: "4FB4AF5", BitLength: 32, CreatedAt: base.Add(time.Second)},
		{ID: "c", Direction: persistence.DirectionReceived, Protocol: "UNKNOWN", RawBuf: "450,2250,450", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, ev := range events {
		if err := s.Save(ev); err != nil {
			t.Fatalf("Save(%s) failed: %v", ev.ID, err)
		}
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d events, want 3", len(got))
	}
	// Newest first.
	for i, wantID := range []string{"c", "b", "a"} {
		if got[i].ID != wantID {
			t.Errorf("event %d ID = %q, want %q", i, got[i].ID, wantID)
		}
	}
	if got[0].RawBuf != "450,2250,450" {
		t.Errorf("raw buffer = %q", got[0].RawBuf)
	}
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		ev := &persistence.Event{
			ID:        id,
			Direction: persistence.DirectionReceived,
			Protocol:  "NEC",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Save(ev); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d events", len(got))
	}
	if got[0].ID != "d" || got[1].ID != "c" {
		t.Errorf("Recent(2) = %q, %q; want d, c", got[0].ID, got[1].ID)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	s := newTestStore(t)

	ev := &persistence.Event{ID: "a", Direction: persistence.DirectionSent, Protocol: "nec", CreatedAt: time.Now()}
	if err := s.Save(ev); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ev); err == nil {
		t.Error("saving a duplicate ID should fail")
	}
}

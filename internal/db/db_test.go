package db

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return d
}

func TestMigrateIdempotent(t *testing.T) {
	d := newTestDB(t)
	if err := d.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestAppendAndQueryEvents(t *testing.T) {
	d := newTestDB(t)
	if err := d.AppendEvent("run1", "validate-prerequisites", "running", ""); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := d.AppendEvent("run1", "validate-prerequisites", "completed", ""); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := d.AppendEvent("run2", "locate-repository", "failed", "network timeout"); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	events, err := d.EventsForRun("run1")
	if err != nil {
		t.Fatalf("EventsForRun: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Status != "running" || events[1].Status != "completed" {
		t.Errorf("events = %+v", events)
	}

	events, err = d.EventsForRun("run2")
	if err != nil {
		t.Fatalf("EventsForRun: %v", err)
	}
	if len(events) != 1 || events[0].Detail != "network timeout" {
		t.Errorf("events = %+v", events)
	}
}

func TestAppendRejectsUnknownStatus(t *testing.T) {
	d := newTestDB(t)
	if err := d.AppendEvent("run1", "step", "exploded", ""); err == nil {
		t.Fatal("expected CHECK constraint to reject unknown status")
	}
}

func TestLastStatus(t *testing.T) {
	d := newTestDB(t)
	for _, ev := range []struct{ step, status string }{
		{"one", "running"},
		{"one", "completed"},
		{"two", "running"},
		{"two", "failed"},
		{"two", "retrying"},
	} {
		if err := d.AppendEvent("run1", ev.step, ev.status, ""); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}
	statuses, err := d.LastStatus("run1")
	if err != nil {
		t.Fatalf("LastStatus: %v", err)
	}
	if statuses["one"] != "completed" || statuses["two"] != "retrying" {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestEventsForUnknownRun(t *testing.T) {
	d := newTestDB(t)
	events, err := d.EventsForRun("missing")
	if err != nil {
		t.Fatalf("EventsForRun: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"subbub/internal/services"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestOpenCreatesSchemaAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry, err := j.Start(ctx, "sync", "/in/movie.srt", "/out/movie.synced.srt")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if entry.Status != StatusRunning || entry.Attempts != 1 {
		t.Fatalf("entry = %+v, want running with 1 attempt", entry)
	}
	if err := j.Complete(ctx, entry.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Lookup(ctx, "sync", "/in/movie.srt", "/out/movie.synced.srt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got == nil || got.Status != StatusDone {
		t.Fatalf("entry after reopen = %+v, want done", got)
	}
}

func TestStartIncrementsAttemptsAndClearsError(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first, err := j.Start(ctx, "mux", "/in/movie.mkv", "/out/movie.subbed.mkv")
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := j.Fail(ctx, first.ID, "mkvmerge exploded"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	second, err := j.Start(ctx, "mux", "/in/movie.mkv", "/out/movie.subbed.mkv")
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("retry created a new row: %d != %d", second.ID, first.ID)
	}
	if second.Attempts != 2 || second.Status != StatusRunning {
		t.Fatalf("entry = %+v, want 2 attempts running", second)
	}
	if second.Error != "" {
		t.Fatalf("error should be cleared on retry, got %q", second.Error)
	}
}

func TestFailRecordsMessage(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	entry, err := j.Start(ctx, "extract", "/in/movie.mkv#0", "/work/movie.s0.srt")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := j.Fail(ctx, entry.ID, "timed out"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	got, err := j.Lookup(ctx, "extract", "/in/movie.mkv#0", "/work/movie.s0.srt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Status != StatusFailed || got.Error != "timed out" {
		t.Fatalf("entry = %+v, want failed with message", got)
	}
}

func TestLookupMissingReturnsNil(t *testing.T) {
	j := openTestJournal(t)

	got, err := j.Lookup(context.Background(), "sync", "/nowhere", "/nothing")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil entry, got %+v", got)
	}
}

func TestStartValidatesKey(t *testing.T) {
	j := openTestJournal(t)

	if _, err := j.Start(context.Background(), "", "/src", "/out"); !errors.Is(err, services.ErrInput) {
		t.Fatalf("error = %v, want ErrInput", err)
	}
}

func TestResetRunningLeavesFinishedAlone(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	stuck, err := j.Start(ctx, "sync", "/in/a.srt", "/out/a.srt")
	if err != nil {
		t.Fatalf("Start stuck: %v", err)
	}
	finished, err := j.Start(ctx, "sync", "/in/b.srt", "/out/b.srt")
	if err != nil {
		t.Fatalf("Start finished: %v", err)
	}
	if stuck.ID == finished.ID {
		t.Fatal("distinct keys must create distinct rows")
	}
	if err := j.Complete(ctx, finished.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	reset, err := j.ResetRunning(ctx)
	if err != nil {
		t.Fatalf("ResetRunning: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset %d entries, want 1", reset)
	}

	got, err := j.Lookup(ctx, "sync", "/in/a.srt", "/out/a.srt")
	if err != nil {
		t.Fatalf("Lookup stuck: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("stuck entry status = %q, want pending", got.Status)
	}
	if _, err := j.Lookup(ctx, "sync", "/in/b.srt", "/out/b.srt"); err != nil {
		t.Fatalf("Lookup finished: %v", err)
	}
	stats, err := j.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[StatusDone] != 1 || stats[StatusPending] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestEntriesOrderedByCreation(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	keys := []string{"/in/a.srt", "/in/b.srt", "/in/c.srt"}
	for _, key := range keys {
		if _, err := j.Start(ctx, "sync", key, key+".out"); err != nil {
			t.Fatalf("Start %s: %v", key, err)
		}
	}

	entries, err := j.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != len(keys) {
		t.Fatalf("entry count = %d, want %d", len(entries), len(keys))
	}
	for i, entry := range entries {
		if entry.Source != keys[i] {
			t.Fatalf("entry %d source = %q, want %q", i, entry.Source, keys[i])
		}
	}
}

func TestOpenRejectsFutureSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("raw open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("raw close: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("error = %v, want ErrSchemaMismatch", err)
	}
}

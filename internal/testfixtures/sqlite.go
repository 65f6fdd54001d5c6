package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/conference-portal/internal/persistence"
	"github.com/example/conference-portal/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated SQLite store in a temporary directory.
type SQLiteHarness struct {
	Store *sqlite.Storage
}

// NewSQLiteHarness opens and migrates a fresh database. It is closed when the
// test finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "portal.db")
	storage, err := sqlite.Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return &SQLiteHarness{Store: storage}
}

// SeedSpeaker stores f and returns the saved record.
func (h *SQLiteHarness) SeedSpeaker(tb testing.TB, f SpeakerFixture) persistence.Speaker {
	tb.Helper()
	saved, err := h.Store.SaveSpeaker(context.Background(), f.Record())
	if err != nil {
		tb.Fatalf("seed speaker %s: %v", f.SpeakerID, err)
	}
	return saved
}

// SeedEntry stores f and returns the saved record.
func (h *SQLiteHarness) SeedEntry(tb testing.TB, f EntryFixture) persistence.ScheduleEntry {
	tb.Helper()
	saved, err := h.Store.CreateScheduleEntry(context.Background(), f.Record())
	if err != nil {
		tb.Fatalf("seed entry %s: %v", f.Title, err)
	}
	return saved
}

// SeedAdmin stores f with a hashed password.
func (h *SQLiteHarness) SeedAdmin(tb testing.TB, f AdminFixture) persistence.AdminUser {
	tb.Helper()
	record, err := f.Record()
	if err != nil {
		tb.Fatalf("hash admin password: %v", err)
	}
	if err := h.Store.CreateAdminUser(context.Background(), record); err != nil {
		tb.Fatalf("seed admin %s: %v", f.Email, err)
	}
	return record
}

// SeedSession stores f.
func (h *SQLiteHarness) SeedSession(tb testing.TB, f SessionFixture) persistence.Session {
	tb.Helper()
	saved, err := h.Store.CreateSession(context.Background(), f.Record())
	if err != nil {
		tb.Fatalf("seed session %s: %v", f.ID, err)
	}
	return saved
}

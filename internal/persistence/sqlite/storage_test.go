package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/example/conference-portal/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return storage
}

func strPtr(s string) *string { return &s }

var ignoreTimestamps = cmpopts.IgnoreFields(persistence.Speaker{}, "CreatedAt", "UpdatedAt")

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t)
	ctx := context.Background()
	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	status, err := storage.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus: %v", err)
	}
	if status.CurrentVersion != "002" || len(status.Pending) != 0 {
		t.Fatalf("unexpected status: current=%s pending=%d", status.CurrentVersion, len(status.Pending))
	}
}

func TestOpenAcceptsFileURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "portal.db")
	storage, err := Open("file:"+path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer storage.Close()
	if err := storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSpeakerRepository(t *testing.T) {
	t.Parallel()

	t.Run("save replaces personal sessions", func(t *testing.T) {
		t.Parallel()
		storage := newTestStorage(t)
		ctx := context.Background()

		created, err := storage.SaveSpeaker(ctx, persistence.Speaker{
			SpeakerID: "SPK01",
			Name:      "Dr. Rao",
			Phone:     "9876543210",
			PersonalSessions: []persistence.PersonalSession{
				{Title: "Old talk", Time: "09:00", Venue: "Hall A"},
				{Title: "Panel", Time: "11:00", Venue: "Hall B"},
				{Title: "Workshop", Time: "14:00", Venue: "Lab"},
			},
		})
		if err != nil {
			t.Fatalf("SaveSpeaker create: %v", err)
		}
		if created.ID == 0 {
			t.Fatal("expected surrogate id to be assigned")
		}

		created.PersonalSessions = []persistence.PersonalSession{
			{Title: "Keynote", Time: "10:00", Venue: "Main Hall"},
			{Title: "Q&A", Time: "10:45", Venue: "Main Hall"},
		}
		if _, err := storage.SaveSpeaker(ctx, created); err != nil {
			t.Fatalf("SaveSpeaker update: %v", err)
		}

		sessions, err := storage.ListPersonalSessions(ctx, "SPK01")
		if err != nil {
			t.Fatalf("ListPersonalSessions: %v", err)
		}
		titles := make([]string, 0, len(sessions))
		for _, s := range sessions {
			titles = append(titles, s.Title)
		}
		if diff := cmp.Diff([]string{"Keynote", "Q&A"}, titles); diff != "" {
			t.Fatalf("sessions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rename drops sessions filed under the old id", func(t *testing.T) {
		t.Parallel()
		storage := newTestStorage(t)
		ctx := context.Background()

		speaker, err := storage.SaveSpeaker(ctx, persistence.Speaker{
			SpeakerID:        "OLD",
			Name:             "Speaker",
			Phone:            "1",
			PersonalSessions: []persistence.PersonalSession{{Title: "Talk"}},
		})
		if err != nil {
			t.Fatalf("SaveSpeaker: %v", err)
		}
		speaker.SpeakerID = "NEW"
		if _, err := storage.SaveSpeaker(ctx, speaker); err != nil {
			t.Fatalf("SaveSpeaker rename: %v", err)
		}

		old, err := storage.ListPersonalSessions(ctx, "OLD")
		if err != nil {
			t.Fatalf("ListPersonalSessions: %v", err)
		}
		if len(old) != 0 {
			t.Fatalf("expected no sessions under old id, got %d", len(old))
		}
		renamed, err := storage.ListPersonalSessions(ctx, "NEW")
		if err != nil || len(renamed) != 1 {
			t.Fatalf("expected one session under new id, got %d (err=%v)", len(renamed), err)
		}
	})

	t.Run("duplicate external id", func(t *testing.T) {
		t.Parallel()
		storage := newTestStorage(t)
		ctx := context.Background()

		if _, err := storage.SaveSpeaker(ctx, persistence.Speaker{SpeakerID: "DUP", Name: "A", Phone: "1"}); err != nil {
			t.Fatalf("SaveSpeaker: %v", err)
		}
		_, err := storage.SaveSpeaker(ctx, persistence.Speaker{SpeakerID: "DUP", Name: "B", Phone: "2"})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("credentials must match exactly", func(t *testing.T) {
		t.Parallel()
		storage := newTestStorage(t)
		ctx := context.Background()

		saved, err := storage.SaveSpeaker(ctx, persistence.Speaker{
			SpeakerID:        "SPK02",
			Name:             "Prof. Iyer",
			Phone:            "5550001",
			PersonalSessions: []persistence.PersonalSession{{Title: "Talk", Venue: "Hall C"}},
		})
		if err != nil {
			t.Fatalf("SaveSpeaker: %v", err)
		}

		found, err := storage.FindSpeakerByCredentials(ctx, "SPK02", "5550001")
		if err != nil {
			t.Fatalf("FindSpeakerByCredentials: %v", err)
		}
		if diff := cmp.Diff(saved, found, ignoreTimestamps); diff != "" {
			t.Fatalf("speaker mismatch (-want +got):\n%s", diff)
		}

		for _, tc := range []struct{ id, phone string }{
			{"SPK02", "5550002"},
			{"spk02", "5550001"},
			{"", ""},
		} {
			if _, err := storage.FindSpeakerByCredentials(ctx, tc.id, tc.phone); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("FindSpeakerByCredentials(%q, %q) = %v, want ErrNotFound", tc.id, tc.phone, err)
			}
		}

		byID, err := storage.FindSpeakerBySpeakerID(ctx, "SPK02")
		if err != nil {
			t.Fatalf("FindSpeakerBySpeakerID: %v", err)
		}
		if byID.ID != saved.ID || byID.Phone != "5550001" || len(byID.PersonalSessions) != 0 {
			t.Fatalf("unexpected speaker by id: %+v", byID)
		}
		if _, err := storage.FindSpeakerBySpeakerID(ctx, "SPK99"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("FindSpeakerBySpeakerID(SPK99) = %v, want ErrNotFound", err)
		}
	})

	t.Run("list newest first and delete keeps sessions", func(t *testing.T) {
		t.Parallel()
		storage := newTestStorage(t)
		ctx := context.Background()

		first, err := storage.SaveSpeaker(ctx, persistence.Speaker{SpeakerID: "A", Name: "First", Phone: "1",
			PersonalSessions: []persistence.PersonalSession{{Title: "Orphan"}}})
		if err != nil {
			t.Fatalf("SaveSpeaker: %v", err)
		}
		if _, err := storage.SaveSpeaker(ctx, persistence.Speaker{SpeakerID: "B", Name: "Second", Phone: "2"}); err != nil {
			t.Fatalf("SaveSpeaker: %v", err)
		}

		speakers, err := storage.ListSpeakers(ctx)
		if err != nil {
			t.Fatalf("ListSpeakers: %v", err)
		}
		if len(speakers) != 2 || speakers[0].SpeakerID != "B" || len(speakers[1].PersonalSessions) != 1 {
			t.Fatalf("unexpected listing: %+v", speakers)
		}

		if err := storage.DeleteSpeaker(ctx, first.ID); err != nil {
			t.Fatalf("DeleteSpeaker: %v", err)
		}
		if err := storage.DeleteSpeaker(ctx, first.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		orphans, err := storage.ListPersonalSessions(ctx, "A")
		if err != nil || len(orphans) != 1 {
			t.Fatalf("expected orphaned session to remain, got %d (err=%v)", len(orphans), err)
		}
	})
}

func TestScheduleRepository(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t)
	ctx := context.Background()

	keynote, err := storage.CreateScheduleEntry(ctx, persistence.ScheduleEntry{
		Day: "Day 1 (Feb 7)", Time: "09:00", Type: "Keynote", Title: "Opening", Venue: "Main Hall",
		SessionChair: strPtr("Dr. Menon"),
	})
	if err != nil {
		t.Fatalf("CreateScheduleEntry: %v", err)
	}
	if _, err := storage.CreateScheduleEntry(ctx, persistence.ScheduleEntry{
		Day: "Day 1 (Feb 7)", Time: "10:00", Type: "Break", Title: "Tea",
	}); err != nil {
		t.Fatalf("CreateScheduleEntry: %v", err)
	}

	if _, err := storage.CreateScheduleEntry(ctx, persistence.ScheduleEntry{Type: "Party", Title: "x"}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for unknown type, got %v", err)
	}

	keynote.Venue = "Auditorium"
	keynote.SessionChair = nil
	keynote.SessionCoordinator = strPtr("Ms. Das")
	if _, err := storage.UpdateScheduleEntry(ctx, keynote); err != nil {
		t.Fatalf("UpdateScheduleEntry: %v", err)
	}

	got, err := storage.GetScheduleEntry(ctx, keynote.ID)
	if err != nil {
		t.Fatalf("GetScheduleEntry: %v", err)
	}
	if got.Venue != "Auditorium" || got.SessionChair != nil || got.SessionCoordinator == nil || *got.SessionCoordinator != "Ms. Das" {
		t.Fatalf("update not persisted: %+v", got)
	}

	entries, err := storage.ListSchedule(ctx)
	if err != nil {
		t.Fatalf("ListSchedule: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != keynote.ID {
		t.Fatalf("expected creation order, got %+v", entries)
	}

	if err := storage.DeleteScheduleEntry(ctx, keynote.ID); err != nil {
		t.Fatalf("DeleteScheduleEntry: %v", err)
	}
	if _, err := storage.GetScheduleEntry(ctx, keynote.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := storage.UpdateScheduleEntry(ctx, keynote); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating deleted entry, got %v", err)
	}
}

func TestAdminSessions(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)

	if err := storage.CreateAdminUser(ctx, persistence.AdminUser{
		ID: "admin-1", Email: " Admin@Example.com ", DisplayName: "Admin", PasswordHash: "hash",
	}); err != nil {
		t.Fatalf("CreateAdminUser: %v", err)
	}
	user, err := storage.GetAdminUserByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetAdminUserByEmail: %v", err)
	}
	if user.Email != "admin@example.com" {
		t.Fatalf("expected normalised email, got %q", user.Email)
	}
	if n, err := storage.CountAdminUsers(ctx); err != nil || n != 1 {
		t.Fatalf("CountAdminUsers = %d, %v", n, err)
	}
	if _, err := storage.CreateSession(ctx, persistence.Session{ID: "s0", AdminID: "missing", Token: "t0", ExpiresAt: now}); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}

	live, err := storage.CreateSession(ctx, persistence.Session{ID: "s1", AdminID: user.ID, Token: "live", ExpiresAt: now.Add(time.Hour), CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := storage.CreateSession(ctx, persistence.Session{ID: "s2", AdminID: user.ID, Token: "stale", ExpiresAt: now.Add(-time.Minute), CreatedAt: now}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	live.Token = "rotated"
	live.ExpiresAt = now.Add(2 * time.Hour)
	if _, err := storage.UpdateSession(ctx, live); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if _, err := storage.GetSession(ctx, "live"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("old token should be gone, got %v", err)
	}

	revoked, err := storage.RevokeSession(ctx, "rotated", now)
	if err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(now) {
		t.Fatalf("expected revoked_at %v, got %v", now, revoked.RevokedAt)
	}

	if err := storage.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if _, err := storage.GetSession(ctx, "stale"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expired session should be pruned, got %v", err)
	}
	if _, err := storage.GetSession(ctx, "rotated"); err != nil {
		t.Fatalf("unexpired session should survive prune: %v", err)
	}
}

func TestErrorMapper(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper()
	cases := []struct {
		in   error
		want error
	}{
		{errors.New("UNIQUE constraint failed: speakers.speaker_id"), persistence.ErrDuplicate},
		{errors.New("FOREIGN KEY constraint failed"), persistence.ErrForeignKeyViolation},
		{errors.New("NOT NULL constraint failed: schedule.title"), persistence.ErrConstraintViolation},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), errDatabaseBusy},
	}
	for _, tc := range cases {
		got := mapper.MapError(tc.in)
		if !errors.Is(got, tc.want) {
			t.Fatalf("MapError(%v) = %v, want %v", tc.in, got, tc.want)
		}
		if again := mapper.MapError(got); again != got {
			t.Fatalf("MapError should leave mapped errors untouched, got %v", again)
		}
	}
	if mapper.MapError(nil) != nil {
		t.Fatal("MapError(nil) should be nil")
	}
}

func TestRetryHelperStopsOnNonBusyError(t *testing.T) {
	t.Parallel()

	helper := NewRetryHelper(RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1})
	calls := 0
	err := helper.WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, calls=%d err=%v", calls, err)
	}

	calls = 0
	err = helper.WithRetry(context.Background(), func() error {
		calls++
		return errors.New("UNIQUE constraint failed")
	})
	if !errors.Is(err, persistence.ErrDuplicate) || calls != 1 {
		t.Fatalf("expected one attempt returning ErrDuplicate, calls=%d err=%v", calls, err)
	}
}

package persistence

import (
	"context"
	"time"
)

// SpeakerRepository stores speakers and their personal sessions.
type SpeakerRepository interface {
	// ListSpeakers returns every speaker, newest first, with personal sessions.
	ListSpeakers(ctx context.Context) ([]Speaker, error)
	GetSpeaker(ctx context.Context, id int64) (Speaker, error)
	// FindSpeakerByCredentials requires an exact match on both fields.
	FindSpeakerByCredentials(ctx context.Context, speakerID, phone string) (Speaker, error)
	// FindSpeakerBySpeakerID returns the speaker row without personal sessions.
	FindSpeakerBySpeakerID(ctx context.Context, speakerID string) (Speaker, error)
	// SaveSpeaker inserts (ID == 0) or updates the speaker and replaces its
	// personal sessions in one transaction.
	SaveSpeaker(ctx context.Context, speaker Speaker) (Speaker, error)
	// DeleteSpeaker removes the speaker row only.
	DeleteSpeaker(ctx context.Context, id int64) error
	ListPersonalSessions(ctx context.Context, speakerID string) ([]PersonalSession, error)
}

// ScheduleRepository stores master schedule rows.
type ScheduleRepository interface {
	ListSchedule(ctx context.Context) ([]ScheduleEntry, error)
	GetScheduleEntry(ctx context.Context, id int64) (ScheduleEntry, error)
	CreateScheduleEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error)
	UpdateScheduleEntry(ctx context.Context, entry ScheduleEntry) (ScheduleEntry, error)
	DeleteScheduleEntry(ctx context.Context, id int64) error
}

// AdminUserRepository stores administrator accounts.
type AdminUserRepository interface {
	CreateAdminUser(ctx context.Context, user AdminUser) error
	GetAdminUser(ctx context.Context, id string) (AdminUser, error)
	GetAdminUserByEmail(ctx context.Context, email string) (AdminUser, error)
	CountAdminUsers(ctx context.Context) (int, error)
}

// SessionRepository stores admin session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Store bundles every repository a backend provides.
type Store interface {
	SpeakerRepository
	ScheduleRepository
	AdminUserRepository
	SessionRepository
	Migrate(ctx context.Context) error
	Close() error
}

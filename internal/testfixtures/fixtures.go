// Package testfixtures provides deterministic clocks, identifiers, records and
// a migrated SQLite store for tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/conference-portal/internal/application"
	"github.com/example/conference-portal/internal/persistence"
)

var (
	speakerCounter uint64
	entryCounter   uint64
	adminCounter   uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2026, time.February, 7, 8, 0, 0, 0, time.UTC)

// ReferenceTime is the morning of the first conference day.
func ReferenceTime() time.Time {
	return referenceTime
}

// FastArgon2idParams hash quickly enough for unit tests.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// ----------------------------- Speakers -----------------------------

// SpeakerFixture is a speaker with personal sessions.
type SpeakerFixture struct {
	SpeakerID string
	Name      string
	Phone     string
	Sessions  []application.PersonalSessionInput
}

// SpeakerOption configures a SpeakerFixture.
type SpeakerOption func(*SpeakerFixture)

// NewSpeakerFixture returns a unique speaker with one personal session.
func NewSpeakerFixture(opts ...SpeakerOption) SpeakerFixture {
	idx := atomic.AddUint64(&speakerCounter, 1)
	f := SpeakerFixture{
		SpeakerID: fmt.Sprintf("SPK%03d", idx),
		Name:      fmt.Sprintf("Speaker %03d", idx),
		Phone:     fmt.Sprintf("98765%05d", idx),
		Sessions: []application.PersonalSessionInput{
			{Title: fmt.Sprintf("Talk %03d", idx), Time: "10:00 - 10:45", Venue: "Main Hall"},
		},
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithSpeakerID overrides the external identifier.
func WithSpeakerID(id string) SpeakerOption {
	return func(f *SpeakerFixture) { f.SpeakerID = id }
}

// WithSpeakerName overrides the display name.
func WithSpeakerName(name string) SpeakerOption {
	return func(f *SpeakerFixture) { f.Name = name }
}

// WithSpeakerPhone overrides the phone number.
func WithSpeakerPhone(phone string) SpeakerOption {
	return func(f *SpeakerFixture) { f.Phone = phone }
}

// WithPersonalSessions replaces the sessions with one per title.
func WithPersonalSessions(titles ...string) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Sessions = nil
		for i, title := range titles {
			f.Sessions = append(f.Sessions, application.PersonalSessionInput{
				Title: title,
				Time:  fmt.Sprintf("%02d:00", 9+i),
				Venue: "Hall B",
			})
		}
	}
}

// Record materialises the fixture for a repository.
func (f SpeakerFixture) Record() persistence.Speaker {
	s := persistence.Speaker{SpeakerID: f.SpeakerID, Name: f.Name, Phone: f.Phone}
	for _, ps := range f.Sessions {
		s.PersonalSessions = append(s.PersonalSessions, persistence.PersonalSession{
			SpeakerID: f.SpeakerID,
			Title:     ps.Title,
			Time:      ps.Time,
			Venue:     ps.Venue,
		})
	}
	return s
}

// Input materialises the fixture as a service request body.
func (f SpeakerFixture) Input() application.SpeakerInput {
	sessions := make([]application.PersonalSessionInput, len(f.Sessions))
	copy(sessions, f.Sessions)
	return application.SpeakerInput{
		SpeakerID:        f.SpeakerID,
		Name:             f.Name,
		Phone:            f.Phone,
		PersonalSessions: sessions,
	}
}

// Login returns the credentials that identify this speaker.
func (f SpeakerFixture) Login() application.SpeakerLoginParams {
	return application.SpeakerLoginParams{SpeakerID: f.SpeakerID, Phone: f.Phone}
}

// ----------------------------- Schedule -----------------------------

// EntryFixture is a master schedule row.
type EntryFixture struct {
	Day                string
	Time               string
	Type               application.EntryType
	Title              string
	Venue              string
	SessionChair       string
	SessionCoordinator string
}

// EntryOption configures an EntryFixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns a unique Day 1 session.
func NewEntryFixture(opts ...EntryOption) EntryFixture {
	idx := atomic.AddUint64(&entryCounter, 1)
	f := EntryFixture{
		Day:   "Day 1 (Feb 7)",
		Time:  fmt.Sprintf("%02d:00 - %02d:45", 9+idx%8, 9+idx%8),
		Type:  application.EntryTypeSession,
		Title: fmt.Sprintf("Session %03d", idx),
		Venue: fmt.Sprintf("Room %d", idx),
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithEntryDay overrides the day label.
func WithEntryDay(day string) EntryOption {
	return func(f *EntryFixture) { f.Day = day }
}

// WithEntrySlot overrides time and venue together.
func WithEntrySlot(timeLabel, venue string) EntryOption {
	return func(f *EntryFixture) { f.Time, f.Venue = timeLabel, venue }
}

// WithEntryType overrides the entry type.
func WithEntryType(t application.EntryType) EntryOption {
	return func(f *EntryFixture) { f.Type = t }
}

// WithEntryTitle overrides the title.
func WithEntryTitle(title string) EntryOption {
	return func(f *EntryFixture) { f.Title = title }
}

// WithEntryChair sets the session chair.
func WithEntryChair(name string) EntryOption {
	return func(f *EntryFixture) { f.SessionChair = name }
}

// Record materialises the fixture for a repository.
func (f EntryFixture) Record() persistence.ScheduleEntry {
	e := persistence.ScheduleEntry{
		Day:   f.Day,
		Time:  f.Time,
		Type:  string(f.Type),
		Title: f.Title,
		Venue: f.Venue,
	}
	if f.SessionChair != "" {
		chair := f.SessionChair
		e.SessionChair = &chair
	}
	if f.SessionCoordinator != "" {
		coordinator := f.SessionCoordinator
		e.SessionCoordinator = &coordinator
	}
	return e
}

// Input materialises the fixture as a service request body.
func (f EntryFixture) Input() application.EntryInput {
	return application.EntryInput{
		Day:                f.Day,
		Time:               f.Time,
		Type:               string(f.Type),
		Title:              f.Title,
		Venue:              f.Venue,
		SessionChair:       f.SessionChair,
		SessionCoordinator: f.SessionCoordinator,
	}
}

// ----------------------------- Admins -----------------------------

// AdminFixture is an administrator with a known password.
type AdminFixture struct {
	ID          string
	Email       string
	DisplayName string
	Password    string
	CreatedAt   time.Time
}

// AdminOption configures an AdminFixture.
type AdminOption func(*AdminFixture)

// NewAdminFixture returns a unique administrator.
func NewAdminFixture(opts ...AdminOption) AdminFixture {
	idx := atomic.AddUint64(&adminCounter, 1)
	f := AdminFixture{
		ID:          fmt.Sprintf("admin-%03d", idx),
		Email:       fmt.Sprintf("admin%03d@example.com", idx),
		DisplayName: fmt.Sprintf("Admin %03d", idx),
		Password:    "correct horse battery",
		CreatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithAdminEmail overrides the email.
func WithAdminEmail(email string) AdminOption {
	return func(f *AdminFixture) { f.Email = email }
}

// WithAdminPassword overrides the password.
func WithAdminPassword(password string) AdminOption {
	return func(f *AdminFixture) { f.Password = password }
}

// Record hashes the password and materialises the fixture for a repository.
func (f AdminFixture) Record() (persistence.AdminUser, error) {
	hash, err := application.CreatePasswordHash(f.Password, FastArgon2idParams)
	if err != nil {
		return persistence.AdminUser{}, err
	}
	return persistence.AdminUser{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: hash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}, nil
}

// Principal returns the administrator principal.
func (f AdminFixture) Principal() application.Principal {
	return application.Principal{AdminID: f.ID, IsAdmin: true}
}

// ----------------------------- Sessions -----------------------------

// SessionFixture is an admin session.
type SessionFixture struct {
	ID        string
	AdminID   string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures a SessionFixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session for adminID valid for one hour past
// ReferenceTime.
func NewSessionFixture(adminID string, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	f := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		AdminID:   adminID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(time.Hour),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithSessionExpiresAt overrides the expiry.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.ExpiresAt = t }
}

// WithSessionRevokedAt marks the session revoked.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.RevokedAt = &t }
}

// Record materialises the fixture for a repository.
func (f SessionFixture) Record() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		AdminID:   f.AdminID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
		RevokedAt: f.RevokedAt,
	}
}

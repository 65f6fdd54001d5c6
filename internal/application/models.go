package application

import (
	"time"

	"github.com/example/conference-portal/internal/reconcile"
)

// Principal identifies the caller of a service method. A speaker principal
// carries SpeakerID; an administrator carries AdminID and IsAdmin.
type Principal struct {
	SpeakerID string
	AdminID   string
	IsAdmin   bool
}

// EntryType classifies master schedule rows.
type EntryType string

const (
	EntryTypeSession EntryType = "Session"
	EntryTypeKeynote EntryType = "Keynote"
	EntryTypeBreak   EntryType = "Break"
	EntryTypeEvent   EntryType = "Event"
	EntryTypeSponsor EntryType = "Sponsor"
)

// EntryTypes lists the accepted entry types.
var EntryTypes = []EntryType{EntryTypeSession, EntryTypeKeynote, EntryTypeBreak, EntryTypeEvent, EntryTypeSponsor}

// DefaultSpeakerPhone is stored when an administrator leaves the phone blank.
const DefaultSpeakerPhone = "1234567890"

// Speaker is a presenter identity together with the talks they own.
type Speaker struct {
	ID               int64
	SpeakerID        string
	Name             string
	Phone            string
	PersonalSessions []PersonalSession
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PersonalSession is a talk owned by one speaker.
type PersonalSession struct {
	ID        int64
	SpeakerID string
	Title     string
	Time      string
	Venue     string
}

// ScheduleEntry is a master schedule row. Day and Time are free text.
type ScheduleEntry struct {
	ID                 int64
	Day                string
	Time               string
	Type               EntryType
	Title              string
	Venue              string
	SessionChair       *string
	SessionCoordinator *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VenueClash reports another entry booked into the same venue and slot.
type VenueClash struct {
	EntryID int64
	Day     string
	Time    string
	Venue   string
}

// PersonalSessionInput captures one personal session row from the admin form.
type PersonalSessionInput struct {
	Title string
	Time  string
	Venue string
}

// SpeakerInput captures caller provided speaker fields.
type SpeakerInput struct {
	SpeakerID        string `validate:"required,max=64" field:"speaker_id"`
	Name             string `validate:"required,max=200" field:"name"`
	Phone            string `validate:"max=32" field:"phone"`
	PersonalSessions []PersonalSessionInput
}

// SaveSpeakerParams wraps a create (ID == 0) or update request.
type SaveSpeakerParams struct {
	Principal Principal
	ID        int64
	Input     SpeakerInput
}

// EntryInput captures caller provided schedule entry fields.
type EntryInput struct {
	Day                string `validate:"max=100" field:"day"`
	Time               string `validate:"max=100" field:"time"`
	Type               string `validate:"omitempty,oneof=Session Keynote Break Event Sponsor" field:"type"`
	Title              string `validate:"required,max=300" field:"title"`
	Venue              string `validate:"max=200" field:"venue"`
	SessionChair       string `validate:"max=200" field:"session_chair"`
	SessionCoordinator string `validate:"max=200" field:"session_coordinator"`
}

// SaveEntryParams wraps a create (ID == 0) or update request.
type SaveEntryParams struct {
	Principal Principal
	ID        int64
	Input     EntryInput
}

// SaveEntryResult is the stored entry plus any venue clashes it introduced.
type SaveEntryResult struct {
	Entry    ScheduleEntry
	Warnings []VenueClash
}

// DayGroup is one day's worth of schedule entries.
type DayGroup = reconcile.DayGroup[ScheduleEntry]

// SpeakerLoginParams captures the speaker login form.
type SpeakerLoginParams struct {
	SpeakerID string
	Phone     string
}

// SpeakerLoginResult is the speaker record and the token that identifies them.
type SpeakerLoginResult struct {
	Speaker   Speaker
	Token     string
	ExpiresAt time.Time
}

// AdminUser is an administrator account without its credentials.
type AdminUser struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated admin session.
type Session struct {
	ID          string
	AdminID     string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthenticateParams captures the admin login form.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful admin login.
type AuthenticateResult struct {
	Admin   AdminUser
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}

package persistence

import "time"

// Speaker is a presenter identity. ID is the surrogate key; SpeakerID is the
// human assigned external identifier and is unique.
type Speaker struct {
	ID               int64
	SpeakerID        string
	Name             string
	Phone            string
	PersonalSessions []PersonalSession
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PersonalSession is a talk owned by one speaker, referenced by the owner's
// external identifier. Position keeps the order the admin entered them in.
type PersonalSession struct {
	ID        int64
	SpeakerID string
	Title     string
	Time      string
	Venue     string
	Position  int
}

// ScheduleEntry is a master schedule row.
type ScheduleEntry struct {
	ID                 int64
	Day                string
	Time               string
	Type               string
	Title              string
	Venue              string
	SessionChair       *string
	SessionCoordinator *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AdminUser is an account allowed to manage speakers and the schedule.
type AdminUser struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is an admin authentication session.
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

package client

import "time"

// EntryType classifies master schedule rows.
type EntryType string

const (
	EntryTypeSession EntryType = "Session"
	EntryTypeKeynote EntryType = "Keynote"
	EntryTypeBreak   EntryType = "Break"
	EntryTypeEvent   EntryType = "Event"
	EntryTypeSponsor EntryType = "Sponsor"
)

// EntryTypes lists the accepted values in form order.
var EntryTypes = []EntryType{EntryTypeSession, EntryTypeKeynote, EntryTypeBreak, EntryTypeEvent, EntryTypeSponsor}

// Speaker is the identity record of a presenter.
type Speaker struct {
	ID               int64             `json:"id,omitempty"`
	SpeakerID        string            `json:"speaker_id"`
	Name             string            `json:"name"`
	Phone            string            `json:"phone"`
	PersonalSessions []PersonalSession `json:"personal_sessions,omitempty"`
}

// PersonalSession is a talk owned by one speaker.
type PersonalSession struct {
	ID        int64  `json:"id,omitempty"`
	SpeakerID string `json:"speaker_id,omitempty"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	Venue     string `json:"venue"`
}

// ScheduleEntry is a master schedule row.
type ScheduleEntry struct {
	ID                 int64     `json:"id,omitempty"`
	Day                string    `json:"day"`
	Time               string    `json:"time"`
	Type               EntryType `json:"type"`
	Title              string    `json:"title"`
	Venue              string    `json:"venue"`
	SessionChair       string    `json:"session_chair,omitempty"`
	SessionCoordinator string    `json:"session_coordinator,omitempty"`
}

// VenueClash reports another entry booked into the same venue and slot.
type VenueClash struct {
	EntryID int64  `json:"entry_id"`
	Day     string `json:"day"`
	Time    string `json:"time"`
	Venue   string `json:"venue"`
}

// SpeakerLogin is the result of a successful speaker sign-in.
type SpeakerLogin struct {
	Speaker   Speaker   `json:"speaker"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminAccount describes an administrator.
type AdminAccount struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AdminSession is an issued admin session.
type AdminSession struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     AdminAccount `json:"admin"`
}

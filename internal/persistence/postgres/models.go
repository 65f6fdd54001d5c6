package postgres

import (
	"database/sql"
	"time"

	"github.com/example/conference-portal/internal/persistence"
)

type speakerRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	SpeakerID string `gorm:"column:speaker_id;not null;uniqueIndex"`
	Name      string `gorm:"not null"`
	Phone     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (speakerRow) TableName() string { return "speakers" }

type personalSessionRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	SpeakerID string `gorm:"column:speaker_id;not null;index:idx_personal_sessions_speaker,priority:1"`
	Title     string `gorm:"not null"`
	Time      string `gorm:"not null;default:''"`
	Venue     string `gorm:"not null;default:''"`
	Position  int    `gorm:"not null;default:0;index:idx_personal_sessions_speaker,priority:2"`
}

func (personalSessionRow) TableName() string { return "personal_sessions" }

type scheduleRow struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	Day                string `gorm:"not null;default:''"`
	Time               string `gorm:"not null;default:''"`
	Type               string `gorm:"not null;check:chk_schedule_type,type IN ('Session','Keynote','Break','Event','Sponsor')"`
	Title              string `gorm:"not null"`
	Venue              string `gorm:"not null;default:''"`
	SessionChair       sql.NullString
	SessionCoordinator sql.NullString
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (scheduleRow) TableName() string { return "schedule" }

type adminUserRow struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	DisplayName  string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (adminUserRow) TableName() string { return "admin_users" }

type adminSessionRow struct {
	ID          string       `gorm:"primaryKey"`
	AdminID     string       `gorm:"not null;index"`
	Admin       adminUserRow `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE"`
	Token       string       `gorm:"not null;uniqueIndex"`
	Fingerprint string       `gorm:"not null;default:''"`
	ExpiresAt   time.Time    `gorm:"not null;index"`
	RevokedAt   sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (adminSessionRow) TableName() string { return "admin_sessions" }

func toSpeaker(row speakerRow, sessions []personalSessionRow) persistence.Speaker {
	s := persistence.Speaker{
		ID:        row.ID,
		SpeakerID: row.SpeakerID,
		Name:      row.Name,
		Phone:     row.Phone,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	for _, ps := range sessions {
		s.PersonalSessions = append(s.PersonalSessions, toPersonalSession(ps))
	}
	return s
}

func toPersonalSession(row personalSessionRow) persistence.PersonalSession {
	return persistence.PersonalSession{
		ID:        row.ID,
		SpeakerID: row.SpeakerID,
		Title:     row.Title,
		Time:      row.Time,
		Venue:     row.Venue,
		Position:  row.Position,
	}
}

func toScheduleEntry(row scheduleRow) persistence.ScheduleEntry {
	return persistence.ScheduleEntry{
		ID:                 row.ID,
		Day:                row.Day,
		Time:               row.Time,
		Type:               row.Type,
		Title:              row.Title,
		Venue:              row.Venue,
		SessionChair:       fromNull(row.SessionChair),
		SessionCoordinator: fromNull(row.SessionCoordinator),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}

func fromScheduleEntry(e persistence.ScheduleEntry) scheduleRow {
	return scheduleRow{
		ID:                 e.ID,
		Day:                e.Day,
		Time:               e.Time,
		Type:               e.Type,
		Title:              e.Title,
		Venue:              e.Venue,
		SessionChair:       toNull(e.SessionChair),
		SessionCoordinator: toNull(e.SessionCoordinator),
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toAdminUser(row adminUserRow) persistence.AdminUser {
	return persistence.AdminUser{
		ID:           row.ID,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func toSession(row adminSessionRow) persistence.Session {
	s := persistence.Session{
		ID:          row.ID,
		AdminID:     row.AdminID,
		Token:       row.Token,
		Fingerprint: row.Fingerprint,
		ExpiresAt:   row.ExpiresAt.UTC(),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if row.RevokedAt.Valid {
		t := row.RevokedAt.Time.UTC()
		s.RevokedAt = &t
	}
	return s
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

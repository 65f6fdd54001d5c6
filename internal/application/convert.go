package application

import (
	"errors"
	"strings"

	"github.com/example/conference-portal/internal/persistence"
)

func speakerFromRecord(r persistence.Speaker) Speaker {
	s := Speaker{
		ID:        r.ID,
		SpeakerID: r.SpeakerID,
		Name:      r.Name,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	s.PersonalSessions = personalSessionsFromRecords(r.PersonalSessions)
	return s
}

func personalSessionsFromRecords(records []persistence.PersonalSession) []PersonalSession {
	if len(records) == 0 {
		return nil
	}
	out := make([]PersonalSession, 0, len(records))
	for _, r := range records {
		out = append(out, PersonalSession{
			ID:        r.ID,
			SpeakerID: r.SpeakerID,
			Title:     r.Title,
			Time:      r.Time,
			Venue:     r.Venue,
		})
	}
	return out
}

func entryFromRecord(r persistence.ScheduleEntry) ScheduleEntry {
	return ScheduleEntry{
		ID:                 r.ID,
		Day:                r.Day,
		Time:               r.Time,
		Type:               EntryType(r.Type),
		Title:              r.Title,
		Venue:              r.Venue,
		SessionChair:       cloneString(r.SessionChair),
		SessionCoordinator: cloneString(r.SessionCoordinator),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func entryToRecord(e ScheduleEntry) persistence.ScheduleEntry {
	return persistence.ScheduleEntry{
		ID:                 e.ID,
		Day:                e.Day,
		Time:               e.Time,
		Type:               string(e.Type),
		Title:              e.Title,
		Venue:              e.Venue,
		SessionChair:       cloneString(e.SessionChair),
		SessionCoordinator: cloneString(e.SessionCoordinator),
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func adminFromRecord(r persistence.AdminUser) AdminUser {
	return AdminUser{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func sessionFromRecord(r persistence.Session) Session {
	return Session{
		ID:          r.ID,
		AdminID:     r.AdminID,
		Token:       r.Token,
		Fingerprint: r.Fingerprint,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		RevokedAt:   r.RevokedAt,
	}
}

func sessionToRecord(s Session) persistence.Session {
	return persistence.Session{
		ID:          s.ID,
		AdminID:     s.AdminID,
		Token:       s.Token,
		Fingerprint: s.Fingerprint,
		ExpiresAt:   s.ExpiresAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		RevokedAt:   s.RevokedAt,
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// optionalString maps blank form values to nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

// mapRepoError translates persistence sentinels into service errors. field
// names the input that a uniqueness or constraint failure should be reported
// against.
func mapRepoError(err error, field string) error {
	switch {
	case err == nil:
		return nil
	case isNotFoundError(err):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation), errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add(field, field+" is invalid")
		return vErr
	}
	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/conference-portal/internal/persistence"
)

// SpeakerRepository implements persistence.SpeakerRepository using SQLite.
type SpeakerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewSpeakerRepository creates a SQLite speaker repository.
func NewSpeakerRepository(pool *ConnectionPool) *SpeakerRepository {
	return &SpeakerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

const speakerColumns = `id, speaker_id, name, phone, created_at, updated_at`

// ListSpeakers returns all speakers, newest first, with their sessions.
func (r *SpeakerRepository) ListSpeakers(ctx context.Context) ([]persistence.Speaker, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+speakerColumns+` FROM speakers ORDER BY id DESC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var speakers []persistence.Speaker
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		speakers = append(speakers, speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	if len(speakers) == 0 {
		return speakers, nil
	}

	sessions, err := r.allSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range speakers {
		speakers[i].PersonalSessions = sessions[speakers[i].SpeakerID]
	}
	return speakers, nil
}

// GetSpeaker loads one speaker by surrogate id.
func (r *SpeakerRepository) GetSpeaker(ctx context.Context, id int64) (persistence.Speaker, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE id = ?`, id)
	return r.withSessions(ctx, row)
}

// FindSpeakerByCredentials returns the speaker whose external id and phone
// both match exactly.
func (r *SpeakerRepository) FindSpeakerByCredentials(ctx context.Context, speakerID, phone string) (persistence.Speaker, error) {
	if speakerID == "" || phone == "" {
		return persistence.Speaker{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE speaker_id = ? AND phone = ?`, speakerID, phone)
	return r.withSessions(ctx, row)
}

// FindSpeakerBySpeakerID looks up the speaker row by external id.
func (r *SpeakerRepository) FindSpeakerBySpeakerID(ctx context.Context, speakerID string) (persistence.Speaker, error) {
	if speakerID == "" {
		return persistence.Speaker{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE speaker_id = ?`, speakerID)
	speaker, err := scanSpeaker(row)
	if err != nil {
		return persistence.Speaker{}, r.mapper.MapError(err)
	}
	return speaker, nil
}

func (r *SpeakerRepository) withSessions(ctx context.Context, row *sql.Row) (persistence.Speaker, error) {
	speaker, err := scanSpeaker(row)
	if err != nil {
		return persistence.Speaker{}, r.mapper.MapError(err)
	}
	speaker.PersonalSessions, err = r.ListPersonalSessions(ctx, speaker.SpeakerID)
	if err != nil {
		return persistence.Speaker{}, err
	}
	return speaker, nil
}

// SaveSpeaker upserts the speaker and replaces its personal sessions in a
// single transaction. Renaming the external id also drops the sessions filed
// under the previous id.
func (r *SpeakerRepository) SaveSpeaker(ctx context.Context, speaker persistence.Speaker) (persistence.Speaker, error) {
	speaker.SpeakerID = strings.TrimSpace(speaker.SpeakerID)
	speaker.Name = strings.TrimSpace(speaker.Name)
	if speaker.SpeakerID == "" || speaker.Name == "" {
		return persistence.Speaker{}, persistence.ErrConstraintViolation
	}

	var saved persistence.Speaker
	err := r.retry.WithRetry(ctx, func() error {
		var err error
		saved, err = r.saveSpeakerTx(ctx, speaker)
		return err
	})
	if err != nil {
		return persistence.Speaker{}, r.mapper.MapError(err)
	}
	return saved, nil
}

func (r *SpeakerRepository) saveSpeakerTx(ctx context.Context, speaker persistence.Speaker) (persistence.Speaker, error) {
	now := r.now().UTC().Truncate(time.Second)
	speaker.UpdatedAt = now

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if speaker.ID == 0 {
			speaker.CreatedAt = now
			result, err := tx.ExecContext(ctx, `
				INSERT INTO speakers (speaker_id, name, phone, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)`,
				speaker.SpeakerID, speaker.Name, speaker.Phone, formatTime(now), formatTime(now),
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if speaker.ID, err = result.LastInsertId(); err != nil {
				return err
			}
		} else {
			var previousID, createdAt string
			err := tx.QueryRowContext(ctx, `SELECT speaker_id, created_at FROM speakers WHERE id = ?`, speaker.ID).
				Scan(&previousID, &createdAt)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if speaker.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE speakers SET speaker_id = ?, name = ?, phone = ?, updated_at = ?
				WHERE id = ?`,
				speaker.SpeakerID, speaker.Name, speaker.Phone, formatTime(now), speaker.ID,
			); err != nil {
				return r.mapper.MapError(err)
			}
			if previousID != speaker.SpeakerID {
				if _, err := tx.ExecContext(ctx, `DELETE FROM personal_sessions WHERE speaker_id = ?`, previousID); err != nil {
					return r.mapper.MapError(err)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM personal_sessions WHERE speaker_id = ?`, speaker.SpeakerID); err != nil {
			return r.mapper.MapError(err)
		}

		sessions := make([]persistence.PersonalSession, 0, len(speaker.PersonalSessions))
		for i, session := range speaker.PersonalSessions {
			session.SpeakerID = speaker.SpeakerID
			session.Position = i
			result, err := tx.ExecContext(ctx, `
				INSERT INTO personal_sessions (speaker_id, title, time, venue, position)
				VALUES (?, ?, ?, ?, ?)`,
				session.SpeakerID, session.Title, session.Time, session.Venue, session.Position,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if session.ID, err = result.LastInsertId(); err != nil {
				return err
			}
			sessions = append(sessions, session)
		}
		speaker.PersonalSessions = sessions
		return nil
	})
	if err != nil {
		return persistence.Speaker{}, err
	}
	return speaker, nil
}

// DeleteSpeaker removes the speaker row. Personal sessions are left alone.
func (r *SpeakerRepository) DeleteSpeaker(ctx context.Context, id int64) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM speakers WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return checkAffected(result)
}

// ListPersonalSessions returns the sessions filed under speakerID in entry order.
func (r *SpeakerRepository) ListPersonalSessions(ctx context.Context, speakerID string) ([]persistence.PersonalSession, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, speaker_id, title, time, venue, position
		FROM personal_sessions
		WHERE speaker_id = ?
		ORDER BY position ASC, id ASC`, speakerID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.PersonalSession
	for rows.Next() {
		var s persistence.PersonalSession
		if err := rows.Scan(&s.ID, &s.SpeakerID, &s.Title, &s.Time, &s.Venue, &s.Position); err != nil {
			return nil, r.mapper.MapError(err)
		}
		sessions = append(sessions, s)
	}
	return sessions, r.mapper.MapError(rows.Err())
}

func (r *SpeakerRepository) allSessions(ctx context.Context) (map[string][]persistence.PersonalSession, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, speaker_id, title, time, venue, position
		FROM personal_sessions
		ORDER BY speaker_id, position ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	out := make(map[string][]persistence.PersonalSession)
	for rows.Next() {
		var s persistence.PersonalSession
		if err := rows.Scan(&s.ID, &s.SpeakerID, &s.Title, &s.Time, &s.Venue, &s.Position); err != nil {
			return nil, r.mapper.MapError(err)
		}
		out[s.SpeakerID] = append(out[s.SpeakerID], s)
	}
	return out, r.mapper.MapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpeaker(row rowScanner) (persistence.Speaker, error) {
	var (
		s                    persistence.Speaker
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.ID, &s.SpeakerID, &s.Name, &s.Phone, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Speaker{}, persistence.ErrNotFound
		}
		return persistence.Speaker{}, err
	}
	var err error
	if s.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Speaker{}, err
	}
	if s.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Speaker{}, err
	}
	return s, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/conference-portal/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewScheduleRepository creates a SQLite schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

const scheduleColumns = `id, day, time, type, title, venue, session_chair, session_coordinator, created_at, updated_at`

// ListSchedule returns every entry in creation order.
func (r *ScheduleRepository) ListSchedule(ctx context.Context) ([]persistence.ScheduleEntry, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+scheduleColumns+` FROM schedule ORDER BY id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.ScheduleEntry
	for rows.Next() {
		entry, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, r.mapper.MapError(rows.Err())
}

// GetScheduleEntry loads one entry.
func (r *ScheduleRepository) GetScheduleEntry(ctx context.Context, id int64) (persistence.ScheduleEntry, error) {
	entry, err := scanScheduleEntry(r.helper.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedule WHERE id = ?`, id))
	if err != nil {
		return persistence.ScheduleEntry{}, r.mapper.MapError(err)
	}
	return entry, nil
}

// CreateScheduleEntry inserts entry and returns it with its new id.
func (r *ScheduleRepository) CreateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) (persistence.ScheduleEntry, error) {
	if entry.Title == "" || entry.Type == "" {
		return persistence.ScheduleEntry{}, persistence.ErrConstraintViolation
	}
	now := r.now().UTC().Truncate(time.Second)
	entry.CreatedAt, entry.UpdatedAt = now, now

	result, err := r.helper.Exec(ctx, `
		INSERT INTO schedule (day, time, type, title, venue, session_chair, session_coordinator, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Day, entry.Time, entry.Type, entry.Title, entry.Venue,
		nullString(entry.SessionChair), nullString(entry.SessionCoordinator),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return persistence.ScheduleEntry{}, r.mapper.MapError(err)
	}
	if entry.ID, err = result.LastInsertId(); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	return entry, nil
}

// UpdateScheduleEntry overwrites every mutable column of entry.
func (r *ScheduleRepository) UpdateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) (persistence.ScheduleEntry, error) {
	if entry.ID == 0 || entry.Title == "" || entry.Type == "" {
		return persistence.ScheduleEntry{}, persistence.ErrConstraintViolation
	}
	current, err := r.GetScheduleEntry(ctx, entry.ID)
	if err != nil {
		return persistence.ScheduleEntry{}, err
	}
	entry.CreatedAt = current.CreatedAt
	entry.UpdatedAt = r.now().UTC().Truncate(time.Second)

	result, err := r.helper.Exec(ctx, `
		UPDATE schedule
		SET day = ?, time = ?, type = ?, title = ?, venue = ?, session_chair = ?, session_coordinator = ?, updated_at = ?
		WHERE id = ?`,
		entry.Day, entry.Time, entry.Type, entry.Title, entry.Venue,
		nullString(entry.SessionChair), nullString(entry.SessionCoordinator),
		formatTime(entry.UpdatedAt), entry.ID,
	)
	if err != nil {
		return persistence.ScheduleEntry{}, r.mapper.MapError(err)
	}
	if err := checkAffected(result); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	return entry, nil
}

// DeleteScheduleEntry removes one entry.
func (r *ScheduleRepository) DeleteScheduleEntry(ctx context.Context, id int64) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM schedule WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return checkAffected(result)
}

func scanScheduleEntry(row rowScanner) (persistence.ScheduleEntry, error) {
	var (
		e                    persistence.ScheduleEntry
		chair, coordinator   sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&e.ID, &e.Day, &e.Time, &e.Type, &e.Title, &e.Venue, &chair, &coordinator, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ScheduleEntry{}, persistence.ErrNotFound
		}
		return persistence.ScheduleEntry{}, err
	}
	e.SessionChair = stringPtr(chair)
	e.SessionCoordinator = stringPtr(coordinator)
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	return e, nil
}

// Package postgres implements the persistence repositories on PostgreSQL
// through gorm. It backs hosted deployments; the schema is kept in step with
// the SQLite migrations by AutoMigrate.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/conference-portal/internal/persistence"
)

// Config holds connection pool settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns pool settings suitable for a small hosted instance.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxOpenConns:    20,
		MaxIdleConns:    10,
		ConnMaxIdleTime: 60 * time.Second,
		ConnMaxLifetime: 10 * time.Minute,
	}
}

// IsURL reports whether databaseURL selects this backend.
func IsURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// Store implements persistence.Store on gorm.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ persistence.Store = (*Store)(nil)

// Open connects to PostgreSQL and tunes the pool.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return &Store{db: db, logger: logger.With("component", "postgres"), now: time.Now}, nil
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&speakerRow{},
		&personalSessionRow{},
		&scheduleRow{},
		&adminUserRow{},
		&adminSessionRow{},
	)
	if err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}
	s.logger.InfoContext(ctx, "postgres schema migrated")
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return persistence.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

func affected(tx *gorm.DB) error {
	if tx.Error != nil {
		return mapError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListSpeakers returns every speaker, newest first, with personal sessions.
func (s *Store) ListSpeakers(ctx context.Context) ([]persistence.Speaker, error) {
	var rows []speakerRow
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var sessions []personalSessionRow
	if err := s.db.WithContext(ctx).Order("speaker_id, position, id").Find(&sessions).Error; err != nil {
		return nil, mapError(err)
	}
	bySpeaker := make(map[string][]personalSessionRow)
	for _, ps := range sessions {
		bySpeaker[ps.SpeakerID] = append(bySpeaker[ps.SpeakerID], ps)
	}
	out := make([]persistence.Speaker, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSpeaker(row, bySpeaker[row.SpeakerID]))
	}
	return out, nil
}

// GetSpeaker loads one speaker by surrogate id.
func (s *Store) GetSpeaker(ctx context.Context, id int64) (persistence.Speaker, error) {
	var row speakerRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return persistence.Speaker{}, mapError(err)
	}
	return s.withSessions(ctx, row)
}

// FindSpeakerByCredentials matches both fields exactly.
func (s *Store) FindSpeakerByCredentials(ctx context.Context, speakerID, phone string) (persistence.Speaker, error) {
	if speakerID == "" || phone == "" {
		return persistence.Speaker{}, persistence.ErrNotFound
	}
	var row speakerRow
	err := s.db.WithContext(ctx).
		Where("speaker_id = ? AND phone = ?", speakerID, phone).
		First(&row).Error
	if err != nil {
		return persistence.Speaker{}, mapError(err)
	}
	return s.withSessions(ctx, row)
}

// FindSpeakerBySpeakerID returns the speaker row without its sessions.
func (s *Store) FindSpeakerBySpeakerID(ctx context.Context, speakerID string) (persistence.Speaker, error) {
	if speakerID == "" {
		return persistence.Speaker{}, persistence.ErrNotFound
	}
	var row speakerRow
	if err := s.db.WithContext(ctx).Where("speaker_id = ?", speakerID).First(&row).Error; err != nil {
		return persistence.Speaker{}, mapError(err)
	}
	return toSpeaker(row, nil), nil
}

func (s *Store) withSessions(ctx context.Context, row speakerRow) (persistence.Speaker, error) {
	var sessions []personalSessionRow
	err := s.db.WithContext(ctx).
		Where("speaker_id = ?", row.SpeakerID).
		Order("position, id").
		Find(&sessions).Error
	if err != nil {
		return persistence.Speaker{}, mapError(err)
	}
	return toSpeaker(row, sessions), nil
}

// SaveSpeaker upserts the speaker and replaces its personal sessions in one
// transaction, removing rows left under a previous external id.
func (s *Store) SaveSpeaker(ctx context.Context, speaker persistence.Speaker) (persistence.Speaker, error) {
	speaker.SpeakerID = strings.TrimSpace(speaker.SpeakerID)
	speaker.Name = strings.TrimSpace(speaker.Name)
	if speaker.SpeakerID == "" || speaker.Name == "" {
		return persistence.Speaker{}, persistence.ErrConstraintViolation
	}

	row := speakerRow{ID: speaker.ID, SpeakerID: speaker.SpeakerID, Name: speaker.Name, Phone: speaker.Phone}
	var sessions []personalSessionRow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.ID == 0 {
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		} else {
			var current speakerRow
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, row.ID).Error; err != nil {
				return err
			}
			row.CreatedAt = current.CreatedAt
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
			if current.SpeakerID != row.SpeakerID {
				if err := tx.Where("speaker_id = ?", current.SpeakerID).Delete(&personalSessionRow{}).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Where("speaker_id = ?", row.SpeakerID).Delete(&personalSessionRow{}).Error; err != nil {
			return err
		}
		for i, ps := range speaker.PersonalSessions {
			sessions = append(sessions, personalSessionRow{
				SpeakerID: row.SpeakerID,
				Title:     ps.Title,
				Time:      ps.Time,
				Venue:     ps.Venue,
				Position:  i,
			})
		}
		if len(sessions) > 0 {
			return tx.Create(&sessions).Error
		}
		return nil
	})
	if err != nil {
		return persistence.Speaker{}, mapError(err)
	}
	return toSpeaker(row, sessions), nil
}

// DeleteSpeaker removes the speaker row only.
func (s *Store) DeleteSpeaker(ctx context.Context, id int64) error {
	return affected(s.db.WithContext(ctx).Delete(&speakerRow{}, id))
}

// ListPersonalSessions returns the sessions filed under speakerID.
func (s *Store) ListPersonalSessions(ctx context.Context, speakerID string) ([]persistence.PersonalSession, error) {
	var rows []personalSessionRow
	err := s.db.WithContext(ctx).
		Where("speaker_id = ?", speakerID).
		Order("position, id").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err)
	}
	var out []persistence.PersonalSession
	for _, row := range rows {
		out = append(out, toPersonalSession(row))
	}
	return out, nil
}

// ListSchedule returns entries in creation order.
func (s *Store) ListSchedule(ctx context.Context) ([]persistence.ScheduleEntry, error) {
	var rows []scheduleRow
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	var out []persistence.ScheduleEntry
	for _, row := range rows {
		out = append(out, toScheduleEntry(row))
	}
	return out, nil
}

// GetScheduleEntry loads one entry.
func (s *Store) GetScheduleEntry(ctx context.Context, id int64) (persistence.ScheduleEntry, error) {
	var row scheduleRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return persistence.ScheduleEntry{}, mapError(err)
	}
	return toScheduleEntry(row), nil
}

// CreateScheduleEntry inserts entry.
func (s *Store) CreateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) (persistence.ScheduleEntry, error) {
	if entry.Title == "" || entry.Type == "" {
		return persistence.ScheduleEntry{}, persistence.ErrConstraintViolation
	}
	entry.ID = 0
	row := fromScheduleEntry(entry)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return persistence.ScheduleEntry{}, mapError(err)
	}
	return toScheduleEntry(row), nil
}

// UpdateScheduleEntry overwrites the mutable columns of entry.
func (s *Store) UpdateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) (persistence.ScheduleEntry, error) {
	if entry.ID == 0 || entry.Title == "" || entry.Type == "" {
		return persistence.ScheduleEntry{}, persistence.ErrConstraintViolation
	}
	row := fromScheduleEntry(entry)
	row.UpdatedAt = s.now().UTC()
	result := s.db.WithContext(ctx).Model(&scheduleRow{ID: entry.ID}).
		Select("day", "time", "type", "title", "venue", "session_chair", "session_coordinator", "updated_at").
		Updates(&row)
	if err := affected(result); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	return s.GetScheduleEntry(ctx, entry.ID)
}

// DeleteScheduleEntry removes one entry.
func (s *Store) DeleteScheduleEntry(ctx context.Context, id int64) error {
	return affected(s.db.WithContext(ctx).Delete(&scheduleRow{}, id))
}

// CreateAdminUser inserts an administrator with a lower case email.
func (s *Store) CreateAdminUser(ctx context.Context, user persistence.AdminUser) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if user.ID == "" || email == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	row := adminUserRow{
		ID:           user.ID,
		Email:        email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	return mapError(s.db.WithContext(ctx).Create(&row).Error)
}

// GetAdminUser loads an administrator by id.
func (s *Store) GetAdminUser(ctx context.Context, id string) (persistence.AdminUser, error) {
	var row adminUserRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return persistence.AdminUser{}, mapError(err)
	}
	return toAdminUser(row), nil
}

// GetAdminUserByEmail looks an administrator up case-insensitively.
func (s *Store) GetAdminUserByEmail(ctx context.Context, email string) (persistence.AdminUser, error) {
	var row adminUserRow
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&row).Error
	if err != nil {
		return persistence.AdminUser{}, mapError(err)
	}
	return toAdminUser(row), nil
}

// CountAdminUsers reports how many administrators exist.
func (s *Store) CountAdminUsers(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&adminUserRow{}).Count(&n).Error; err != nil {
		return 0, mapError(err)
	}
	return int(n), nil
}

// CreateSession stores a new admin session.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.AdminID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	row := adminSessionRow{
		ID:          session.ID,
		AdminID:     session.AdminID,
		Token:       strings.TrimSpace(session.Token),
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt.UTC(),
		CreatedAt:   session.CreatedAt.UTC(),
	}
	if session.RevokedAt != nil {
		row.RevokedAt.Time, row.RevokedAt.Valid = session.RevokedAt.UTC(), true
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return persistence.Session{}, mapError(err)
	}
	return toSession(row), nil
}

// GetSession looks a session up by token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	var row adminSessionRow
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return persistence.Session{}, mapError(err)
	}
	return toSession(row), nil
}

// UpdateSession rewrites token, fingerprint, expiry and revocation.
func (s *Store) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	updates := map[string]any{
		"token":       strings.TrimSpace(session.Token),
		"fingerprint": session.Fingerprint,
		"expires_at":  session.ExpiresAt.UTC(),
		"revoked_at":  nil,
		"updated_at":  s.now().UTC(),
	}
	if session.RevokedAt != nil {
		updates["revoked_at"] = session.RevokedAt.UTC()
	}
	result := s.db.WithContext(ctx).Model(&adminSessionRow{}).Where("id = ?", session.ID).Updates(updates)
	if err := affected(result); err != nil {
		return persistence.Session{}, err
	}
	return s.GetSession(ctx, session.Token)
}

// RevokeSession stamps revoked_at on the session holding token.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	result := s.db.WithContext(ctx).Model(&adminSessionRow{}).
		Where("token = ?", strings.TrimSpace(token)).
		Updates(map[string]any{"revoked_at": revokedAt.UTC(), "updated_at": revokedAt.UTC()})
	if err := affected(result); err != nil {
		return persistence.Session{}, err
	}
	return s.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired at or before reference.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapError(s.db.WithContext(ctx).Where("expires_at <= ?", reference.UTC()).Delete(&adminSessionRow{}).Error)
}

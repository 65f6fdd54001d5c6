package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/conference-portal/internal/persistence"
)

// AdminUserRepository implements persistence.AdminUserRepository using SQLite.
type AdminUserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewAdminUserRepository creates a SQLite admin user repository.
func NewAdminUserRepository(pool *ConnectionPool) *AdminUserRepository {
	return &AdminUserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

// CreateAdminUser inserts a new administrator. Emails are stored lower case.
func (r *AdminUserRepository) CreateAdminUser(ctx context.Context, user persistence.AdminUser) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	email := normalizeEmail(user.Email)
	if email == "" {
		return persistence.ErrConstraintViolation
	}

	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO admin_users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, email, user.DisplayName, user.PasswordHash,
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetAdminUser loads an administrator by id.
func (r *AdminUserRepository) GetAdminUser(ctx context.Context, id string) (persistence.AdminUser, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM admin_users WHERE id = ?`, id)
	return r.scan(row)
}

// GetAdminUserByEmail looks an administrator up case-insensitively.
func (r *AdminUserRepository) GetAdminUserByEmail(ctx context.Context, email string) (persistence.AdminUser, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM admin_users WHERE email = ?`, normalizeEmail(email))
	return r.scan(row)
}

// CountAdminUsers reports how many administrators exist.
func (r *AdminUserRepository) CountAdminUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return n, nil
}

func (r *AdminUserRepository) scan(row *sql.Row) (persistence.AdminUser, error) {
	var (
		u                    persistence.AdminUser
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AdminUser{}, persistence.ErrNotFound
		}
		return persistence.AdminUser{}, r.mapper.MapError(err)
	}
	var err error
	if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.AdminUser{}, err
	}
	if u.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.AdminUser{}, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

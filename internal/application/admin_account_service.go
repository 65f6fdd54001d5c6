package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/conference-portal/internal/persistence"
)

// AdminAccountService bootstraps administrator accounts.
type AdminAccountService struct {
	admins      persistence.AdminUserRepository
	idGenerator func() string
	now         func() time.Time
	params      Argon2idParams
	logger      *slog.Logger
}

// NewAdminAccountService wires dependencies for account bootstrap.
func NewAdminAccountService(admins persistence.AdminUserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AdminAccountService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &AdminAccountService{
		admins:      admins,
		idGenerator: idGenerator,
		now:         now,
		params:      DefaultArgon2idParams,
		logger:      defaultLogger(logger),
	}
}

// EnsureAdmin creates the administrator when no account with email exists.
// It reports whether an account was created. An existing account is left
// untouched, including its password.
func (s *AdminAccountService) EnsureAdmin(ctx context.Context, email, password, displayName string) (created bool, err error) {
	if s == nil {
		return false, fmt.Errorf("AdminAccountService is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Administrator"
	}

	started := time.Now()
	logger := serviceLogger(ctx, s.logger, "AdminAccountService", "EnsureAdmin", "email", email)
	defer func() { logOutcome(ctx, logger, started, "admin bootstrap", err, "created", created) }()

	vErr := &ValidationError{}
	if _, parseErr := mail.ParseAddress(email); email == "" || parseErr != nil {
		vErr.add("email", "email must be a valid address")
	}
	if len(password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return false, vErr
	}

	if _, err := s.admins.GetAdminUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !isNotFoundError(err) {
		return false, err
	}

	hash, err := CreatePasswordHash(password, s.params)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	now := s.now().UTC()
	err = s.admins.CreateAdminUser(ctx, persistence.AdminUser{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return false, mapRepoError(err, "email")
	}
	return true, nil
}

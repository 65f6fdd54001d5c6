package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/conference-portal/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates administrator login, session refresh and logout.
type AuthService struct {
	admins         persistence.AdminUserRepository
	sessions       persistence.SessionRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(admins persistence.AdminUserRepository, sessions persistence.SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(admins, sessions, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(admins persistence.AdminUserRepository, sessions persistence.SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AuthService{
		admins:         admins,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.admins == nil || s.sessions == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	started := time.Now()
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		logOutcome(ctx, logger, started, "admin authentication", err, "admin_id", result.Admin.ID)
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	record, err := s.admins.GetAdminUserByEmail(ctx, email)
	if err != nil {
		if isNotFoundError(err) {
			err = ErrInvalidCredentials
		}
		return
	}
	if err = s.verifyPassword(record.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now().UTC()
	session := Session{
		ID:          s.tokenGenerator(),
		AdminID:     record.ID,
		Token:       s.tokenGenerator(),
		Fingerprint: strings.TrimSpace(params.Fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if session.Token == "" || session.Token == session.ID {
		err = fmt.Errorf("token generator returned unusable token")
		return
	}

	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}
	persisted, err := s.sessions.CreateSession(ctx, sessionToRecord(session))
	if err != nil {
		err = mapRepoError(err, "session")
		return
	}

	result = AuthenticateResult{Admin: adminFromRecord(record), Session: sessionFromRecord(persisted)}
	return
}

// RefreshSession rotates an existing session token, extending its validity window.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	token := strings.TrimSpace(params.Token)
	started := time.Now()
	logger := s.loggerWith(ctx, "RefreshSession", "token_provided", token != "")
	defer func() {
		logOutcome(ctx, logger, started, "session refresh", err, "session_id", result.Session.ID)
	}()

	session, err := s.activeSession(ctx, token)
	if err != nil {
		return
	}

	now := s.now().UTC()
	if newToken := s.tokenGenerator(); newToken != "" {
		session.Token = newToken
	}
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if fp := strings.TrimSpace(params.Fingerprint); fp != "" {
		session.Fingerprint = fp
	}

	updated, err := s.sessions.UpdateSession(ctx, sessionToRecord(session))
	if err != nil {
		err = mapRepoError(err, "session")
		return
	}
	result = RefreshSessionResult{Session: sessionFromRecord(updated)}
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "RevokeSession")
	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now().UTC()); err != nil {
		if isNotFoundError(err) {
			logger.WarnContext(ctx, "failed to revoke session", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
			return ErrUnauthorized
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that token belongs to an active session and returns
// the administrator principal together with the session.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, session Session, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil || s.admins == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.DebugContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	session, err = s.activeSession(ctx, trimmed)
	if err != nil {
		return
	}
	if _, err = s.admins.GetAdminUser(ctx, session.AdminID); err != nil {
		if isNotFoundError(err) {
			err = ErrUnauthorized
		}
		return
	}
	principal = Principal{AdminID: session.AdminID, IsAdmin: true}
	return
}

// CurrentAdmin resolves the account behind an active session token.
func (s *AuthService) CurrentAdmin(ctx context.Context, token string) (AdminUser, Session, error) {
	principal, session, err := s.ValidateSession(ctx, token)
	if err != nil {
		return AdminUser{}, Session{}, err
	}
	record, err := s.admins.GetAdminUser(ctx, principal.AdminID)
	if err != nil {
		return AdminUser{}, Session{}, mapRepoError(err, "admin")
	}
	return adminFromRecord(record), session, nil
}

// PruneExpiredSessions deletes every session that has expired.
func (s *AuthService) PruneExpiredSessions(ctx context.Context) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	started := time.Now()
	logger := s.loggerWith(ctx, "PruneExpiredSessions")
	defer func() { logOutcome(ctx, logger, started, "expired sessions pruned", err) }()
	return s.sessions.DeleteExpiredSessions(ctx, s.now().UTC())
}

func (s *AuthService) activeSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthorized
	}
	record, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	session := sessionFromRecord(record)
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

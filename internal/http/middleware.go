package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/example/conference-portal/internal/application"
	"github.com/example/conference-portal/internal/logging"
)

// AdminSessionValidator resolves an administrator session token.
type AdminSessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.Principal, application.Session, error)
}

// SpeakerTokenVerifier resolves a signed speaker token.
type SpeakerTokenVerifier interface {
	Verify(ctx context.Context, token string) (application.Principal, error)
}

// RequireAdmin rejects requests that do not carry an active administrator
// session and attaches the administrator principal otherwise.
func RequireAdmin(validator AdminSessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
				return
			}

			principal, _, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				writeAuthError(r.Context(), responder, w, err)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal accepts either a speaker token or an administrator
// session. Speaker tokens are tried first; a token the speaker verifier
// does not recognise is then looked up as an administrator session.
func RequirePrincipal(speakers SpeakerTokenVerifier, admins AdminSessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
				return
			}

			principal, err := speakers.Verify(r.Context(), token)
			if errors.Is(err, application.ErrUnauthorized) && admins != nil {
				principal, _, err = admins.ValidateSession(r.Context(), token)
			}
			if err != nil {
				writeAuthError(r.Context(), responder, w, err)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(ctx context.Context, responder responder, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked), errors.Is(err, application.ErrUnauthorized):
		responder.handleServiceError(ctx, w, err)
	default:
		responder.loggerFor(ctx).ErrorContext(ctx, "session validation failed", "error", err)
		responder.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: codeInternal,
			Message:   "Session validation failed.",
		})
	}
}

// RequestLogger attaches a request scoped logger and logs each request's
// status and duration.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", recorder.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

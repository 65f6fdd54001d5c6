package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/conference-portal/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logOutcome writes the single completion record every service operation emits.
// Expected client errors log at warn, everything else at error.
func logOutcome(ctx context.Context, logger *slog.Logger, started time.Time, message string, err error, attrs ...any) {
	pairs := append([]any{"duration_ms", time.Since(started).Milliseconds()}, attrs...)
	if err == nil {
		logger.InfoContext(ctx, message, append(pairs, "result", "success")...)
		return
	}
	kind := ErrorKind(err)
	pairs = append(pairs, "result", "error", "error", err, "error_kind", kind)
	if kind == "unexpected" {
		logger.ErrorContext(ctx, message, pairs...)
		return
	}
	logger.WarnContext(ctx, message, pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/conference-portal/internal/application"
)

const sessionCookieName = "session_token"

type adminAuthService interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error)
	CurrentAdmin(ctx context.Context, token string) (application.AdminUser, application.Session, error)
	RevokeSession(ctx context.Context, token string) error
}

// AuthHandler serves administrator session endpoints.
type AuthHandler struct {
	service   adminAuthService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service adminAuthService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "CreateSession", "email", email)

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Email:       email,
		Password:    req.Password,
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			logger.WarnContext(r.Context(), "authentication rejected", "error_kind", application.ErrorKind(err))
			h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
				ErrorCode: codeInvalidCredentials,
				Message:   "Invalid email or password",
			})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.Session.Token)
	logger.InfoContext(r.Context(), "administrator authenticated", "admin_id", result.Admin.ID)

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAdminSessionDTO(result.Admin, result.Session))
}

func (h *AuthHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	admin, session, err := h.service.CurrentAdmin(r.Context(), extractTokenFromRequest(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAdminSessionDTO(admin, session))
}

func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "RefreshSession")
	refreshed, err := h.service.RefreshSession(r.Context(), application.RefreshSessionParams{
		Token:       extractTokenFromRequest(r),
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	admin, session, err := h.service.CurrentAdmin(r.Context(), refreshed.Session.Token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, session.Token, session.ExpiresAt)
	w.Header().Set("X-Session-Token", session.Token)
	logger.InfoContext(r.Context(), "session refreshed", "session_id", session.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAdminSessionDTO(admin, session))
}

func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractTokenFromRequest(r)
	if token == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "DeleteCurrentSession")
	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w)
	logger.InfoContext(r.Context(), "session revoked for current principal")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type speakerLoginService interface {
	Login(ctx context.Context, params application.SpeakerLoginParams) (application.SpeakerLoginResult, error)
}

// SpeakerAuthHandler serves speaker login.
type SpeakerAuthHandler struct {
	service   speakerLoginService
	responder responder
	logger    *slog.Logger
}

func NewSpeakerAuthHandler(service speakerLoginService, logger *slog.Logger) *SpeakerAuthHandler {
	base := defaultLogger(logger)
	return &SpeakerAuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SpeakerAuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req speakerLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Login(r.Context(), application.SpeakerLoginParams{
		SpeakerID: req.SpeakerID,
		Phone:     req.Phone,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "SpeakerAuthHandler", "CreateSession").
		InfoContext(r.Context(), "speaker signed in", "speaker_id", result.Speaker.SpeakerID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, speakerLoginResponse{
		Speaker:   toSpeakerDTO(result.Speaker),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
	})
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type speakerLoginRequest struct {
	SpeakerID string `json:"speaker_id"`
	Phone     string `json:"phone"`
}

type speakerLoginResponse struct {
	Speaker   speakerDTO `json:"speaker"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type adminDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type adminSessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     adminDTO  `json:"admin"`
}

func toAdminSessionDTO(admin application.AdminUser, session application.Session) adminSessionDTO {
	return adminSessionDTO{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC(),
		Admin: adminDTO{
			ID:          admin.ID,
			Email:       admin.Email,
			DisplayName: admin.DisplayName,
		},
	}
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

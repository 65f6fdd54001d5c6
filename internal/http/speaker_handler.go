package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/conference-portal/internal/application"
)

type speakerService interface {
	ListSpeakers(ctx context.Context, principal application.Principal) ([]application.Speaker, error)
	SaveSpeaker(ctx context.Context, params application.SaveSpeakerParams) (application.Speaker, error)
	DeleteSpeaker(ctx context.Context, principal application.Principal, id int64) error
	ListPersonalSessions(ctx context.Context, principal application.Principal, speakerID string) ([]application.PersonalSession, error)
}

type SpeakerHandler struct {
	service   speakerService
	responder responder
}

func NewSpeakerHandler(service speakerService, logger *slog.Logger) *SpeakerHandler {
	return &SpeakerHandler{service: service, responder: newResponder(logger)}
}

func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	speakers, err := h.service.ListSpeakers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]speakerDTO, 0, len(speakers))
	for _, speaker := range speakers {
		dtos = append(dtos, toSpeakerDTO(speaker))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"speakers": dtos})
}

func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0, http.StatusCreated)
}

func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}
	h.save(w, r, id, http.StatusOK)
}

func (h *SpeakerHandler) save(w http.ResponseWriter, r *http.Request, id int64, status int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req speakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	speaker, err := h.service.SaveSpeaker(r.Context(), application.SaveSpeakerParams{
		Principal: principal,
		ID:        id,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, status, toSpeakerDTO(speaker))
}

func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSpeaker(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SpeakerHandler) PersonalSessions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	sessions, err := h.service.ListPersonalSessions(r.Context(), principal, r.URL.Query().Get("speaker_id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"sessions": toPersonalSessionDTOs(sessions)})
}

type personalSessionPayload struct {
	Title string `json:"title"`
	Time  string `json:"time"`
	Venue string `json:"venue"`
}

type speakerRequest struct {
	SpeakerID        string                   `json:"speaker_id"`
	Name             string                   `json:"name"`
	Phone            string                   `json:"phone"`
	PersonalSessions []personalSessionPayload `json:"personal_sessions"`
}

func (r speakerRequest) toInput() application.SpeakerInput {
	input := application.SpeakerInput{
		SpeakerID: r.SpeakerID,
		Name:      r.Name,
		Phone:     r.Phone,
	}
	for _, session := range r.PersonalSessions {
		input.PersonalSessions = append(input.PersonalSessions, application.PersonalSessionInput{
			Title: session.Title,
			Time:  session.Time,
			Venue: session.Venue,
		})
	}
	return input
}

type personalSessionDTO struct {
	ID        int64  `json:"id"`
	SpeakerID string `json:"speaker_id"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	Venue     string `json:"venue"`
}

type speakerDTO struct {
	ID               int64                `json:"id,omitempty"`
	SpeakerID        string               `json:"speaker_id"`
	Name             string               `json:"name"`
	Phone            string               `json:"phone"`
	PersonalSessions []personalSessionDTO `json:"personal_sessions"`
}

func toSpeakerDTO(speaker application.Speaker) speakerDTO {
	return speakerDTO{
		ID:               speaker.ID,
		SpeakerID:        speaker.SpeakerID,
		Name:             speaker.Name,
		Phone:            speaker.Phone,
		PersonalSessions: toPersonalSessionDTOs(speaker.PersonalSessions),
	}
}

func toPersonalSessionDTOs(sessions []application.PersonalSession) []personalSessionDTO {
	dtos := make([]personalSessionDTO, 0, len(sessions))
	for _, session := range sessions {
		dtos = append(dtos, personalSessionDTO{
			ID:        session.ID,
			SpeakerID: session.SpeakerID,
			Title:     session.Title,
			Time:      session.Time,
			Venue:     session.Venue,
		})
	}
	return dtos
}

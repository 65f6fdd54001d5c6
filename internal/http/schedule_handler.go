package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/conference-portal/internal/application"
)

type scheduleService interface {
	ListSchedule(ctx context.Context) ([]application.ScheduleEntry, error)
	GroupedSchedule(ctx context.Context) ([]application.DayGroup, error)
	CreateEntry(ctx context.Context, principal application.Principal, input application.EntryInput) (application.SaveEntryResult, error)
	UpdateEntry(ctx context.Context, principal application.Principal, id int64, input application.EntryInput) (application.SaveEntryResult, error)
	DeleteEntry(ctx context.Context, principal application.Principal, id int64) error
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	switch group := strings.TrimSpace(r.URL.Query().Get("group")); group {
	case "":
		entries, err := h.service.ListSchedule(r.Context())
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleListResponse{Entries: toEntryDTOs(entries)})
	case "day":
		groups, err := h.service.GroupedSchedule(r.Context())
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		days := make([]dayGroupDTO, 0, len(groups))
		for _, g := range groups {
			days = append(days, dayGroupDTO{Day: g.Day, Entries: toEntryDTOs(g.Entries)})
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, groupedScheduleResponse{Days: days})
	default:
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{
			ErrorCode: codeBadRequest,
			Message:   "Unsupported grouping.",
			Errors:    map[string]string{"group": "group must be \"day\""},
		})
	}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.CreateEntry(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderEntry(r.Context(), w, result, http.StatusCreated)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.UpdateEntry(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderEntry(r.Context(), w, result, http.StatusOK)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteEntry(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ScheduleHandler) renderEntry(ctx context.Context, w http.ResponseWriter, result application.SaveEntryResult, status int) {
	warnings := make([]venueClashDTO, 0, len(result.Warnings))
	for _, clash := range result.Warnings {
		warnings = append(warnings, venueClashDTO{
			EntryID: clash.EntryID,
			Day:     clash.Day,
			Time:    clash.Time,
			Venue:   clash.Venue,
		})
	}
	h.responder.writeJSON(ctx, w, status, entryResponse{Entry: toEntryDTO(result.Entry), Warnings: warnings})
}

type entryRequest struct {
	Day                string `json:"day"`
	Time               string `json:"time"`
	Type               string `json:"type"`
	Title              string `json:"title"`
	Venue              string `json:"venue"`
	SessionChair       string `json:"session_chair"`
	SessionCoordinator string `json:"session_coordinator"`
}

func (r entryRequest) toInput() application.EntryInput {
	return application.EntryInput{
		Day:                r.Day,
		Time:               r.Time,
		Type:               r.Type,
		Title:              r.Title,
		Venue:              r.Venue,
		SessionChair:       r.SessionChair,
		SessionCoordinator: r.SessionCoordinator,
	}
}

type entryDTO struct {
	ID                 int64   `json:"id"`
	Day                string  `json:"day"`
	Time               string  `json:"time"`
	Type               string  `json:"type"`
	Title              string  `json:"title"`
	Venue              string  `json:"venue"`
	SessionChair       *string `json:"session_chair,omitempty"`
	SessionCoordinator *string `json:"session_coordinator,omitempty"`
}

type venueClashDTO struct {
	EntryID int64  `json:"entry_id"`
	Day     string `json:"day"`
	Time    string `json:"time"`
	Venue   string `json:"venue"`
}

type entryResponse struct {
	Entry    entryDTO        `json:"entry"`
	Warnings []venueClashDTO `json:"warnings"`
}

type scheduleListResponse struct {
	Entries []entryDTO `json:"entries"`
}

type dayGroupDTO struct {
	Day     string     `json:"day"`
	Entries []entryDTO `json:"entries"`
}

type groupedScheduleResponse struct {
	Days []dayGroupDTO `json:"days"`
}

func toEntryDTO(entry application.ScheduleEntry) entryDTO {
	return entryDTO{
		ID:                 entry.ID,
		Day:                entry.Day,
		Time:               entry.Time,
		Type:               string(entry.Type),
		Title:              entry.Title,
		Venue:              entry.Venue,
		SessionChair:       entry.SessionChair,
		SessionCoordinator: entry.SessionCoordinator,
	}
}

func toEntryDTOs(entries []application.ScheduleEntry) []entryDTO {
	dtos := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toEntryDTO(entry))
	}
	return dtos
}

package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/conference-portal/internal/campus"
)

// CatalogSource supplies the current map catalog.
type CatalogSource interface {
	Catalog() campus.Catalog
}

type MapHandler struct {
	source    CatalogSource
	responder responder
}

func NewMapHandler(source CatalogSource, logger *slog.Logger) *MapHandler {
	return &MapHandler{source: source, responder: newResponder(logger)}
}

func (h *MapHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.source == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"maps": h.source.Catalog().Summaries()})
}

func (h *MapHandler) Get(w http.ResponseWriter, r *http.Request, name string) {
	if h == nil || h.source == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	m, err := h.source.Catalog().Lookup(name)
	if err != nil {
		if errors.Is(err, campus.ErrUnknownMap) {
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: codeNotFound, Message: err.Error()})
			return
		}
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, m)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store     Pinger
	responder responder
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, responder: newResponder(logger)}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusServiceUnavailable, errors.New("store unreachable"))
			return
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// internal/api/handlers.go

// Package api exposes the read-only endpoints the dashboard consumes.
// Display filtering (favorites, top matches, time zones) is the dashboard's
// job; listings are returned in full, inactive ones included.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kbrooks/land-tracker/internal/storage"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

type Handler struct {
	store storage.Storage
	log   *logger.Logger
}

func NewHandler(store storage.Storage, log *logger.Logger) *Handler {
	return &Handler{store: store, log: log}
}

func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/listings", h.handleListings).Methods(http.MethodGet)
	r.HandleFunc("/api/state", h.handleState).Methods(http.MethodGet)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.store.FetchListings(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		h.log.Errorw("fetching listings", "error", err)
		http.Error(w, "failed to fetch listings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": listings,
		"count": len(listings),
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.ReadRunState(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		// "No data yet" is distinct from "data may be stale"; the dashboard
		// relies on that.
		http.Error(w, "no runs recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Errorw("reading run state", "error", err)
		http.Error(w, "failed to read run state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

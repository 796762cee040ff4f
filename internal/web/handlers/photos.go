package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kozaktomas/lora-person/internal/config"
	"github.com/kozaktomas/lora-person/internal/ingest"
)

// PhotosHandler handles per-photo endpoints.
type PhotosHandler struct {
	config *config.Config
	client Backend
	views  *ViewManager
	logger *slog.Logger
}

// NewPhotosHandler creates a new photos handler.
func NewPhotosHandler(cfg *config.Config, client Backend, views *ViewManager, logger *slog.Logger) *PhotosHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotosHandler{
		config: cfg,
		client: client,
		views:  views,
		logger: logger,
	}
}

// Delete deletes one photo and returns the refreshed view.
// A second delete of the same photo while the first is running is rejected.
func (h *PhotosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	personID, ok := personIDParam(w, r)
	if !ok {
		return
	}
	photoID, ok := parseIDParam(w, r, "photoId", "photo")
	if !ok {
		return
	}

	view, err := h.views.Load(r.Context(), personID)
	if err != nil {
		respondView(w, ViewResponse{State: view.State()}, err)
		return
	}

	err = view.DeletePhoto(r.Context(), photoID)
	if errors.Is(err, ingest.ErrDeleteInFlight) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	photoDeletesTotal.WithLabelValues(outcome(err)).Inc()

	respondView(w, ViewResponse{State: view.State()}, err)
}

// URL returns a short-lived display URL for a photo.
func (h *PhotosHandler) URL(w http.ResponseWriter, r *http.Request) {
	personID, ok := personIDParam(w, r)
	if !ok {
		return
	}
	photoID, ok := parseIDParam(w, r, "photoId", "photo")
	if !ok {
		return
	}

	url, err := h.client.GetPhotoURL(r.Context(), personID, photoID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

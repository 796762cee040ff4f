package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kozaktomas/lora-person/internal/config"
	"github.com/kozaktomas/lora-person/internal/ingest"
)

// PreprocessHandler handles preprocess run triggers.
type PreprocessHandler struct {
	config *config.Config
	views  *ViewManager
	logger *slog.Logger
}

// NewPreprocessHandler creates a new preprocess handler.
func NewPreprocessHandler(cfg *config.Config, views *ViewManager, logger *slog.Logger) *PreprocessHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreprocessHandler{
		config: cfg,
		views:  views,
		logger: logger,
	}
}

// Start triggers a preprocess run for a person.
func (h *PreprocessHandler) Start(w http.ResponseWriter, r *http.Request) {
	personID, ok := personIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.views.Load(r.Context(), personID)
	if err != nil {
		respondView(w, ViewResponse{State: view.State()}, err)
		return
	}

	start, err := view.TriggerRun(r.Context())
	if errors.Is(err, ingest.ErrRunDisabled) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	runTriggersTotal.WithLabelValues(outcome(err)).Inc()

	respondView(w, ViewResponse{State: view.State(), Run: start}, err)
}

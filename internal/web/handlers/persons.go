package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/config"
	"github.com/kozaktomas/lora-person/internal/constants"
)

// PersonsHandler handles person profile endpoints.
type PersonsHandler struct {
	config *config.Config
	client Backend
	views  *ViewManager
	logger *slog.Logger
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(cfg *config.Config, client Backend, views *ViewManager, logger *slog.Logger) *PersonsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonsHandler{
		config: cfg,
		client: client,
		views:  views,
		logger: logger,
	}
}

// CreatePersonRequest is the body of a person creation request.
type CreatePersonRequest struct {
	Name             string `json:"name"`
	ConsentConfirmed bool   `json:"consent_confirmed"`
	SubjectIsAdult   bool   `json:"subject_is_adult"`
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, defaultVal int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

// List returns person profiles.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", constants.DefaultPersonsPageSize)
	if err != nil || limit == 0 {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, constants.MaxPersonsPageSize)

	persons, err := h.client.ListPersons(r.Context(), skip, limit)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, persons)
}

// Create creates a person profile. Both consent flags are required by the backend.
func (h *PersonsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	person, err := h.client.CreatePerson(r.Context(), backend.PersonCreate(req))
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	h.logger.Info("person created", "person_id", person.ID, "name", sanitizeForLog(person.Name))
	respondJSON(w, http.StatusCreated, person)
}

// Get returns the view of a person, loading it on first access.
func (h *PersonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	personID, ok := personIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.views.Load(r.Context(), personID)
	respondView(w, ViewResponse{State: view.State()}, err)
}

// Refresh reloads the view of a person from the backend.
func (h *PersonsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	personID, ok := personIDParam(w, r)
	if !ok {
		return
	}

	view := h.views.Get(personID)
	err := view.Refresh(r.Context())
	if backend.IsNotFoundError(err) {
		h.views.Remove(personID)
	}
	respondView(w, ViewResponse{State: view.State()}, err)
}

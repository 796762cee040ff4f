package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/ingest"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Backend is the part of the backend client used by the console.
type Backend interface {
	ingest.Client
	ListPersons(ctx context.Context, skip, limit int) ([]backend.Person, error)
	CreatePerson(ctx context.Context, in backend.PersonCreate) (*backend.Person, error)
	GetPhotoURL(ctx context.Context, personID, photoID int64) (string, error)
}

// ViewResponse is the body of every person view endpoint: the view state
// after the action, plus the action's own result when it has one.
type ViewResponse struct {
	ingest.State
	Batch *ingest.BatchResult      `json:"batch,omitempty"`
	Run   *backend.PreprocessStart `json:"run,omitempty"`
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondView sends the view state. A failed action keeps its message in the
// state's error field and picks the status code.
func respondView(w http.ResponseWriter, resp ViewResponse, err error) {
	status := http.StatusOK
	if err != nil {
		status = statusForError(err)
		if resp.Error == "" {
			resp.Error = err.Error()
		}
	}
	respondJSON(w, status, resp)
}

// statusForError maps an action error to the console response status.
// Backend 4xx answers pass through; everything else upstream is a bad gateway.
func statusForError(err error) int {
	if errors.Is(err, ingest.ErrUploadDisabled) || errors.Is(err, ingest.ErrRunDisabled) || errors.Is(err, ingest.ErrDeleteInFlight) {
		return http.StatusConflict
	}
	if errors.Is(err, backend.ErrTransfer) {
		return http.StatusBadGateway
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return apiErr.StatusCode
		case apiErr.StatusCode == 0 && apiErr.Err == nil:
			// Rejected before any request was sent
			return http.StatusBadRequest
		}
	}
	return http.StatusBadGateway
}

// parseIDParam reads a positive integer URL parameter. On failure it writes a
// 400 response naming what the ID refers to and returns false.
func parseIDParam(w http.ResponseWriter, r *http.Request, param, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid "+what+" id")
		return 0, false
	}
	return id, true
}

func personIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return parseIDParam(w, r, "id", "person")
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every error returned by the client is an *APIError whose Kind is
// one of these, so callers can classify with errors.Is.
var (
	ErrAuthorization = errors.New("failed to get upload URL")
	ErrTransfer      = errors.New("upload failed")
	ErrRegistration  = errors.New("failed to register photo")
	ErrRunTrigger    = errors.New("failed to start preprocessing")
	ErrDelete        = errors.New("failed to delete photo")
	ErrFetch         = errors.New("failed to fetch")
	ErrPersonCreate  = errors.New("failed to create person")
	ErrPersonDelete  = errors.New("failed to delete person")
)

// APIError describes a failed backend or storage call.
type APIError struct {
	Kind       error  // one of the Err* kinds above
	Message    string // generic phrase used when the backend supplies no detail
	StatusCode int    // 0 when the request never got a response
	Status     string // status text, e.g. "Forbidden"
	Detail     string // human-readable reason supplied by the backend
	Err        error  // transport, encoding or decoding cause
}

// Error prefers the backend detail and falls back to the generic phrase.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	switch {
	case e.Err != nil:
		return msg + ": " + e.Err.Error()
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %d %s", msg, e.StatusCode, e.Status)
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// newStatusError builds an APIError from a non-success response body.
func newStatusError(kind error, message string, statusCode int, body []byte) *APIError {
	return &APIError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Detail:     parseDetail(body),
	}
}

// parseDetail extracts the human-readable reason from an error body.
// The backend answers {"detail": "..."} for domain errors and
// {"detail": [{"msg": "..."}, ...]} for validation errors. Anything that is
// not JSON (e.g. an XML error from object storage) yields "".
func parseDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

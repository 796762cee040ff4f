package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/backend/mock"
	"github.com/kozaktomas/lora-person/internal/ingest"
)

func TestPreprocessHandler_Start(t *testing.T) {
	srv, _, views := setupBackend(t)
	person := srv.AddPerson("Jane", true, true)
	srv.AddPhotos(person.ID, 3, backend.StatusUploaded)

	handler := NewPreprocessHandler(testConfig(), views, nil)
	req := requestWithChiParams(httptest.NewRequest("POST", "/", nil), map[string]string{"id": strconv.FormatInt(person.ID, 10)})
	recorder := httptest.NewRecorder()

	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp ViewResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Run == nil || resp.Run.PreprocessRunID == 0 {
		t.Fatalf("expected started run, got %+v", resp.Run)
	}
	if resp.Snapshot.Run == nil {
		t.Error("expected the refreshed snapshot to carry the new run")
	}
	if resp.Controls.Triggering {
		t.Error("expected triggering to be cleared")
	}
}

func TestPreprocessHandler_Start_BelowMinimum(t *testing.T) {
	srv, _, views := setupBackend(t)
	person := srv.AddPerson("Jane", true, true)
	srv.AddPhotos(person.ID, 2, backend.StatusUploaded)

	handler := NewPreprocessHandler(testConfig(), views, nil)
	req := requestWithChiParams(httptest.NewRequest("POST", "/", nil), map[string]string{"id": strconv.FormatInt(person.ID, 10)})
	recorder := httptest.NewRecorder()

	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusConflict)
	assertJSONError(t, recorder, ingest.ErrRunDisabled.Error())
	if got := srv.Calls(mock.OpPreprocess); len(got) != 0 {
		t.Errorf("expected no trigger to reach the backend, got %v", got)
	}
}

func TestPreprocessHandler_Start_BackendFailure(t *testing.T) {
	srv, _, views := setupBackend(t)
	person := srv.AddPerson("Jane", true, true)
	srv.AddPhotos(person.ID, 3, backend.StatusUploaded)
	srv.Fail(mock.OpPreprocess, "", mock.Failure{Status: http.StatusBadRequest, Detail: "Preprocessing already running"})

	handler := NewPreprocessHandler(testConfig(), views, nil)
	req := requestWithChiParams(httptest.NewRequest("POST", "/", nil), map[string]string{"id": strconv.FormatInt(person.ID, 10)})
	recorder := httptest.NewRecorder()

	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)

	var resp ViewResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Error != "Preprocessing already running" {
		t.Errorf("expected backend detail, got %q", resp.Error)
	}
	if resp.Run != nil {
		t.Errorf("expected no run, got %+v", resp.Run)
	}
}

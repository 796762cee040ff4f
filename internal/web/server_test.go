package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/backend/mock"
	"github.com/kozaktomas/lora-person/internal/config"
)

func setupServer(t *testing.T) (*mock.Server, *Server) {
	t.Helper()

	srv := mock.New()
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("failed to create backend client: %v", err)
	}

	cfg := &config.Config{
		Limits: config.Limits(),
		Web: config.WebConfig{
			Host:           "127.0.0.1",
			Port:           8081,
			AllowedOrigins: []string{"https://console.example.com"},
			MaxUploadMB:    16,
		},
	}
	return srv, NewServer(cfg, client, nil)
}

func TestServer_Addr(t *testing.T) {
	_, s := setupServer(t)
	if s.Addr() != "127.0.0.1:8081" {
		t.Errorf("unexpected address %q", s.Addr())
	}
}

func TestServer_Routes(t *testing.T) {
	srv, s := setupServer(t)
	person := srv.AddPerson("Jane", true, true)
	photos := srv.AddPhotos(person.ID, 3, backend.StatusUploaded)
	personPath := "/api/v1/persons/" + strconv.FormatInt(person.ID, 10)
	photoPath := personPath + "/photos/" + strconv.FormatInt(photos[0].ID, 10)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/api/v1/health", "", http.StatusOK},
		{"GET", "/api/v1/persons", "", http.StatusOK},
		{"POST", "/api/v1/persons", `{"name":"John","consent_confirmed":true,"subject_is_adult":true}`, http.StatusCreated},
		{"GET", personPath, "", http.StatusOK},
		{"POST", personPath + "/refresh", "", http.StatusOK},
		{"GET", photoPath + "/url", "", http.StatusOK},
		{"POST", personPath + "/preprocess", "", http.StatusOK},
		{"DELETE", photoPath, "", http.StatusOK},
		{"GET", "/api/v1/persons/abc", "", http.StatusBadRequest},
		{"GET", "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rr := httptest.NewRecorder()

			s.Router().ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d\nBody: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestServer_MiddlewareHeaders(t *testing.T) {
	_, s := setupServer(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "https://console.example.com")
	rr := httptest.NewRecorder()

	s.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://console.example.com" {
		t.Errorf("expected configured origin to be allowed, got %q", got)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected security headers, got %q", got)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health response %v", body)
	}
}

func TestServer_Metrics(t *testing.T) {
	_, s := setupServer(t)

	s.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/health", nil))

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `lora_console_http_requests_total{method="GET",route="/api/v1/health",status="200"}`) {
		t.Errorf("expected request counter for the health route in:\n%s", rr.Body.String())
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scrape returns the default registry in text exposition format.
func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics scrape failed with %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/route-test/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, path := range []string{"/route-test/1", "/route-test/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	body := scrape(t)
	want := `lora_console_http_requests_total{method="GET",route="/route-test/{id}",status="202"} 2`
	if !strings.Contains(body, want) {
		t.Errorf("expected %q in:\n%s", want, body)
	}
	if strings.Contains(body, `route="/route-test/1"`) {
		t.Error("expected raw paths not to be used as route labels")
	}
	if !strings.Contains(body, `lora_console_http_request_duration_seconds_count{method="GET",route="/route-test/{id}"} 2`) {
		t.Error("expected duration histogram for the route")
	}
}

func TestMetrics_Unmatched(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/persons", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("DELETE", "/nope/123", nil))

	want := `lora_console_http_requests_total{method="DELETE",route="unmatched",status="404"} 1`
	if body := scrape(t); !strings.Contains(body, want) {
		t.Errorf("expected %q in:\n%s", want, body)
	}
}

func TestRoutePattern_NoRouteContext(t *testing.T) {
	if got := routePattern(httptest.NewRequest("GET", "/", nil)); got != "unmatched" {
		t.Errorf("expected unmatched, got %q", got)
	}
}

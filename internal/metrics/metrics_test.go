package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /charts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := m.Middleware(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/charts/revenue", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	body := scrape(t, m)
	if !strings.Contains(body, `sgfcp_http_requests_total{code="418",route="GET /charts/{id}"} 1`) {
		t.Fatalf("expected request to be recorded by pattern, got: %s", body)
	}
	if !strings.Contains(body, `sgfcp_http_requests_total{code="404",route="unmatched"} 1`) {
		t.Fatalf("expected unmatched route, got: %s", body)
	}
	if !strings.Contains(body, "sgfcp_http_request_duration_seconds_bucket") {
		t.Fatalf("expected duration histogram")
	}
}

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveAPI(http.MethodGet, "/trips/", 200, 30*time.Millisecond)
	m.ObserveLoad("ok", time.Second)
	m.ObserveLoad("superseded", time.Second)
	m.ObserveLoad("superseded", time.Second)
	m.ObserveLogin("denied")
	m.SetDashboards(3)
	m.AddStale(2)
	m.AddStale(0)
	m.ObserveSuspicious()

	if got := testutil.ToFloat64(m.snapshotLoads.WithLabelValues("superseded")); got != 2 {
		t.Fatalf("superseded loads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.logins.WithLabelValues("denied")); got != 1 {
		t.Fatalf("denied logins = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.dashboards); got != 3 {
		t.Fatalf("dashboards = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.staleMarks); got != 2 {
		t.Fatalf("stale marks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.suspicious); got != 1 {
		t.Fatalf("suspicious = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.loadDuration); got != 1 {
		t.Fatalf("load duration series = %d, want 1", got)
	}
	if !strings.Contains(scrape(t, m), `sgfcp_api_request_duration_seconds_count{code="200",method="GET",path="/trips/"} 1`) {
		t.Fatalf("expected api histogram sample")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI(http.MethodGet, "/", 0, 0)
	m.ObserveLoad("ok", 0)
	m.ObserveLogin("ok")
	m.SetDashboards(1)
	m.AddStale(1)
	m.ObserveSuspicious()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without metrics, got %d", rr.Code)
	}
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if m.Middleware(next) == nil {
		t.Fatalf("middleware must pass through")
	}
}

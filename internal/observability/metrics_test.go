package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequestAndError(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/claims", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/claims", "GET", 200, 30*time.Millisecond)
	m.RecordError("/claims", "POST", "FORBIDDEN")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/claims", "GET", "200")); got != 2 {
		t.Fatalf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("/claims", "POST", "FORBIDDEN")); got != 1 {
		t.Fatalf("errors = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.duration, "reclamos_http_request_duration_seconds"); got != 1 {
		t.Fatalf("histogram series = %d, want 1", got)
	}
}

func TestMetricNamingConvention(t *testing.T) {
	for _, c := range NewMetrics().Collectors() {
		ch := make(chan *prometheus.Desc, 10)
		c.Describe(ch)
		close(ch)
		for desc := range ch {
			if !strings.Contains(desc.String(), `fqName: "reclamos_http_`) {
				t.Errorf("metric %s lacks the reclamos_http_ prefix", desc.String())
			}
		}
	}
}

func TestHandlerServesExpositionFormat(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/health", "GET", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	for _, want := range []string{
		`reclamos_http_requests_total{method="GET",route="/health",status="200"} 1`,
		"reclamos_http_request_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestNewMetricsTwiceDoesNotCollide(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.RecordRequest("/x", "GET", 200, time.Millisecond)
	if got := testutil.ToFloat64(b.requests.WithLabelValues("/x", "GET", "200")); got != 0 {
		t.Fatalf("registries are shared: %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordError("/x", "GET", "NOT_FOUND")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

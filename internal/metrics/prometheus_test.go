package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ Recorder = (*PrometheusRecorder)(nil)
var _ Recorder = NoopRecorder{}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRequest("/_authenticated/fel/", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	pr.ObserveRequest("/_authenticated/fel/", http.MethodGet, http.StatusOK, 30*time.Millisecond)
	pr.GuardMounted()
	pr.GuardMounted()
	pr.GuardMounted()
	pr.GuardReady()
	pr.GuardDiscarded("expired")

	if got := testutil.ToFloat64(pr.requests.WithLabelValues("/_authenticated/fel/", "GET", "200")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pr.guardsMounted); got != 3 {
		t.Errorf("mounted = %v, want 3", got)
	}
	if got := testutil.ToFloat64(pr.guardsLive); got != 1 {
		t.Errorf("pending = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pr.guardsDiscarded.WithLabelValues("expired")); got != 1 {
		t.Errorf("discarded = %v, want 1", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).GuardMounted()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ventas_hydration_guards_mounted_total 1") {
		t.Errorf("metric missing from scrape:\n%s", rec.Body.String())
	}
}

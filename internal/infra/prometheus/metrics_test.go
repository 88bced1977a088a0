package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sifan077/QuotaLink/config"
)

func TestLinkMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLinkMetrics(reg)

	m.LinkCreated()
	m.LinkCreated()
	m.OpenResolved("ok")
	m.OpenResolved("ok")
	m.OpenResolved("expired")
	m.LinksPurged(4)

	if got := testutil.ToFloat64(m.created); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(m.opens.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok opens, got %v", got)
	}
	if got := testutil.ToFloat64(m.opens.WithLabelValues("expired")); got != 1 {
		t.Fatalf("expected 1 expired open, got %v", got)
	}
	if got := testutil.ToFloat64(m.purged); got != 4 {
		t.Fatalf("expected 4 purged, got %v", got)
	}
}

func TestNewServer_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewLinkMetrics(reg).LinkCreated()

	srv := NewServer(config.PrometheusConfig{}, reg)
	if srv.Addr != ":9090" {
		t.Fatalf("expected default port, got %s", srv.Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "quotalink_links_created_total 1") {
		t.Fatalf("expected created counter in output, got:\n%s", body)
	}
}

package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pcprimedz/dashboard"
)

type fakeSource struct {
	snapshot dashboard.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() dashboard.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: dashboard.MetricsSnapshot{
			Counters:   map[dashboard.MetricID]uint64{},
			Histograms: map[dashboard.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: dashboard.MetricsSnapshot{
			Counters: map[dashboard.MetricID]uint64{
				dashboard.MetricLoginSuccess:         7,
				dashboard.MetricAuthorizationExpired: 3,
			},
			Histograms: map[dashboard.MetricID][]uint64{
				dashboard.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"dashboard_login_success_total 7",
		"dashboard_authorization_expired_total 3",
		"dashboard_logout_total 0",
		`dashboard_request_latency_seconds_bucket{le="0.05"} 1`,
		`dashboard_request_latency_seconds_bucket{le="+Inf"} 36`,
		"dashboard_request_latency_seconds_count 36",
		"dashboard_audit_dropped_total 2",
		"# TYPE dashboard_request_latency_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsDisabledHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: dashboard.MetricsSnapshot{
			Counters:   map[dashboard.MetricID]uint64{dashboard.MetricRequest: 1},
			Histograms: map[dashboard.MetricID][]uint64{},
		},
	})
	if out := exp.Render(); strings.Contains(out, "latency") {
		t.Fatalf("histogram must be omitted when latency is off, got:\n%s", out)
	}
}

func TestExporterReadsClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := dashboard.DefaultConfig()
	cfg.BaseURL = srv.URL
	client, err := dashboard.New().WithConfig(cfg).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer client.Close()

	resp, err := client.Get(context.Background(), "/orders/all")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	out := NewExporter(client).Render()
	if !strings.Contains(out, "dashboard_requests_total 1") || !strings.Contains(out, "dashboard_authorization_expired_total 1") {
		t.Fatalf("client counters missing, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: dashboard.MetricsSnapshot{
			Counters:   map[dashboard.MetricID]uint64{dashboard.MetricLoginSuccess: 1},
			Histograms: map[dashboard.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

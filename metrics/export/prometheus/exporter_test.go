package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authclient "github.com/mkovrig/authclient"
)

type fakeSource struct {
	snapshot authclient.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authclient.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{
				authclient.MetricLoginSuccess:     7,
				authclient.MetricOTPVerifyFailure: 3,
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "authclient_login_success_total 7") {
		t.Fatalf("expected login_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "authclient_otp_verify_failure_total 3") {
		t.Fatalf("expected otp_verify_failure counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "authclient_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE authclient_login_success_total counter") {
		t.Fatalf("expected TYPE line in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{authclient.MetricLoginSuccess: 1},
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

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{
				authclient.MetricLoginSuccess:        1000,
				authclient.MetricLoginFailure:        40,
				authclient.MetricOTPVerifySuccess:    950,
				authclient.MetricOTPVerifyFailure:    50,
				authclient.MetricRefreshSuccess:      800,
				authclient.MetricRefreshFailure:      10,
				authclient.MetricResetConfirmFailure: 3,
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}

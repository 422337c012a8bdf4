package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecorders(t *testing.T) {
	m := New()
	m.JobCreated(SourceIntake)
	m.JobCreated(SourceIntake)
	m.InventoryMovement("out")
	m.PayrollPeriodCreated()
	m.ObserveRequest("GET", "/api/v1/jobs", "200", 0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{
		"gioservice_http_requests_total",
		"gioservice_http_request_duration_seconds",
		`gioservice_inventory_movements_total{type="out"} 1`,
		`gioservice_jobs_created_total{source="intake"} 2`,
		"gioservice_payroll_periods_created_total 1",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("missing %s in exposition", name)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.JobCreated(SourceAdmin)
	m.InventoryMovement("in")
	m.PayrollPeriodCreated()
	m.ObserveRequest("GET", "/", "200", 0)
}

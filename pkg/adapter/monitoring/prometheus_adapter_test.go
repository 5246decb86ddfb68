package monitoring

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterWithoutLabelsIncrements(t *testing.T) {
	exp, err := NewPrometheusExporter()
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	c, err := exp.RegisterCounter("events_received_total", "events received")
	if err != nil {
		t.Fatalf("register counter: %v", err)
	}
	c.Inc()
	c.Add(2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	exp.ExposeHandler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "events_received_total 3") {
		t.Fatalf("expected events_received_total 3 in output, got:\n%s", body)
	}
}

func TestCounterWithLabels(t *testing.T) {
	exp, err := NewPrometheusExporter()
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	c, err := exp.RegisterCounter("events_failed_total", "events failed", "reason")
	if err != nil {
		t.Fatalf("register counter: %v", err)
	}
	c.With("validation").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	exp.ExposeHandler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `events_failed_total{reason="validation"} 1`) {
		t.Fatalf("expected labeled metric in output, got:\n%s", body)
	}
}

func TestGaugeSetWithoutLabels(t *testing.T) {
	exp, err := NewPrometheusExporter()
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	g, err := exp.RegisterGauge("queue_depth", "queue depth")
	if err != nil {
		t.Fatalf("register gauge: %v", err)
	}
	g.Set(42)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	exp.ExposeHandler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "queue_depth 42") {
		t.Fatalf("expected queue_depth 42 in output, got:\n%s", rec.Body.String())
	}
}

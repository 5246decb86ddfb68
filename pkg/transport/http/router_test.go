package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	commonerrors "github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
	"github.com/turtacn/eventflow/pkg/domain/ingestion"
)

type fakeIngestionService struct {
	submitResult *ingestion.SubmitResult
	submitErr    error
	healthResult *ingestion.HealthResult
	healthErr    error
	statsResult  *ingestion.QueueStatsResult
	statsErr     error
}

func (f *fakeIngestionService) Submit(ctx context.Context, sub *model.Submission) (*ingestion.SubmitResult, error) {
	return f.submitResult, f.submitErr
}

func (f *fakeIngestionService) Health(ctx context.Context) (*ingestion.HealthResult, error) {
	return f.healthResult, f.healthErr
}

func (f *fakeIngestionService) QueueStats(ctx context.Context) (*ingestion.QueueStatsResult, error) {
	return f.statsResult, f.statsErr
}

func newTestRouter(svc ingestion.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	SetupRouter(engine, svc)
	return engine
}

func doRequest(engine *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestPostEventsAcceptsValidSubmission(t *testing.T) {
	svc := &fakeIngestionService{
		submitResult: &ingestion.SubmitResult{Fingerprint: "fp-1", Status: "accepted", ReceivedAt: "2026-08-01T00:00:00Z"},
	}
	engine := newTestRouter(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"kind":       "purchase",
		"properties": map[string]interface{}{"amount": 10},
	})
	rec := doRequest(engine, http.MethodPost, "/events", body)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var got ingestion.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Fingerprint != "fp-1" {
		t.Fatalf("expected fingerprint fp-1, got %q", got.Fingerprint)
	}
}

func TestPostEventsRejectsMalformedBody(t *testing.T) {
	engine := newTestRouter(&fakeIngestionService{})
	rec := doRequest(engine, http.MethodPost, "/events", []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostEventsRejectsMissingKind(t *testing.T) {
	engine := newTestRouter(&fakeIngestionService{})
	body, _ := json.Marshal(map[string]interface{}{"properties": map[string]interface{}{}})
	rec := doRequest(engine, http.MethodPost, "/events", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing required kind field, got %d", rec.Code)
	}
}

func TestPostEventsSurfacesStructuralErrorAsBadRequest(t *testing.T) {
	svc := &fakeIngestionService{
		submitErr: errorsStructural("properties must be provided"),
	}
	engine := newTestRouter(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"kind":       "purchase",
		"properties": map[string]interface{}{},
	})
	rec := doRequest(engine, http.MethodPost, "/events", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a structural error, got %d", rec.Code)
	}
}

func TestPostEventsSurfacesStoreErrorAsServerError(t *testing.T) {
	svc := &fakeIngestionService{
		submitErr: errorsTransientStore("store unavailable"),
	}
	engine := newTestRouter(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"kind":       "purchase",
		"properties": map[string]interface{}{"amount": 10},
	})
	rec := doRequest(engine, http.MethodPost, "/events", body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a transient store error, got %d", rec.Code)
	}
}

func TestHealthReturnsOkWhenComponentsHealthy(t *testing.T) {
	svc := &fakeIngestionService{
		healthResult: &ingestion.HealthResult{Status: "ok"},
	}
	engine := newTestRouter(svc)
	rec := doRequest(engine, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthReturnsServiceUnavailableWhenDegraded(t *testing.T) {
	svc := &fakeIngestionService{
		healthResult: &ingestion.HealthResult{Status: "degraded"},
	}
	engine := newTestRouter(svc)
	rec := doRequest(engine, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsSummaryReturnsQueueStats(t *testing.T) {
	svc := &fakeIngestionService{
		statsResult: &ingestion.QueueStatsResult{QueueLength: 5, Pending: 2},
	}
	engine := newTestRouter(svc)
	rec := doRequest(engine, http.MethodGet, "/metrics/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["queue-length"] != 5 || got["pending"] != 2 {
		t.Fatalf("unexpected stats payload: %+v", got)
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	engine := newTestRouter(&fakeIngestionService{})
	rec := doRequest(engine, http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func errorsStructural(msg string) error {
	return commonerrors.New(commonerrors.StructuralError, msg)
}

func errorsTransientStore(msg string) error {
	return commonerrors.New(commonerrors.TransientStoreError, msg)
}

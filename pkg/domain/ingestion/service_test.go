package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/turtacn/eventflow/pkg/adapter/queue"
	"github.com/turtacn/eventflow/pkg/adapter/store"
	commonerrors "github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/common/types/enum"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

type fakeQueue struct {
	publishErr  error
	lengthVal   int64
	lengthErr   error
	pendingVal  int64
	pendingErr  error
	published   [][]byte
}

func (q *fakeQueue) Publish(ctx context.Context, payload []byte) (string, error) {
	if q.publishErr != nil {
		return "", q.publishErr
	}
	q.published = append(q.published, payload)
	return "1-0", nil
}
func (q *fakeQueue) EnsureGroup(ctx context.Context, group string) error { return nil }
func (q *fakeQueue) Consume(ctx context.Context, group, consumerID string, maxBatch int, blockTimeout time.Duration) ([]queue.Entry, error) {
	return nil, nil
}
func (q *fakeQueue) ReclaimStale(ctx context.Context, group, consumerID string, idleThreshold time.Duration) ([]queue.Entry, error) {
	return nil, nil
}
func (q *fakeQueue) Ack(ctx context.Context, group, entryID string) error { return nil }
func (q *fakeQueue) PendingCount(ctx context.Context, group string) (int64, error) {
	return q.pendingVal, q.pendingErr
}
func (q *fakeQueue) Length(ctx context.Context) (int64, error) { return q.lengthVal, q.lengthErr }
func (q *fakeQueue) Close() error                               { return nil }

type fakeStore struct {
	insertRawErr       error
	insertProcessedErr error
	pingErr            error
	rawInserted        []*model.RawRecord
}

func (s *fakeStore) ExistsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	return false, nil
}
func (s *fakeStore) InsertRaw(ctx context.Context, rec *model.RawRecord) error {
	if s.insertRawErr != nil {
		return s.insertRawErr
	}
	s.rawInserted = append(s.rawInserted, rec)
	return nil
}
func (s *fakeStore) InsertProcessed(ctx context.Context, rec *model.ProcessedRecord) error {
	return s.insertProcessedErr
}
func (s *fakeStore) InsertFailed(ctx context.Context, rec *model.FailedRecord) error { return nil }
func (s *fakeStore) Ping(ctx context.Context) error                                  { return s.pingErr }
func (s *fakeStore) Close() error                                                    { return nil }

func validSubmission() *model.Submission {
	return &model.Submission{
		Kind:       enum.EventKindPurchase,
		SubjectID:  "user-1",
		Properties: map[string]interface{}{"amount": 42.0},
	}
}

func TestSubmitRejectsStructurallyInvalidSubmission(t *testing.T) {
	q := &fakeQueue{}
	st := &fakeStore{}
	svc := NewService(q, st, "event_processors", nil)

	sub := &model.Submission{Kind: "unknown-kind", Properties: map[string]interface{}{}}
	_, err := svc.Submit(context.Background(), sub)
	if err == nil {
		t.Fatal("expected structural validation error")
	}
	if commonerrors.GetCode(err) != commonerrors.StructuralError {
		t.Fatalf("expected StructuralError, got %v", commonerrors.GetCode(err))
	}
	if len(st.rawInserted) != 0 {
		t.Fatal("structurally invalid submission must not be persisted")
	}
	if len(q.published) != 0 {
		t.Fatal("structurally invalid submission must not be enqueued")
	}
}

func TestSubmitDoesNotEnqueueWhenRawInsertFails(t *testing.T) {
	q := &fakeQueue{}
	st := &fakeStore{insertRawErr: errors.New("disk full")}
	svc := NewService(q, st, "event_processors", nil)

	_, err := svc.Submit(context.Background(), validSubmission())
	if err == nil {
		t.Fatal("expected error when raw insert fails")
	}
	if commonerrors.GetCode(err) != commonerrors.TransientStoreError {
		t.Fatalf("expected TransientStoreError, got %v", commonerrors.GetCode(err))
	}
	if len(q.published) != 0 {
		t.Fatal("must not enqueue after a failed raw insert")
	}
}

func TestSubmitSurfacesDuplicateFingerprintAsAlreadyExists(t *testing.T) {
	q := &fakeQueue{}
	st := &fakeStore{insertRawErr: commonerrors.Wrap(store.ErrAlreadyExists, commonerrors.AlreadyExistsError, "store: raw event already exists")}
	svc := NewService(q, st, "event_processors", nil)

	_, err := svc.Submit(context.Background(), validSubmission())
	if err == nil {
		t.Fatal("expected error when fingerprint already exists")
	}
	if commonerrors.GetCode(err) != commonerrors.AlreadyExistsError {
		t.Fatalf("expected AlreadyExistsError, got %v", commonerrors.GetCode(err))
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatal("expected the sentinel to survive unwrapping")
	}
	if len(q.published) != 0 {
		t.Fatal("must not enqueue a duplicate fingerprint")
	}
}

func TestSubmitAcceptedAssignsFingerprintAndEnqueues(t *testing.T) {
	q := &fakeQueue{}
	st := &fakeStore{}
	svc := NewService(q, st, "event_processors", nil)

	result, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "accepted" {
		t.Fatalf("expected status accepted, got %q", result.Status)
	}
	if result.Fingerprint == "" {
		t.Fatal("expected a synthesized fingerprint")
	}
	if len(st.rawInserted) != 1 {
		t.Fatalf("expected exactly one raw insert, got %d", len(st.rawInserted))
	}
	if len(q.published) != 1 {
		t.Fatalf("expected exactly one enqueue, got %d", len(q.published))
	}
}

func TestSubmitPreservesCallerSuppliedFingerprint(t *testing.T) {
	q := &fakeQueue{}
	st := &fakeStore{}
	svc := NewService(q, st, "event_processors", nil)

	sub := validSubmission()
	sub.Fingerprint = "3f5a1b2c-1111-4e22-9999-abcdefabcdef"
	result, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fingerprint != sub.Fingerprint {
		t.Fatalf("expected fingerprint %q preserved, got %q", sub.Fingerprint, result.Fingerprint)
	}
}

func TestHealthReportsDegradedWhenStoreUnreachable(t *testing.T) {
	q := &fakeQueue{}
	st := &fakeStore{pingErr: errors.New("connection refused")}
	svc := NewService(q, st, "event_processors", nil)

	h, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", h.Status)
	}
	if h.Components.Store != "down" {
		t.Fatalf("expected store component down, got %q", h.Components.Store)
	}
	if h.Components.Queue != "ok" {
		t.Fatalf("expected queue component ok, got %q", h.Components.Queue)
	}
}

func TestHealthOkWhenBothComponentsReachable(t *testing.T) {
	q := &fakeQueue{}
	st := &fakeStore{}
	svc := NewService(q, st, "event_processors", nil)

	h, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "ok" {
		t.Fatalf("expected ok status, got %q", h.Status)
	}
}

func TestQueueStatsReturnsLengthAndPending(t *testing.T) {
	q := &fakeQueue{lengthVal: 7, pendingVal: 2}
	st := &fakeStore{}
	svc := NewService(q, st, "event_processors", nil)

	stats, err := svc.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.QueueLength != 7 || stats.Pending != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestQueueStatsPropagatesQueueError(t *testing.T) {
	q := &fakeQueue{lengthErr: errors.New("redis down")}
	st := &fakeStore{}
	svc := NewService(q, st, "event_processors", nil)

	_, err := svc.QueueStats(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if commonerrors.GetCode(err) != commonerrors.TransientQueueError {
		t.Fatalf("expected TransientQueueError, got %v", commonerrors.GetCode(err))
	}
}

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(Config{DSN: "file::memory:?cache=shared"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertRawThenDuplicateFingerprintFails(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	rec := &model.RawRecord{Fingerprint: "fp-1", Payload: []byte(`{}`), ReceivedAt: time.Now().UTC()}
	if err := s.InsertRaw(ctx, rec); err != nil {
		t.Fatalf("first insert-raw: %v", err)
	}
	if err := s.InsertRaw(ctx, rec); err == nil {
		t.Fatal("expected error inserting duplicate fingerprint into raw_events")
	}
}

func TestExistsProcessed(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	exists, err := s.ExistsProcessed(ctx, "fp-missing")
	if err != nil {
		t.Fatalf("exists-processed: %v", err)
	}
	if exists {
		t.Fatal("expected no processed record for unknown fingerprint")
	}

	rec := &model.ProcessedRecord{
		Fingerprint: "fp-2",
		Kind:        "purchase",
		SubjectID:   "u1",
		OccurredAt:  time.Now().UTC(),
		Properties:  map[string]interface{}{"amount": 10.0},
		ProcessedAt: time.Now().UTC(),
		Status:      "completed",
		Enrichment:  map[string]interface{}{"worker-id": "worker-1"},
	}
	if err := s.InsertProcessed(ctx, rec); err != nil {
		t.Fatalf("insert-processed: %v", err)
	}

	exists, err = s.ExistsProcessed(ctx, "fp-2")
	if err != nil {
		t.Fatalf("exists-processed after insert: %v", err)
	}
	if !exists {
		t.Fatal("expected processed record to exist after insert")
	}
}

func TestInsertProcessedDuplicateReturnsAlreadyExists(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	rec := &model.ProcessedRecord{
		Fingerprint: "fp-3",
		Kind:        "page_view",
		OccurredAt:  time.Now().UTC(),
		Properties:  map[string]interface{}{},
		ProcessedAt: time.Now().UTC(),
		Status:      "completed",
		Enrichment:  map[string]interface{}{},
	}
	if err := s.InsertProcessed(ctx, rec); err != nil {
		t.Fatalf("first insert-processed: %v", err)
	}

	err := s.InsertProcessed(ctx, rec)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on raced duplicate insert, got %v", err)
	}
}

func TestInsertFailedAllowsRepeatFingerprint(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	rec := &model.FailedRecord{
		Fingerprint:  "fp-4",
		Payload:      []byte(`{}`),
		ErrorMessage: "missing amount",
		FailedAt:     time.Now().UTC(),
		RetryCount:   0,
	}
	if err := s.InsertFailed(ctx, rec); err != nil {
		t.Fatalf("first insert-failed: %v", err)
	}
	if err := s.InsertFailed(ctx, rec); err != nil {
		t.Fatalf("second insert-failed with same fingerprint should succeed: %v", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(t.Context()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/turtacn/eventflow/pkg/adapter/store"
	commonerrors "github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/common/types/enum"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

type fakeStore struct {
	processedFingerprints map[string]bool
	failedRecords         []*model.FailedRecord
	processedRecords      []*model.ProcessedRecord
	insertProcessedErrs   []error // dequeued one per call; last value repeats
}

func newFakeStore() *fakeStore {
	return &fakeStore{processedFingerprints: map[string]bool{}}
}

func (s *fakeStore) ExistsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	return s.processedFingerprints[fingerprint], nil
}

func (s *fakeStore) InsertRaw(ctx context.Context, rec *model.RawRecord) error { return nil }

func (s *fakeStore) InsertProcessed(ctx context.Context, rec *model.ProcessedRecord) error {
	var err error
	if len(s.insertProcessedErrs) > 0 {
		err = s.insertProcessedErrs[0]
		if len(s.insertProcessedErrs) > 1 {
			s.insertProcessedErrs = s.insertProcessedErrs[1:]
		}
	}
	if err != nil {
		return err
	}
	if s.processedFingerprints[rec.Fingerprint] {
		return store.ErrAlreadyExists
	}
	s.processedFingerprints[rec.Fingerprint] = true
	s.processedRecords = append(s.processedRecords, rec)
	return nil
}

func (s *fakeStore) InsertFailed(ctx context.Context, rec *model.FailedRecord) error {
	s.failedRecords = append(s.failedRecords, rec)
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                   { return nil }

func purchasePayload(t *testing.T, fingerprint string, amount float64) []byte {
	t.Helper()
	sub := &model.Submission{
		Fingerprint: fingerprint,
		Kind:        enum.EventKindPurchase,
		SubjectID:   "u1",
		Properties:  map[string]interface{}{"amount": amount},
	}
	b, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func testProcessor(st *fakeStore, retry RetryConfig) *Processor {
	return NewProcessor(st, nil, ProcessorConfig{
		WorkerID:           "worker-1",
		HighValueThreshold: 1000,
		Retry:              retry,
	})
}

func TestProcessValidPurchaseBelowThreshold(t *testing.T) {
	st := newFakeStore()
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	payload := purchasePayload(t, "fp-1", 100)
	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(st.processedRecords) != 1 {
		t.Fatalf("expected one processed record, got %d", len(st.processedRecords))
	}
	rec := st.processedRecords[0]
	if rec.Status != "completed" {
		t.Fatalf("expected status completed, got %q", rec.Status)
	}
	if _, tagged := rec.Enrichment["tag"]; tagged {
		t.Fatal("expected no high_value tag below threshold")
	}
	if rec.Enrichment["worker-id"] != "worker-1" {
		t.Fatalf("expected worker-id enrichment, got %+v", rec.Enrichment)
	}
	if len(st.failedRecords) != 0 {
		t.Fatal("expected no failed record on success")
	}
}

func TestProcessHighValuePurchaseIsTagged(t *testing.T) {
	st := newFakeStore()
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	payload := purchasePayload(t, "fp-2", 5000)
	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := st.processedRecords[0]
	if rec.Enrichment["tag"] != "high_value" {
		t.Fatalf("expected high_value tag, got %+v", rec.Enrichment)
	}
}

func TestProcessInvalidPurchaseIsDeadLetteredWithoutRetry(t *testing.T) {
	st := newFakeStore()
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	sub := &model.Submission{
		Fingerprint: "fp-3",
		Kind:        enum.EventKindPurchase,
		Properties:  map[string]interface{}{},
	}
	payload, _ := json.Marshal(sub)

	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error (dead-lettering is not itself an error): %v", err)
	}

	if len(st.processedRecords) != 0 {
		t.Fatal("invalid events must never produce a processed record")
	}
	if len(st.failedRecords) != 1 {
		t.Fatalf("expected exactly one failed record, got %d", len(st.failedRecords))
	}
	if st.failedRecords[0].RetryCount != 0 {
		t.Fatalf("validation rejection must not retry, got retry_count=%d", st.failedRecords[0].RetryCount)
	}
}

func TestProcessDuplicateSkipsWrite(t *testing.T) {
	st := newFakeStore()
	st.processedFingerprints["fp-4"] = true
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	payload := purchasePayload(t, "fp-4", 10)
	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.processedRecords) != 0 {
		t.Fatal("duplicate delivery must not write a new processed record")
	}
	if len(st.failedRecords) != 0 {
		t.Fatal("duplicate delivery must not write a failed record")
	}
}

func TestProcessRaceLostTreatedAsDuplicate(t *testing.T) {
	st := newFakeStore()
	// Another worker wins the insert race between this worker's dedup read
	// and its own insert attempt.
	st.insertProcessedErrs = []error{store.ErrAlreadyExists}
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	payload := purchasePayload(t, "fp-6", 10)

	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.failedRecords) != 0 {
		t.Fatal("a lost dedup race must not be dead-lettered")
	}
}

func TestProcessPersistRetriesThenSucceeds(t *testing.T) {
	st := newFakeStore()
	transient := errorsNewTransient()
	st.insertProcessedErrs = []error{transient, transient, nil}
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	payload := purchasePayload(t, "fp-7", 50)
	if err := p.Process(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.processedRecords) != 1 {
		t.Fatalf("expected eventual success, got %d processed records", len(st.processedRecords))
	}
	if st.processedRecords[0].RetryCount != 2 {
		t.Fatalf("expected retry_count=2 (third attempt, 0-indexed), got %d", st.processedRecords[0].RetryCount)
	}
}

func TestProcessPersistExhaustsRetriesAndDeadLetters(t *testing.T) {
	st := newFakeStore()
	transient := errorsNewTransient()
	st.insertProcessedErrs = []error{transient, transient, transient}
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	payload := purchasePayload(t, "fp-8", 50)
	if err := p.Process(context.Background(), payload); err == nil {
		t.Fatal("expected the persist error to propagate after exhausting retries")
	}
	if len(st.processedRecords) != 0 {
		t.Fatal("exhausted retries must not leave a processed record")
	}
	if len(st.failedRecords) != 1 {
		t.Fatalf("expected exactly one dead-letter record, got %d", len(st.failedRecords))
	}
	if st.failedRecords[0].RetryCount != 2 {
		t.Fatalf("expected retry_count=2 (final attempt, 0-indexed), got %d", st.failedRecords[0].RetryCount)
	}
}

func TestProcessPersistNonTransientErrorSkipsRetry(t *testing.T) {
	st := newFakeStore()
	st.insertProcessedErrs = []error{commonerrors.New(commonerrors.InternalError, "marshal failed")}
	p := testProcessor(st, RetryConfig{MaxAttempts: 3, BaseSeconds: 0})

	payload := purchasePayload(t, "fp-9", 50)
	if err := p.Process(context.Background(), payload); err == nil {
		t.Fatal("expected the persist error to propagate")
	}
	if len(st.failedRecords) != 1 {
		t.Fatalf("expected exactly one dead-letter record, got %d", len(st.failedRecords))
	}
	if st.failedRecords[0].RetryCount != 0 {
		t.Fatalf("a non-transient persist error must not be retried, got retry_count=%d", st.failedRecords[0].RetryCount)
	}
}

func errorsNewTransient() error {
	return commonerrors.New(commonerrors.TransientStoreError, "store temporarily unavailable")
}

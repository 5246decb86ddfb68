package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/turtacn/eventflow/pkg/adapter/store"
	commonerrors "github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
	"github.com/turtacn/eventflow/pkg/logger"
	"github.com/turtacn/eventflow/pkg/observability/metrics"
	"github.com/turtacn/eventflow/pkg/observability/tracing"
)

// ProcessorConfig 固定每个处理器实例的worker身份与业务参数
// ProcessorConfig fixes a processor instance's worker identity and business
// parameters.
type ProcessorConfig struct {
	WorkerID           string
	HighValueThreshold float64
	Retry              RetryConfig
}

// Processor 对单条QueueEntry执行完整的状态机 (spec.md §4.3)
// Processor runs the full per-entry state machine: RECEIVED -> DUPLICATE |
// VALIDATE -> REJECTED | ENRICH -> PERSIST -> PROCESSED | DEAD_LETTER.
// Acknowledgment is the caller's responsibility (pool.go) since ack is
// best-effort and independent of processing outcome.
type Processor struct {
	store   store.Store
	metrics *metrics.AppMetrics
	cfg     ProcessorConfig
}

// NewProcessor 创建一个绑定到指定存储与度量实例的处理器
// NewProcessor creates a processor bound to the given store and metrics
// instance.
func NewProcessor(st store.Store, m *metrics.AppMetrics, cfg ProcessorConfig) *Processor {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseSeconds <= 0 {
		cfg.Retry.BaseSeconds = 2
	}
	return &Processor{store: st, metrics: m, cfg: cfg}
}

// Process 解析载荷并驱动该条目走完状态机，返回值仅用于日志，从不阻止ack
// Process decodes the payload and drives it through the state machine. Its
// return value is informational only — the caller acks regardless, per the
// ack-is-best-effort invariant.
func (p *Processor) Process(ctx context.Context, payload []byte) error {
	var sub model.Submission
	if err := json.Unmarshal(payload, &sub); err != nil {
		logger.Ctx(ctx).Errorw("queue entry payload is not a valid submission", "error", err)
		p.deadLetter(ctx, "", payload, "unparseable payload: "+err.Error(), 0)
		return err
	}

	ctx = withCorrelationID(ctx, sub.Fingerprint)
	ctx, span := tracing.StartSpan(ctx, "worker.Process")
	defer span.End()
	l := logger.Ctx(ctx).With("kind", sub.Kind)

	exists, err := p.store.ExistsProcessed(ctx, sub.Fingerprint)
	if err != nil {
		l.Errorw("dedup lookup failed", "error", err)
		return commonerrors.Wrap(err, commonerrors.TransientStoreError, "dedup lookup failed")
	}
	if exists {
		l.Info("duplicate delivery, already processed")
		if p.metrics != nil {
			p.metrics.EventsDuplicateTotal.Inc()
		}
		return nil
	}

	if err := ValidateBusinessRules(&sub); err != nil {
		l.Warnw("business validation failed", "error", err)
		p.deadLetter(ctx, sub.Fingerprint, payload, err.Error(), 0)
		if p.metrics != nil {
			p.metrics.EventsFailedTotal.With("validation").Inc()
		}
		return nil
	}

	retryCount := 0
	persistErr := Do(ctx, p.cfg.Retry, func(attempt int) error {
		retryCount = attempt
		now := time.Now().UTC()
		enrichment := Enrich(&sub, p.cfg.WorkerID, p.cfg.HighValueThreshold, now)

		rec := &model.ProcessedRecord{
			Fingerprint: sub.Fingerprint,
			Kind:        sub.Kind.String(),
			SubjectID:   sub.SubjectID,
			OccurredAt:  sub.OccurredAt,
			Properties:  sub.Properties,
			ProcessedAt: now,
			Status:      "completed",
			Enrichment:  enrichment,
			RetryCount:  attempt,
		}
		if err := p.store.InsertProcessed(ctx, rec); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return Permanent(err)
			}
			if !commonerrors.IsTransient(err) {
				return Permanent(err)
			}
			return err
		}
		return nil
	})

	if persistErr == nil {
		l.Infow("event processed", "retry_count", retryCount)
		if p.metrics != nil {
			p.metrics.EventsProcessedTotal.Inc()
		}
		return nil
	}

	if errors.Is(persistErr, store.ErrAlreadyExists) {
		l.Info("lost dedup race on processed insert, treating as duplicate")
		if p.metrics != nil {
			p.metrics.EventsDuplicateTotal.Inc()
		}
		return nil
	}

	l.Errorw("persist exhausted retries, dead-lettering", "error", persistErr, "retry_count", retryCount)
	p.deadLetter(ctx, sub.Fingerprint, payload, persistErr.Error(), retryCount)
	if p.metrics != nil {
		p.metrics.EventsFailedTotal.With("persist").Inc()
	}
	return persistErr
}

func (p *Processor) deadLetter(ctx context.Context, fingerprint string, payload []byte, errMsg string, retryCount int) {
	rec := &model.FailedRecord{
		Fingerprint:  fingerprint,
		Payload:      payload,
		ErrorMessage: errMsg,
		FailedAt:     time.Now().UTC(),
		RetryCount:   retryCount,
	}
	if err := p.store.InsertFailed(ctx, rec); err != nil {
		logger.Ctx(ctx).Errorw("failed to write dead-letter record", "fingerprint", fingerprint, "error", err)
	}
}

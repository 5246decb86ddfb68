package ingestion

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/turtacn/eventflow/pkg/adapter/queue"
	"github.com/turtacn/eventflow/pkg/adapter/store"
	"github.com/turtacn/eventflow/pkg/common/constants"
	"github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
	"github.com/turtacn/eventflow/pkg/logger"
	"github.com/turtacn/eventflow/pkg/observability/metrics"
	"github.com/turtacn/eventflow/pkg/observability/tracing"
)

type serviceImpl struct {
	queueClient   queue.Client
	store         store.Store
	consumerGroup string
	metrics       *metrics.AppMetrics
}

// NewService 创建一个新的采集服务实例
// NewService creates a new instance of the ingestion service.
func NewService(queueClient queue.Client, st store.Store, consumerGroup string, m *metrics.AppMetrics) Service {
	return &serviceImpl{
		queueClient:   queueClient,
		store:         st,
		consumerGroup: consumerGroup,
		metrics:       m,
	}
}

// Submit 校验、持久化并入队一条提交 (spec.md §4.1)
// Submit validates, persists, and enqueues one submission.
//
// 1. 结构性校验是同步且纯的；失败时返回客户端错误，不产生任何写入。
// 1. Structural validation is synchronous and pure. On failure: client error,
//    no writes.
// 2. 校验通过后插入RawRecord；指纹已存在时返回AlreadyExistsError，其他插入失败返回服务端错误，且绝不入队。
// 2. On pass: insert a RawRecord. If the fingerprint already exists:
//    AlreadyExistsError (a client error); any other insert failure: server
//    error. In both cases, do NOT enqueue.
// 3. 原始记录插入成功后，将序列化后的提交入队。
// 3. After a successful raw insert: enqueue a QueueEntry whose payload is the
//    serialized submission.
// 4. 返回指纹与accepted状态。
// 4. Return the fingerprint and an accepted status.
func (s *serviceImpl) Submit(ctx context.Context, sub *model.Submission) (*SubmitResult, error) {
	l := logger.Ctx(ctx).With("method", "Submit")

	if err := sub.Validate(); err != nil {
		l.Warnw("submission failed structural validation", "error", err)
		return nil, err
	}

	sub.AssignFingerprint()
	now := time.Now().UTC()
	sub.NormalizeOccurredAt(now)

	ctx = context.WithValue(ctx, constants.ContextKeyCorrelationID, sub.Fingerprint)
	ctx, span := tracing.StartSpan(ctx, "ingestion.Submit")
	defer span.End()

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, errors.Wrap(err, errors.StructuralError, "failed to serialize submission")
	}

	rawRec := &model.RawRecord{
		Fingerprint: sub.Fingerprint,
		Payload:     payload,
		ReceivedAt:  now,
	}
	if err := s.store.InsertRaw(ctx, rawRec); err != nil {
		if stderrors.Is(err, store.ErrAlreadyExists) {
			l.Warnw("raw event fingerprint already exists", "fingerprint", sub.Fingerprint)
			return nil, errors.Wrap(err, errors.AlreadyExistsError, "event with this fingerprint already exists")
		}
		l.Errorw("failed to persist raw record", "fingerprint", sub.Fingerprint, "error", err)
		return nil, errors.Wrap(err, errors.TransientStoreError, "failed to persist raw event")
	}

	if _, err := s.queueClient.Publish(ctx, payload); err != nil {
		l.Errorw("failed to enqueue submission", "fingerprint", sub.Fingerprint, "error", err)
		return nil, errors.Wrap(err, errors.TransientQueueError, "failed to enqueue event")
	}

	if s.metrics != nil {
		s.metrics.EventsReceivedTotal.Inc()
	}

	l.Infow("submission accepted", "fingerprint", sub.Fingerprint)
	return &SubmitResult{
		Fingerprint: sub.Fingerprint,
		Status:      "accepted",
		ReceivedAt:  now.Format(time.RFC3339),
	}, nil
}

// Health 探测存储与队列的可达性，任一组件不可达则整体状态为degraded
// Health probes store and queue reachability; either being unreachable
// degrades the overall status.
func (s *serviceImpl) Health(ctx context.Context) (*HealthResult, error) {
	result := &HealthResult{Status: "ok", Version: constants.ServiceVersion}

	if err := s.store.Ping(ctx); err != nil {
		logger.Ctx(ctx).Warnw("store health check failed", "error", err)
		result.Components.Store = "down"
		result.Status = "degraded"
	} else {
		result.Components.Store = "ok"
	}

	if _, err := s.queueClient.Length(ctx); err != nil {
		logger.Ctx(ctx).Warnw("queue health check failed", "error", err)
		result.Components.Queue = "down"
		result.Status = "degraded"
	} else {
		result.Components.Queue = "ok"
	}

	return result, nil
}

// QueueStats 返回队列长度与该消费组的待确认条目数
// QueueStats returns the stream length and the consumer group's pending
// count.
func (s *serviceImpl) QueueStats(ctx context.Context) (*QueueStatsResult, error) {
	length, err := s.queueClient.Length(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.TransientQueueError, "failed to read queue length")
	}

	pending, err := s.queueClient.PendingCount(ctx, s.consumerGroup)
	if err != nil {
		return nil, errors.Wrap(err, errors.TransientQueueError, "failed to read pending count")
	}

	return &QueueStatsResult{QueueLength: length, Pending: pending}, nil
}

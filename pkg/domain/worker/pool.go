package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/turtacn/eventflow/pkg/adapter/queue"
	"github.com/turtacn/eventflow/pkg/logger"
	"github.com/turtacn/eventflow/pkg/observability/metrics"
)

// PoolConfig 固定消费组拓扑与各项超时参数 (spec.md §4.2/§4.3)
// PoolConfig fixes the consumer-group topology and the various timeouts.
type PoolConfig struct {
	Count            int
	IDPrefix         string
	ConsumerGroup    string
	MaxBatch         int
	BlockTimeout     time.Duration
	IdleReclaim      time.Duration
	ShutdownDeadline time.Duration
}

// Pool 运行N个共享同一消费组的独立worker (spec.md §4.3 调度模型)
// Pool runs N independent workers sharing one consumer group. All workers
// share the pool's queue client and processor (and so its store), and each
// makes forward progress under its own consumer id without coordinating
// with its peers beyond the group's own semantics.
type Pool struct {
	cfg       PoolConfig
	queue     queue.Client
	processor *Processor
	metrics   *metrics.AppMetrics
}

// NewPool 创建一个绑定到队列客户端与处理器的worker池
// NewPool creates a worker pool bound to a queue client and a processor.
func NewPool(q queue.Client, p *Processor, m *metrics.AppMetrics, cfg PoolConfig) *Pool {
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 10
	}
	if cfg.ShutdownDeadline <= 0 {
		cfg.ShutdownDeadline = 30 * time.Second
	}
	return &Pool{cfg: cfg, queue: q, processor: p, metrics: m}
}

// Run 启动所有worker并阻塞，直到ctx被取消且全部worker完成退出或超出关闭期限
// Run starts all workers and blocks until ctx is cancelled and every worker
// has either exited cleanly or the shutdown deadline has elapsed.
func (pool *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < pool.cfg.Count; i++ {
		consumerID := workerConsumerID(pool.cfg.IDPrefix, i)
		wg.Add(1)
		go func(consumerID string) {
			defer wg.Done()
			pool.runWorker(ctx, consumerID)
		}(consumerID)
	}

	if pool.metrics != nil {
		pool.metrics.ActiveWorkers.Set(float64(pool.cfg.Count))
	}

	<-ctx.Done()
	logger.L().Info("shutdown signal received, waiting for in-flight entries to complete")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.L().Info("all workers exited cleanly")
	case <-time.After(pool.cfg.ShutdownDeadline):
		logger.L().Warn("shutdown deadline exceeded, abandoning in-flight entries to reclaim-stale")
	}

	if pool.metrics != nil {
		pool.metrics.ActiveWorkers.Set(0)
	}
}

// runWorker 是单个worker的receive-process-ack循环 (spec.md §4.3)
// runWorker is a single worker's receive-process-ack loop. On every cycle it
// first reclaims stale entries, then consumes fresh ones; both are processed
// identically.
func (pool *Pool) runWorker(ctx context.Context, consumerID string) {
	ctx = withWorkerID(ctx, consumerID)
	// 已接收的条目在不随关闭信号取消的上下文中处理，使其能走完ACK或死信
	// Entries already received are processed on a context that shutdown
	// does not cancel, so they are carried through to ACK or dead letter.
	workCtx := context.WithoutCancel(ctx)
	l := logger.Ctx(ctx)
	l.Info("worker starting")

	if err := pool.queue.EnsureGroup(ctx, pool.cfg.ConsumerGroup); err != nil {
		l.Errorw("failed to ensure consumer group, worker exiting", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			l.Info("worker stopping: no new consume cycles")
			return
		default:
		}

		reclaimed, err := pool.queue.ReclaimStale(ctx, pool.cfg.ConsumerGroup, consumerID, pool.cfg.IdleReclaim)
		if err != nil {
			l.Warnw("reclaim-stale failed, continuing loop", "error", err)
		} else {
			pool.handleBatch(workCtx, reclaimed)
		}

		entries, err := pool.queue.Consume(ctx, pool.cfg.ConsumerGroup, consumerID, pool.cfg.MaxBatch, pool.cfg.BlockTimeout)
		if err != nil {
			l.Warnw("consume failed, continuing loop", "error", err)
			continue
		}
		pool.handleBatch(workCtx, entries)
	}
}

func (pool *Pool) handleBatch(ctx context.Context, entries []queue.Entry) {
	for _, entry := range entries {
		start := time.Now()
		_ = pool.processor.Process(ctx, entry.Payload)
		if pool.metrics != nil {
			pool.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
		}

		// Ack 是尽力而为：失败只记录日志，至少一次投递会安全地重新观察到
		// 已存在的ProcessedRecord/FailedRecord (spec.md §4.3 ACK)。
		// Ack is best-effort: a failure is logged but does not re-enter the
		// state machine, since redelivery will harmlessly re-observe the
		// now-present terminal record.
		if err := pool.queue.Ack(ctx, pool.cfg.ConsumerGroup, entry.ID); err != nil {
			logger.Ctx(ctx).Warnw("ack failed, relying on redelivery", "entry_id", entry.ID, "error", err)
		}
	}
}

func workerConsumerID(prefix string, index int) string {
	if prefix == "" {
		prefix = "worker"
	}
	return prefix + "-" + strconv.Itoa(index+1)
}

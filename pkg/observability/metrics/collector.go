package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/turtacn/eventflow/pkg/adapter/monitoring"
	"github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/logger"
)

// QueueSampler 提供queue_depth/pending_messages采样循环所需的两个只读探针
// QueueSampler supplies the two read-only probes the gauge sampling loop
// needs.
type QueueSampler interface {
	Length(ctx context.Context) (int64, error)
	PendingCount(ctx context.Context, group string) (int64, error)
}

// AppMetrics holds all application-specific metrics (spec.md §6 observability contract).
// AppMetrics 保存spec.md §6观测契约中列举的全部度量指标。
type AppMetrics struct {
	EventsReceivedTotal  monitoring.Counter   // events_received_total
	EventsProcessedTotal monitoring.Counter   // events_processed_total
	EventsFailedTotal    monitoring.Counter   // events_failed_total{reason}
	EventsDuplicateTotal monitoring.Counter   // events_duplicate_total
	ProcessingDuration   monitoring.Histogram // event_processing_duration_seconds
	QueueDepth           monitoring.Gauge     // queue_depth
	PendingMessages      monitoring.Gauge     // pending_messages
	ActiveWorkers        monitoring.Gauge     // active_workers

	exporter monitoring.MetricsExporter
}

var (
	globalAppMetrics *AppMetrics
	metricsOnce      sync.Once
)

// NewAppMetrics initializes and registers all application-specific metrics.
// NewAppMetrics 初始化并注册所有应用程序特定的度量指标，应在启动时调用一次。
func NewAppMetrics(exporter monitoring.MetricsExporter) (*AppMetrics, error) {
	var err error
	metricsOnce.Do(func() {
		l := logger.L().With("component", "AppMetrics")
		if exporter == nil {
			err = errors.New(errors.ConfigError, "MetricsExporter cannot be nil")
			l.Error(err.Error())
			return
		}

		m := &AppMetrics{exporter: exporter}

		if m.EventsReceivedTotal, err = exporter.RegisterCounter(
			"events_received_total", "Total number of events accepted by ingestion.",
		); err != nil {
			l.Errorw("failed to register events_received_total", "error", err)
			return
		}

		if m.EventsProcessedTotal, err = exporter.RegisterCounter(
			"events_processed_total", "Total number of events successfully processed.",
		); err != nil {
			l.Errorw("failed to register events_processed_total", "error", err)
			return
		}

		if m.EventsFailedTotal, err = exporter.RegisterCounter(
			"events_failed_total", "Total number of events sent to the dead letter table.", "reason",
		); err != nil {
			l.Errorw("failed to register events_failed_total", "error", err)
			return
		}

		if m.EventsDuplicateTotal, err = exporter.RegisterCounter(
			"events_duplicate_total", "Total number of redeliveries resolved as duplicates.",
		); err != nil {
			l.Errorw("failed to register events_duplicate_total", "error", err)
			return
		}

		if m.ProcessingDuration, err = exporter.RegisterHistogram(
			"event_processing_duration_seconds", "Time spent processing one queue entry end to end.", nil,
		); err != nil {
			l.Errorw("failed to register event_processing_duration_seconds", "error", err)
			return
		}

		if m.QueueDepth, err = exporter.RegisterGauge(
			"queue_depth", "Current number of entries in the event stream.",
		); err != nil {
			l.Errorw("failed to register queue_depth", "error", err)
			return
		}

		if m.PendingMessages, err = exporter.RegisterGauge(
			"pending_messages", "Current number of delivered-but-unacknowledged entries.",
		); err != nil {
			l.Errorw("failed to register pending_messages", "error", err)
			return
		}

		if m.ActiveWorkers, err = exporter.RegisterGauge(
			"active_workers", "Current number of running worker goroutines.",
		); err != nil {
			l.Errorw("failed to register active_workers", "error", err)
			return
		}

		globalAppMetrics = m
		l.Info("application metrics registered successfully")
	})
	if err != nil {
		return nil, err
	}
	return globalAppMetrics, nil
}

// Get returns the global AppMetrics instance.
// Get 返回全局的AppMetrics实例，未初始化时panic，表明这是编程错误。
func Get() *AppMetrics {
	if globalAppMetrics == nil {
		logger.L().Panic("AppMetrics not initialized. Call NewAppMetrics first.")
	}
	return globalAppMetrics
}

// ExposeHandler returns an http.Handler for Prometheus scraping.
// ExposeHandler 返回一个供Prometheus抓取的http.Handler。
func ExposeHandler() http.Handler {
	if globalAppMetrics == nil || globalAppMetrics.exporter == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics system not initialized", http.StatusInternalServerError)
		})
	}
	return globalAppMetrics.exporter.ExposeHandler()
}

// RunQueueSampleLoop 周期性采样队列深度与积压量，直到ctx被取消
// RunQueueSampleLoop periodically samples queue depth and pending-message
// count until ctx is cancelled. Resolves the sampling-cadence open question
// (SPEC_FULL.md §9) at a fixed interval.
func (m *AppMetrics) RunQueueSampleLoop(ctx context.Context, sampler QueueSampler, group string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if length, err := sampler.Length(ctx); err == nil {
				m.QueueDepth.Set(float64(length))
			} else {
				logger.Ctx(ctx).Warnw("queue depth sample failed", "error", err)
			}
			if pending, err := sampler.PendingCount(ctx, group); err == nil {
				m.PendingMessages.Set(float64(pending))
			} else {
				logger.Ctx(ctx).Warnw("pending messages sample failed", "error", err)
			}
		}
	}
}

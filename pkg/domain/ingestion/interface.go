package ingestion

import (
	"context"

	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

// SubmitResult 是submit操作成功路径上返回给调用方的全部信息
// SubmitResult is everything the submit operation's success path hands back
// to the caller.
type SubmitResult struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"` // 恒为 "accepted" always "accepted"
	ReceivedAt  string `json:"received-at"`
}

// ComponentHealth 报告存储与队列各自的健康状况
// ComponentHealth reports the health of the store and the queue.
type ComponentHealth struct {
	Store string `json:"store"`
	Queue string `json:"queue"`
}

// HealthResult 是health操作的返回值
// HealthResult is the return value of the health operation.
type HealthResult struct {
	Status     string          `json:"status"` // "ok" 或 "degraded" "ok" or "degraded"
	Components ComponentHealth `json:"components"`
	Version    string          `json:"version"`
}

// QueueStatsResult 是queue-stats操作的返回值
// QueueStatsResult is the return value of the queue-stats operation.
type QueueStatsResult struct {
	QueueLength int64 `json:"queue-length"`
	Pending     int64 `json:"pending"`
}

// Service 定义了事件采集服务的接口 (spec.md §4.1)
// Service defines the interface for the event ingestion service: submit,
// health, and queue-stats.
type Service interface {
	// Submit 对提交做结构性校验、持久化原始记录并入队，返回指纹与accepted状态
	// Submit validates the submission structurally, persists the raw record,
	// and enqueues it. Returns the fingerprint and an accepted status.
	Submit(ctx context.Context, sub *model.Submission) (*SubmitResult, error)

	// Health 探测存储与队列的可达性
	// Health probes store and queue reachability.
	Health(ctx context.Context) (*HealthResult, error)

	// QueueStats 返回队列长度与待确认条目数
	// QueueStats returns the queue length and the pending-entry count.
	QueueStats(ctx context.Context) (*QueueStatsResult, error)
}

package queue

import (
	"context"
	"time"
)

// Entry 是从队列读取或重新认领的一条投递
// Entry is a single delivery read or reclaimed from the queue.
type Entry struct {
	ID      string // 队列分配的单调递增entry-id queue-assigned, monotonically increasing
	Payload []byte
}

// Client 定义了队列适配器必须满足的消费组契约 (spec §4.2)
// Client defines the at-least-once consumer-group contract the queue adapter
// must satisfy.
type Client interface {
	// Publish 发布一条消息，返回队列分配的entry-id
	// Publish appends payload to the stream and returns the assigned entry id.
	Publish(ctx context.Context, payload []byte) (string, error)

	// EnsureGroup 幂等地创建消费组；组已存在不算错误
	// EnsureGroup idempotently creates the consumer group; a pre-existing group
	// is not an error.
	EnsureGroup(ctx context.Context, group string) error

	// Consume 读取分配给该消费者的新条目，在block超时后返回空列表
	// Consume reads NEW entries delivered to consumerID, returning an empty
	// slice once blockTimeout elapses without new entries.
	Consume(ctx context.Context, group, consumerID string, maxBatch int, blockTimeout time.Duration) ([]Entry, error)

	// ReclaimStale 认领空闲超过idleThreshold的待确认条目，转交给调用方
	// ReclaimStale reclaims entries idle longer than idleThreshold and
	// reassigns them to consumerID. Return order is unspecified.
	ReclaimStale(ctx context.Context, group, consumerID string, idleThreshold time.Duration) ([]Entry, error)

	// Ack 从消费组的待确认集合中移除该条目，对已确认的条目幂等
	// Ack removes entry from the group's pending set; idempotent on
	// already-acked entries.
	Ack(ctx context.Context, group, entryID string) error

	// PendingCount 返回该消费组已投递但未确认的条目数
	// PendingCount returns the number of delivered-but-unacknowledged entries
	// in group.
	PendingCount(ctx context.Context, group string) (int64, error)

	// Length 返回流中的条目总数
	// Length returns the total number of entries in the stream.
	Length(ctx context.Context) (int64, error)

	// Close 释放底层连接
	// Close releases the underlying connection.
	Close() error
}

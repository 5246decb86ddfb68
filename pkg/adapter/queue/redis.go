package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	appErrors "github.com/turtacn/eventflow/pkg/common/errors"
)

// Config 配置Redis Streams队列适配器
// Config configures the Redis Streams queue adapter.
type Config struct {
	// URL Redis连接地址，例如 redis://127.0.0.1:6379/0
	// URL is the Redis connection URL, e.g. redis://127.0.0.1:6379/0
	URL string

	// StreamName 流名称
	// StreamName is the stream key.
	StreamName string
}

// RedisClient 基于Redis Streams实现队列契约
// RedisClient implements the queue Client contract over Redis Streams.
type RedisClient struct {
	rdb    *goredis.Client
	stream string
}

// New 根据配置创建一个Redis Streams队列客户端
// New creates a Redis Streams queue client from cfg.
func New(cfg Config) (*RedisClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("queue: redis URL is required")
	}
	if cfg.StreamName == "" {
		return nil, errors.New("queue: stream name is required")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("queue: invalid redis URL: %w", err)
	}

	return &RedisClient{
		rdb:    goredis.NewClient(opts),
		stream: cfg.StreamName,
	}, nil
}

// NewFromClient 使用已有的go-redis客户端构造队列适配器，便于测试注入miniredis
// NewFromClient wraps an existing go-redis client, used by tests to inject a
// miniredis-backed client.
func NewFromClient(rdb *goredis.Client, stream string) *RedisClient {
	return &RedisClient{rdb: rdb, stream: stream}
}

// Publish 将payload追加到流末尾
// Publish appends payload to the tail of the stream.
func (c *RedisClient) Publish(ctx context.Context, payload []byte) (string, error) {
	id, err := c.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: c.stream,
		Values: map[string]interface{}{"payload": payload},
	}).Result()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.TransientQueueError, "queue: publish failed")
	}
	return id, nil
}

// EnsureGroup 创建消费组，BUSYGROUP视为成功 (spec §4.2)
// EnsureGroup creates the consumer group; a BUSYGROUP error is treated as
// success per the spec's idempotent ensure-group contract.
func (c *RedisClient) EnsureGroup(ctx context.Context, group string) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return appErrors.Wrap(err, appErrors.TransientQueueError, "queue: ensure-group failed")
	}
	return nil
}

// Consume 读取分配给consumerID的新条目
// Consume reads NEW entries delivered to consumerID.
func (c *RedisClient) Consume(ctx context.Context, group, consumerID string, maxBatch int, blockTimeout time.Duration) ([]Entry, error) {
	res, err := c.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    group,
		Consumer: consumerID,
		Streams:  []string{c.stream, ">"},
		Count:    int64(maxBatch),
		Block:    blockTimeout,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.TransientQueueError, "queue: consume failed")
	}
	return messagesToEntries(res), nil
}

// ReclaimStale 认领空闲超过idleThreshold的待确认条目
// ReclaimStale reclaims entries idle longer than idleThreshold.
func (c *RedisClient) ReclaimStale(ctx context.Context, group, consumerID string, idleThreshold time.Duration) ([]Entry, error) {
	msgs, _, err := c.rdb.XAutoClaim(ctx, &goredis.XAutoClaimArgs{
		Stream:   c.stream,
		Group:    group,
		Consumer: consumerID,
		MinIdle:  idleThreshold,
		Start:    "0-0",
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.TransientQueueError, "queue: reclaim-stale failed")
	}
	entries := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, messageToEntry(m))
	}
	return entries, nil
}

// Ack 确认条目，对已确认条目幂等 (XAck对不存在的待确认条目返回0，非错误)
// Ack acknowledges entryID; idempotent because XAck returns 0 (not an error)
// for an entry no longer pending.
func (c *RedisClient) Ack(ctx context.Context, group, entryID string) error {
	if err := c.rdb.XAck(ctx, c.stream, group, entryID).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.TransientQueueError, "queue: ack failed")
	}
	return nil
}

// PendingCount 返回消费组的待确认条目数
// PendingCount returns the number of pending entries for group.
func (c *RedisClient) PendingCount(ctx context.Context, group string) (int64, error) {
	summary, err := c.rdb.XPending(ctx, c.stream, group).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, appErrors.Wrap(err, appErrors.TransientQueueError, "queue: pending-count failed")
	}
	return summary.Count, nil
}

// Length 返回流中条目总数
// Length returns the total number of entries in the stream.
func (c *RedisClient) Length(ctx context.Context) (int64, error) {
	n, err := c.rdb.XLen(ctx, c.stream).Result()
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.TransientQueueError, "queue: length failed")
	}
	return n, nil
}

// Close 关闭底层Redis连接
// Close releases the underlying Redis connection.
func (c *RedisClient) Close() error {
	return c.rdb.Close()
}

func messagesToEntries(res []goredis.XStream) []Entry {
	var entries []Entry
	for _, stream := range res {
		for _, m := range stream.Messages {
			entries = append(entries, messageToEntry(m))
		}
	}
	return entries
}

func messageToEntry(m goredis.XMessage) Entry {
	var payload []byte
	if v, ok := m.Values["payload"]; ok {
		switch vv := v.(type) {
		case string:
			payload = []byte(vv)
		case []byte:
			payload = vv
		}
	}
	return Entry{ID: m.ID, Payload: payload}
}

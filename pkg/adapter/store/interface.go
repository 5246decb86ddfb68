package store

import (
	"context"

	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

// Store 定义持久化层必须满足的事务写入与去重读取契约 (spec §4.4)
// Store defines the transactional-write and dedup-read contract the
// persistence layer must satisfy.
type Store interface {
	// ExistsProcessed 对唯一索引进行点查
	// ExistsProcessed performs a point lookup on the unique fingerprint index.
	ExistsProcessed(ctx context.Context, fingerprint string) (bool, error)

	// InsertRaw 插入原始记录；指纹已存在时失败
	// InsertRaw inserts a raw record; fails if the fingerprint already exists.
	InsertRaw(ctx context.Context, rec *model.RawRecord) error

	// InsertProcessed 插入终态成功记录；指纹冲突时返回 ErrAlreadyExists
	// InsertProcessed inserts a terminal success record; a fingerprint
	// conflict returns ErrAlreadyExists.
	InsertProcessed(ctx context.Context, rec *model.ProcessedRecord) error

	// InsertFailed 追加一条失败记录，无唯一性约束
	// InsertFailed appends a failure record; no uniqueness constraint.
	InsertFailed(ctx context.Context, rec *model.FailedRecord) error

	// Ping 探测存储是否可达，用于健康检查
	// Ping probes store reachability for health checks.
	Ping(ctx context.Context) error

	// Close 释放底层连接池
	// Close releases the underlying connection pool.
	Close() error
}

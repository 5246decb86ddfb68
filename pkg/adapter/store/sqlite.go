package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	appErrors "github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

// Config 配置sqlite3持久化存储
// Config configures the sqlite3-backed persistence store.
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// SQLiteStore 基于database/sql + mattn/go-sqlite3实现Store契约
// SQLiteStore implements the Store contract over database/sql and
// mattn/go-sqlite3.
type SQLiteStore struct {
	db *sql.DB
}

// New 打开数据库连接池，执行schema迁移
// New opens the connection pool and runs the schema migration.
func New(cfg Config) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open failed: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ExistsProcessed 对processed_events.fingerprint唯一索引进行点查
// ExistsProcessed performs a point lookup on the processed_events unique
// fingerprint index.
func (s *SQLiteStore) ExistsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_events WHERE fingerprint = ? LIMIT 1`, fingerprint,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.TransientStoreError, "store: exists-processed query failed")
	}
	return true, nil
}

// InsertRaw 插入原始记录，指纹冲突时返回client错误
// InsertRaw inserts a raw record; a fingerprint conflict surfaces as a client
// error per spec §4.4.
func (s *SQLiteStore) InsertRaw(ctx context.Context, rec *model.RawRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_events (fingerprint, payload, received_at) VALUES (?, ?, ?)`,
		rec.Fingerprint, rec.Payload, rec.ReceivedAt,
	)
	if isUniqueViolation(err) {
		return appErrors.Wrap(ErrAlreadyExists, appErrors.AlreadyExistsError, "store: raw event already exists")
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.TransientStoreError, "store: insert-raw failed")
	}
	return nil
}

// InsertProcessed 插入终态成功记录，指纹冲突时返回ErrAlreadyExists (RaceLost)
// InsertProcessed inserts a terminal success record; a fingerprint conflict
// returns ErrAlreadyExists, which callers map to RaceLost/DUPLICATE.
func (s *SQLiteStore) InsertProcessed(ctx context.Context, rec *model.ProcessedRecord) error {
	properties, err := json.Marshal(rec.Properties)
	if err != nil {
		return appErrors.Wrap(err, appErrors.InternalError, "store: marshal properties failed")
	}
	enrichment, err := json.Marshal(rec.Enrichment)
	if err != nil {
		return appErrors.Wrap(err, appErrors.InternalError, "store: marshal enrichment failed")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO processed_events
			(fingerprint, kind, subject_id, occurred_at, properties, processed_at, status, enrichment, retry_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Fingerprint, rec.Kind, rec.SubjectID, rec.OccurredAt, properties,
		rec.ProcessedAt, rec.Status, enrichment, rec.RetryCount,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.TransientStoreError, "store: insert-processed failed")
	}
	return nil
}

// InsertFailed 追加失败记录，无唯一性约束
// InsertFailed appends a failure record; no uniqueness constraint.
func (s *SQLiteStore) InsertFailed(ctx context.Context, rec *model.FailedRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failed_events (fingerprint, payload, error_message, failed_at, retry_count)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Fingerprint, rec.Payload, rec.ErrorMessage, rec.FailedAt, rec.RetryCount,
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.TransientStoreError, "store: insert-failed failed")
	}
	return nil
}

// Ping 探测数据库连接是否可用
// Ping probes whether the database connection is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.TransientStoreError, "store: ping failed")
	}
	return nil
}

// Close 关闭连接池
// Close closes the connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation 判断错误是否是sqlite3唯一约束冲突
// isUniqueViolation reports whether err is a sqlite3 unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

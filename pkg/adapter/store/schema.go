package store

import "database/sql"

// schemaStatements 建表与索引语句，启动时在单个事务中顺序执行一次
// schemaStatements are the table and index DDL statements run once, in a
// single transaction, at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS raw_events (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint  TEXT NOT NULL,
		payload      TEXT NOT NULL,
		received_at  DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_raw_events_fingerprint ON raw_events(fingerprint)`,

	`CREATE TABLE IF NOT EXISTS processed_events (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint  TEXT NOT NULL,
		kind         TEXT NOT NULL,
		subject_id   TEXT NOT NULL DEFAULT '',
		occurred_at  DATETIME NOT NULL,
		properties   TEXT NOT NULL,
		processed_at DATETIME NOT NULL,
		status       TEXT NOT NULL,
		enrichment   TEXT NOT NULL,
		retry_count  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_processed_events_fingerprint ON processed_events(fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_events_kind ON processed_events(kind)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_events_subject_id ON processed_events(subject_id)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_events_processed_at ON processed_events(processed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_events_status ON processed_events(status)`,

	`CREATE TABLE IF NOT EXISTS failed_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint   TEXT NOT NULL,
		payload       TEXT NOT NULL,
		error_message TEXT NOT NULL,
		failed_at     DATETIME NOT NULL,
		retry_count   INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_failed_events_fingerprint ON failed_events(fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_failed_events_failed_at ON failed_events(failed_at)`,
}

// migrate 在单个事务中顺序执行所有建表/索引语句
// migrate runs every table/index statement in order inside a single
// transaction.
func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

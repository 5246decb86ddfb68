package model

import "time"

// RawRecord 每次被接受的提交的审计记录，插入一次，永不修改
// RawRecord is the audit record of every accepted submission; inserted once,
// never mutated.
type RawRecord struct {
	ID          int64     `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Payload     []byte    `json:"payload"` // Submission序列化后的JSON Serialized Submission JSON
	ReceivedAt  time.Time `json:"received-at"`
}

// ProcessedRecord 终态成功记录，对每个指纹至多插入一次
// ProcessedRecord is the terminal success record; at most one per fingerprint.
type ProcessedRecord struct {
	ID          int64                  `json:"id"`
	Fingerprint string                 `json:"fingerprint"`
	Kind        string                 `json:"kind"`
	SubjectID   string                 `json:"subject-id"`
	OccurredAt  time.Time              `json:"occurred-at"`
	Properties  map[string]interface{} `json:"properties"`
	ProcessedAt time.Time              `json:"processed-at"`
	Status      string                 `json:"status"` // 恒为 "completed" always "completed"
	Enrichment  map[string]interface{} `json:"enrichment"`
	RetryCount  int                    `json:"retry-count"`
}

// FailedRecord 终态失败记录（死信），可对同一指纹重复追加
// FailedRecord is the terminal failure record (DLQ); may repeat for the same
// fingerprint.
type FailedRecord struct {
	ID           int64     `json:"id"`
	Fingerprint  string    `json:"fingerprint"`
	Payload      []byte    `json:"payload"`
	ErrorMessage string    `json:"error-message"`
	FailedAt     time.Time `json:"failed-at"`
	RetryCount   int       `json:"retry-count"`
}

// QueueEntry 队列投递句柄，由ingestion入队创建，ack后移除
// QueueEntry is a queue delivery handle, created by ingestion's enqueue and
// removed on acknowledgment.
type QueueEntry struct {
	EntryID string `json:"entry-id"`
	Payload []byte `json:"payload"`
}

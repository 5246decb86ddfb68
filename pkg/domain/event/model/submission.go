package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/common/types/enum"
)

// Submission 代表生产者提交的一条事件，这是进入系统的唯一入口形态
// Submission is the event a producer submits over HTTP; the only shape that
// enters the pipeline.
type Submission struct {
	// Fingerprint 幂等单元，缺省时由ingestion合成
	// Fingerprint is the unit of idempotency, synthesized at ingestion if absent.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Kind 事件类型，必须是已知枚举值
	// Kind must be one of the recognized event kinds.
	Kind enum.EventKind `json:"kind"`

	// SubjectID 可选的主体标识（用户、订单等）
	// SubjectID is an optional identifier for the subject of the event.
	SubjectID string `json:"subject-id,omitempty"`

	// OccurredAt 事件发生时间，缺省时取服务端时间
	// OccurredAt defaults to server time when absent.
	OccurredAt time.Time `json:"occurred-at,omitempty"`

	// Properties 不透明但结构化的属性载荷
	// Properties is an opaque but structured payload.
	Properties map[string]interface{} `json:"properties"`
}

// Validate 执行结构性校验，必须在任何持久化写入之前完成，且不触发任何I/O
// Validate performs pure structural validation; it never touches the store or
// queue and must run before any durable write.
func (s *Submission) Validate() error {
	if !s.Kind.IsKnown() {
		return errors.Newf(errors.StructuralError, "unrecognized event kind %q", s.Kind)
	}
	if s.Properties == nil {
		return errors.New(errors.StructuralError, "properties must be provided")
	}
	if s.Fingerprint != "" {
		if _, err := uuid.Parse(s.Fingerprint); err != nil {
			return errors.Newf(errors.StructuralError, "fingerprint %q is not a valid UUID", s.Fingerprint)
		}
	}
	return nil
}

// AssignFingerprint 为缺省指纹的提交合成一个新的UUID，幂等：已有指纹时不做任何事
// AssignFingerprint synthesizes a UUID fingerprint when the submission omits
// one. Idempotent when a fingerprint is already present.
func (s *Submission) AssignFingerprint() {
	if s.Fingerprint == "" {
		s.Fingerprint = uuid.NewString()
	}
}

// CorrelationID 等于指纹，贯穿日志与链路追踪
// CorrelationID equals the fingerprint and is carried through logs and traces.
func (s *Submission) CorrelationID() string {
	return s.Fingerprint
}

// NormalizeOccurredAt 当OccurredAt为零值时填入now
// NormalizeOccurredAt fills the zero-value OccurredAt with now.
func (s *Submission) NormalizeOccurredAt(now time.Time) {
	if s.OccurredAt.IsZero() {
		s.OccurredAt = now
	}
}

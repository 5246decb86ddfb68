package worker

import (
	"github.com/turtacn/eventflow/pkg/common/errors"
	"github.com/turtacn/eventflow/pkg/common/types/enum"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

// ValidateBusinessRules 对提交应用按kind区分的业务规则 (spec.md §4.3 VALIDATE)
// ValidateBusinessRules applies per-kind business rules. Failures here are
// permanent: the caller must dead-letter, never retry.
func ValidateBusinessRules(sub *model.Submission) error {
	switch sub.Kind {
	case enum.EventKindPurchase:
		amount, ok := sub.Properties["amount"]
		if !ok {
			return errors.New(errors.ValidationError, "purchase events require a numeric amount")
		}
		value, ok := toFloat(amount)
		if !ok || value <= 0 {
			return errors.New(errors.ValidationError, "purchase amount must be a positive number")
		}
	case enum.EventKindUserSignup:
		if sub.SubjectID == "" {
			return errors.New(errors.ValidationError, "user_signup events require a non-empty subject-id")
		}
	}
	return nil
}

// toFloat 接受JSON反序列化后常见的数值表示形式
// toFloat accepts the numeric representations that survive a JSON round
// trip.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

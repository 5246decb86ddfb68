package worker

import (
	"time"

	"github.com/turtacn/eventflow/pkg/common/types/enum"
	"github.com/turtacn/eventflow/pkg/domain/event/model"
)

// Enrich 在事件与配置之上纯函数式地计算派生字段，不执行任何网络I/O (spec.md §4.3 ENRICH)
// Enrich computes derived fields deterministically over the event and
// config. It performs no I/O; anything that could fail belongs in PERSIST.
func Enrich(sub *model.Submission, workerID string, highValueThreshold float64, now time.Time) map[string]interface{} {
	enrichment := map[string]interface{}{
		"processed-at": now.Format(time.RFC3339),
		"worker-id":    workerID,
	}

	if sub.Kind == enum.EventKindPurchase {
		if amount, ok := toFloat(sub.Properties["amount"]); ok && amount > highValueThreshold {
			enrichment["tag"] = "high_value"
		}
	}

	return enrichment
}

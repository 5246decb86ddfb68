package worker

import (
	"context"

	"github.com/turtacn/eventflow/pkg/common/constants"
)

// withCorrelationID 将fingerprint作为correlation-id挂入上下文，供日志与追踪消费
// withCorrelationID attaches fingerprint as the correlation id so logging
// and tracing can pick it up.
func withCorrelationID(ctx context.Context, fingerprint string) context.Context {
	if fingerprint == "" {
		return ctx
	}
	return context.WithValue(ctx, constants.ContextKeyCorrelationID, fingerprint)
}

// withWorkerID 将worker-id挂入上下文
// withWorkerID attaches the worker id to the context.
func withWorkerID(ctx context.Context, workerID string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyWorkerID, workerID)
}

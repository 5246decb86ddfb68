package worker

import (
	"context"
	"errors"
	"time"
)

// RetryConfig 为PERSIST步骤的有界指数退避重试参数化 (spec.md §4.3)
// RetryConfig parameterizes the bounded exponential backoff applied around
// the persist step.
type RetryConfig struct {
	MaxAttempts int
	BaseSeconds int
	MaxSeconds  int
}

// backoffFor 返回第attempt次失败后（从0开始计数）应等待的时长，受MaxSeconds封顶
// backoffFor returns the wait after the attempt'th failure (0-indexed),
// capped at MaxSeconds.
func (c RetryConfig) backoffFor(attempt int) time.Duration {
	seconds := c.BaseSeconds << uint(attempt)
	if seconds > c.maxSecondsOrDefault() {
		seconds = c.maxSecondsOrDefault()
	}
	return time.Duration(seconds) * time.Second
}

// maxSecondsOrDefault 防止零值配置导致退避窗口坍缩为0
// maxSecondsOrDefault guards against a zero-value config collapsing the
// backoff window to zero.
func (c RetryConfig) maxSecondsOrDefault() int {
	if c.MaxSeconds <= 0 {
		return 10
	}
	return c.MaxSeconds
}

// permanentError 包装一个不应被重试的错误，例如插入时丢掉的去重竞态
// permanentError wraps an error that must not be retried, such as a lost
// dedup race on insert.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error  { return p.err }

// Permanent 将err标记为不可重试，Do在遇到它时立即停止，不消耗剩余尝试次数
// Permanent marks err as non-retryable; Do stops immediately on it instead of
// spending the remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do 最多尝试fn MaxAttempts次，尝试之间按指数退避等待，直到成功、遇到Permanent错误、
// 尝试耗尽或ctx被取消
// Do attempts fn up to MaxAttempts times, sleeping with exponential backoff
// between attempts, until it succeeds, fn returns a Permanent error, attempts
// are exhausted, or ctx is cancelled. Each attempt is independent — fn is
// responsible for its own fresh transaction.
func Do(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.backoffFor(attempt)):
		}
	}
	return lastErr
}

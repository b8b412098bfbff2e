package backend

import (
	"context"
	"strconv"
	"time"

	apperrors "contract-bot/internal/common/errors"
	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/metrics"
)

// Outcome is what the retry loop hands back: the final result and how many attempts it took.
type Outcome struct {
	Result   Result
	Attempts int
}

// RetryPolicy makes up to Attempts calls, waiting attempt*BaseDelay between them.
// Every failure is retried, whatever its category.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	logger    logger.Logger
	wait      func(ctx context.Context, d time.Duration) error
}

func NewRetryPolicy(attempts int, baseDelay time.Duration, log logger.Logger) *RetryPolicy {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryPolicy{
		Attempts:  attempts,
		BaseDelay: baseDelay,
		logger:    log,
		wait:      sleepContext,
	}
}

// Backoff is the pause after the given 1-based attempt.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

func (p *RetryPolicy) Do(ctx context.Context, action string, params Params, gw Gateway) Outcome {
	var last Result
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		start := time.Now()
		last = gw.Call(ctx, action, params)
		elapsed := time.Since(start)

		metrics.RemoteCallDuration.WithLabelValues(action).Observe(elapsed.Seconds())

		if last.IsOk() {
			metrics.RemoteAttemptsTotal.WithLabelValues(action, strconv.Itoa(attempt), "ok").Inc()
			logger.APICall(p.logger, action, true, elapsed, map[string]interface{}{"attempt": attempt})
			return Outcome{Result: last, Attempts: attempt}
		}

		metrics.RemoteAttemptsTotal.WithLabelValues(action, strconv.Itoa(attempt), "error").Inc()
		logger.APICall(p.logger, action, false, elapsed, map[string]interface{}{
			"attempt":       attempt,
			"maxAttempts":   p.Attempts,
			"error":         last.Err.Message,
			"errorCode":     string(last.Err.Code),
			"errorCategory": apperrors.GetErrorCategory(last.Err.Code),
		})

		if attempt == p.Attempts {
			break
		}
		if err := p.wait(ctx, p.Backoff(attempt)); err != nil {
			return Outcome{Result: Fail(apperrors.NewTimeoutError(action, err)), Attempts: attempt}
		}
	}

	p.logger.Error("api request failed after all retries", map[string]interface{}{
		"action":   action,
		"error":    last.Err.Message,
		"attempts": p.Attempts,
	})
	return Outcome{Result: last, Attempts: p.Attempts}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

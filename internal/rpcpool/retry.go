package rpcpool

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/chainpool/internal/metrics"
)

// Backoff policy. Rate-limit waits honor the provider's suggestion when one
// can be extracted, clamped to [minRateLimitWait, maxRateLimitWait].
const (
	defaultMaxRetries     = 3
	defaultAttemptTimeout = 30 * time.Second
	minRateLimitWait      = 5 * time.Second
	maxRateLimitWait      = 60 * time.Second
	networkBackoffStep    = time.Second
	genericBackoffStep    = 500 * time.Millisecond
)

// ExecuteOptions tunes a single Execute call. Zero values use the defaults.
type ExecuteOptions struct {
	MaxRetries     int
	AttemptTimeout time.Duration
}

// Execute runs fn against a freshly selected endpoint for chain, retrying
// with backoff per the pool policy. Generic over the result type so callers
// keep their static types (block numbers, gas prices, balances).
func Execute[T any](ctx context.Context, m *Manager, chain string, fn func(ctx context.Context, conn Conn) (T, error)) (T, error) {
	return ExecuteWithOptions(ctx, m, chain, fn, ExecuteOptions{})
}

// ExecuteWithOptions is Execute with an explicit retry budget and
// per-attempt timeout.
//
// Per attempt:
//   - success resets the endpoint's error state and returns immediately
//   - rate limits sleep the suggested wait (default 5s, clamped to ≤60s)
//   - transient network errors sleep 1s × attempt
//   - "invalid" / "not found" errors are never retried
//   - anything else sleeps 500ms × attempt
//
// After the budget is spent the last observed error is returned.
func ExecuteWithOptions[T any](ctx context.Context, m *Manager, chain string, fn func(ctx context.Context, conn Conn) (T, error), opts ExecuteOptions) (T, error) {
	var zero T
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		m.mu.Lock()
		maxRetries = m.maxRetries
		m.mu.Unlock()
	}
	attemptTimeout := opts.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		ep, conn, err := m.acquire(ctx, chain)
		if err != nil {
			// No endpoint to run against; the caller owns this failure.
			return zero, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		result, err := fn(attemptCtx, conn)
		cancel()

		if err == nil {
			m.recordSuccess(ep)
			return result, nil
		}
		lastErr = err

		switch {
		case IsNonRetryable(err):
			m.recordFailure(ep, false)
			metrics.RequestErrorsTotal.WithLabelValues(chain, ep.URL, "invalid").Inc()
			return zero, err

		case IsRateLimited(err):
			m.recordFailure(ep, true)
			wait := clampWait(SuggestedWait(err))
			log.Warn().
				Str("chain", chain).
				Str("url", ep.URL).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("🚦 Rate limited, backing off")
			metrics.RequestErrorsTotal.WithLabelValues(chain, ep.URL, "rate_limit").Inc()
			metrics.RetryBackoffSeconds.WithLabelValues(chain, "rate_limit").Observe(wait.Seconds())
			if serr := m.sleep(ctx, wait); serr != nil {
				return zero, serr
			}

		case IsNetworkError(err):
			m.recordFailure(ep, false)
			wait := time.Duration(attempt) * networkBackoffStep
			log.Warn().
				Str("chain", chain).
				Str("url", ep.URL).
				Int("attempt", attempt).
				Err(err).
				Msg("🌐 Network error, retrying")
			metrics.RequestErrorsTotal.WithLabelValues(chain, ep.URL, "network").Inc()
			metrics.RetryBackoffSeconds.WithLabelValues(chain, "network").Observe(wait.Seconds())
			if serr := m.sleep(ctx, wait); serr != nil {
				return zero, serr
			}

		default:
			m.recordFailure(ep, false)
			wait := time.Duration(attempt) * genericBackoffStep
			metrics.RequestErrorsTotal.WithLabelValues(chain, ep.URL, "other").Inc()
			metrics.RetryBackoffSeconds.WithLabelValues(chain, "other").Observe(wait.Seconds())
			if serr := m.sleep(ctx, wait); serr != nil {
				return zero, serr
			}
		}
	}
	return zero, lastErr
}

func clampWait(d time.Duration) time.Duration {
	if d < minRateLimitWait {
		return minRateLimitWait
	}
	if d > maxRateLimitWait {
		return maxRateLimitWait
	}
	return d
}

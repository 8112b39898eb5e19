package rpcpool

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Error taxonomy for pool callers. Recoverable categories are retried
// internally by Execute; only ErrNoHealthyEndpoint and non-retryable
// upstream errors surface immediately.
var (
	// ErrNoHealthyEndpoint means a chain has no selectable endpoint even
	// after a circuit-breaker reset. Fatal for the current call.
	ErrNoHealthyEndpoint = errors.New("no healthy RPC endpoint")

	// ErrUnknownChain means the chain was never configured.
	ErrUnknownChain = errors.New("unknown chain")

	// ErrEndpointExists is returned by AddRPC for a duplicate URL.
	ErrEndpointExists = errors.New("endpoint already registered")

	// ErrEndpointNotFound is returned by RemoveRPC for an unknown URL.
	ErrEndpointNotFound = errors.New("endpoint not found")
)

// RateLimitError wraps an upstream 429 together with the wait the provider
// suggested, when one could be extracted.
type RateLimitError struct {
	Endpoint string
	Wait     time.Duration
	Err      error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited by %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("rate limited by %s", e.Endpoint)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err looks like an upstream rate limit
// (HTTP 429 or a "rate limit" style message).
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// IsNonRetryable reports whether err is a validation-style failure that a
// retry cannot fix (bad address, unknown resource).
func IsNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid") || strings.Contains(msg, "not found")
}

// IsNetworkError reports whether err is a transient transport failure worth
// a linear backoff.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, probe := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"i/o timeout",
		"broken pipe",
		"eof",
	} {
		if strings.Contains(msg, probe) {
			return true
		}
	}
	return false
}

var retryAfterRe = regexp.MustCompile(`(?i)retry[ -]?after[^0-9]*(\d+)`)

// SuggestedWait extracts a provider-suggested backoff from a rate-limit
// error. Returns 0 when nothing usable is present; callers clamp the result.
func SuggestedWait(err error) time.Duration {
	if err == nil {
		return 0
	}
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.Wait > 0 {
		return rl.Wait
	}
	if m := retryAfterRe.FindStringSubmatch(err.Error()); len(m) == 2 {
		if secs, perr := strconv.Atoi(m[1]); perr == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

package llm

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy defines backoff behavior for transient analysis failures.
// Only rate-limit and timeout errors are retried; permanent failures
// surface immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first
	MaxAttempts int

	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration

	// MaxBackoff caps the computed wait between retries
	MaxBackoff time.Duration

	// Multiplier is applied to the backoff on each retry
	Multiplier float64
}

// Default retry constants for transient provider failures.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialBackoff    = 4 * time.Second
	DefaultMaxBackoff        = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// NewDefaultRetryPolicy returns a RetryPolicy with the default attempt
// budget and exponential backoff bounds.
func NewDefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Multiplier:     DefaultBackoffMultiplier,
	}
}

// Backoff computes the wait before the given retry (0-based). The computed
// exponential value is capped at MaxBackoff; a longer API-suggested delay
// overrides it since the provider knows its own quota window.
func (p *RetryPolicy) Backoff(retry int, suggested time.Duration) time.Duration {
	backoff := p.InitialBackoff
	for i := 0; i < retry; i++ {
		backoff = time.Duration(float64(backoff) * p.Multiplier)
	}
	if backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	if suggested > backoff {
		backoff = suggested
	}
	return backoff
}

// IsRateLimitError checks if an error carries a provider rate-limit signal.
// Matches 429/529 status codes and quota-exhaustion messages.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "529") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "quota")
}

// IsTimeoutError checks if an error represents a request timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "408") ||
		strings.Contains(errStr, "504")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a rate-limit
// error message. Returns 0 if no delay is present.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

package llm

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// usageWindow is the trailing period over which token usage is counted.
const usageWindow = time.Minute

// usageSample records one API call's token consumption.
type usageSample struct {
	tokens int
	at     time.Time
}

// RateLimiter gates analysis calls against the provider's request and token
// ceilings. It only delays callers, never rejects them. Each AnalysisClient
// owns its own instance; the limiter is not a package singleton.
type RateLimiter struct {
	requests        *rate.Limiter
	tokensPerMinute int
	logger          arbor.ILogger

	mu     sync.Mutex
	window []usageSample
}

// NewRateLimiter creates a limiter for the given per-minute ceilings.
// Non-positive values fall back to 60 requests and 200000 tokens per minute.
func NewRateLimiter(requestsPerMinute, tokensPerMinute int, logger arbor.ILogger) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if tokensPerMinute <= 0 {
		tokensPerMinute = 200000
	}

	// Strict pacing: one slot every minute/rpm. A token bucket with a full
	// burst would admit up to double the ceiling inside a single window.
	return &RateLimiter{
		requests:        rate.NewLimiter(rate.Every(usageWindow/time.Duration(requestsPerMinute)), 1),
		tokensPerMinute: tokensPerMinute,
		logger:          logger,
	}
}

// AcquireRequestSlot blocks until the next request slot is available or the
// context is cancelled.
func (r *RateLimiter) AcquireRequestSlot(ctx context.Context) error {
	return r.requests.Wait(ctx)
}

// CheckTokenBudget blocks when the estimated tokens would push the trailing
// window over the per-minute budget. It waits until the oldest sample in the
// window ages out, then proceeds. An empty window never waits. Estimates are
// heuristic, so the budget is enforced at trend level only.
func (r *RateLimiter) CheckTokenBudget(ctx context.Context, estimatedTokens int) error {
	r.mu.Lock()
	now := time.Now()
	r.prune(now)

	if len(r.window) == 0 {
		r.mu.Unlock()
		return nil
	}

	used := 0
	for _, s := range r.window {
		used += s.tokens
	}
	if used+estimatedTokens <= r.tokensPerMinute {
		r.mu.Unlock()
		return nil
	}

	wait := usageWindow - now.Sub(r.window[0].at)
	r.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	r.logger.Debug().
		Int("estimated_tokens", estimatedTokens).
		Int("window_tokens", used).
		Dur("wait", wait).
		Msg("Token budget exceeded, waiting for oldest usage to age out")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// RecordUsage appends a timestamped token sample and prunes expired ones.
func (r *RateLimiter) RecordUsage(tokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.window = append(r.window, usageSample{tokens: tokens, at: now})
	r.prune(now)
}

// WindowTokens reports the token usage currently counted in the window.
func (r *RateLimiter) WindowTokens() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(time.Now())
	total := 0
	for _, s := range r.window {
		total += s.tokens
	}
	return total
}

// prune drops samples older than the window. Callers must hold the mutex.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-usageWindow)
	kept := r.window[:0]
	for _, s := range r.window {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}
	r.window = kept
}

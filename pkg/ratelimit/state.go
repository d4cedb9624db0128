// Package ratelimit paces requests to the catalog service.
// It combines a local token bucket with the server's advertised budget from
// the X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset headers,
// so that clients sharing one source IP stay below the service limit.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyLimit          = "catalog:rate_limit:limit"
	RedisKeyRemaining      = "catalog:rate_limit:remaining"
	RedisKeyResetTimestamp = "catalog:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "catalog:rate_limit:last_update"
)

// Thresholds for rate limit decisions.
const (
	// RemainingExhausted blocks requests until the window resets when the
	// remaining budget is at or below this value.
	RemainingExhausted = 0

	// RemainingWarning throttles requests when the remaining budget falls
	// below this value.
	RemainingWarning = 5

	// RemainingHealthy indicates normal operation.
	RemainingHealthy = 20
)

// RateLimitState is the server's last advertised request budget.
// It can be shared across client instances via Redis.
type RateLimitState struct {
	// Limit is the number of requests allowed per window (X-RateLimit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window
	// (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (X-RateLimit-Reset, unix seconds),
	// or now plus Retry-After after a rejection.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the first response headers arrive.
func DefaultState() *RateLimitState {
	now := time.Now()
	return &RateLimitState{
		Limit:      RemainingHealthy * 5,
		Remaining:  RemainingHealthy * 5,
		ResetAt:    now,
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state is older than maxAge.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Expired reports whether the window has already reset, making Remaining
// meaningless.
func (s *RateLimitState) Expired() bool {
	return !time.Now().Before(s.ResetAt)
}

// NeedsBlock returns true if requests must wait for the window to reset.
func (s *RateLimitState) NeedsBlock() bool {
	return !s.Expired() && s.Remaining <= RemainingExhausted
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return !s.Expired() && s.Remaining < RemainingWarning && !s.NeedsBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingHealthy
}

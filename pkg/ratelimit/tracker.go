package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_rate_limit_remaining",
		Help: "Requests remaining in the current catalog rate limit window",
	})

	rateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_rate_limit_waits_total",
		Help: "Total number of waits imposed before sending a request by reason",
	}, []string{"reason"})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_rate_limit_wait_seconds",
		Help:    "Time spent waiting for the rate limiter",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Header names advertised by the catalog service.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Config holds tracker configuration.
type Config struct {
	// RequestsPerSecond is the local token bucket rate.
	RequestsPerSecond float64

	// Burst is the local token bucket size.
	Burst int

	// ThrottleDelay is the extra wait applied when the server budget is low.
	ThrottleDelay time.Duration
}

// DefaultConfig matches the service's published limit of one request per
// second per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 1,
		Burst:             1,
		ThrottleDelay:     time.Second,
	}
}

// Tracker gates outgoing requests on the local token bucket and the shared
// server-advertised budget.
type Tracker struct {
	store   Store
	limiter *rate.Limiter
	config  Config
	logger  zerolog.Logger
}

// NewTracker creates a tracker. A nil store keeps state in process.
func NewTracker(store Store, cfg Config, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	defaults := DefaultConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.ThrottleDelay < 0 {
		cfg.ThrottleDelay = 0
	}

	return &Tracker{
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		config:  cfg,
		logger:  logger,
	}
}

// GetState returns the current state, or DefaultState if none is stored.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		t.logger.Debug().Msg("No rate limit state stored, assuming healthy")
		return DefaultState(), nil
	}
	return state, nil
}

// UpdateFromHeaders records the budget advertised in a response. Responses
// without rate limit headers are ignored. A Retry-After header marks the
// budget exhausted for that long.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	now := time.Now()

	if retry := headers.Get(HeaderRetryAfter); retry != "" {
		wait, err := parseRetryAfter(retry, now)
		if err != nil {
			return err
		}
		state := &RateLimitState{ResetAt: now.Add(wait), LastUpdate: now}
		if limit, err := strconv.Atoi(headers.Get(HeaderLimit)); err == nil {
			state.Limit = limit
		}
		return t.save(ctx, state)
	}

	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetUnix, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	state := &RateLimitState{
		Remaining:  remain,
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: now,
	}
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
		state.Limit = limit
	}

	return t.save(ctx, state)
}

func (t *Tracker) save(ctx context.Context, state *RateLimitState) error {
	state.UpdateHealth()
	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	rateLimitRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsBlock():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Catalog rate limit exhausted - requests will wait for reset")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Catalog rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Catalog rate limit state updated")
	}
	return nil
}

// Wait blocks until a request may be sent or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	start := time.Now()
	defer func() {
		rateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	state, err := t.GetState(ctx)
	if err != nil {
		// Shared state is advisory; the local bucket still applies.
		t.logger.Warn().Err(err).Msg("Rate limit state unavailable")
		return nil
	}

	var delay time.Duration
	switch {
	case state.NeedsBlock():
		delay = state.TimeUntilReset()
		rateLimitWaitsTotal.WithLabelValues("exhausted").Inc()
		t.logger.Warn().
			Dur("wait_duration", delay).
			Msg("Catalog rate limit exhausted - waiting for reset")
	case state.NeedsThrottling():
		delay = t.config.ThrottleDelay
		rateLimitWaitsTotal.WithLabelValues("throttle").Inc()
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Dur("wait_duration", delay).
			Msg("Catalog rate limit low - throttling request")
	default:
		return nil
	}

	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string, now time.Time) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, nil
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s header: %w", HeaderRetryAfter, err)
	}
	if at.Before(now) {
		return 0, nil
	}
	return at.Sub(now), nil
}

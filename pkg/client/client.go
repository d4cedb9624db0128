// Package client provides the HTTP transport for the catalog service with
// rate limiting, caching, retry and error classification.
//
// A Client satisfies pagination.Transport, so it can back any page fetcher:
//
//	c, err := client.New(client.DefaultConfig(nil, "MyApp/1.0 (me@example.com)"))
//	if err != nil {
//		return err
//	}
//	fetcher := pagination.NewFetcher[entity.Release](c, entity.NewDecoder[entity.Release](entity.KindRelease))
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/catalog-client/pkg/cache"
	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
	"github.com/Sternrassler/catalog-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for catalog client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog requests by entity and status",
	}, []string{"entity", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog request duration in seconds by entity",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"entity"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public catalog web service root.
const DefaultBaseURL = "https://musicbrainz.org/ws/2"

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 and 503 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

var _ pagination.Transport = (*Client)(nil)

// Client is the catalog HTTP transport.
type Client struct {
	httpClient  *http.Client
	base        *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	redis       *redis.Client
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the service root, e.g. https://musicbrainz.org/ws/2
	BaseURL string

	// User-Agent header (REQUIRED by the service)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Redis enables the page cache and shares rate limit state across
	// processes. Optional.
	Redis *redis.Client

	// Rate Limiting
	RequestsPerSecond float64
	Burst             int

	// Retry
	MaxRetries     int           // Retries after the first attempt
	InitialBackoff time.Duration // Zero keeps the per-class defaults

	// Caching
	CacheTTL time.Duration // Used when a response carries no freshness headers

	// Timeout bounds one HTTP attempt.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         userAgent,
		Redis:             redis,
		RequestsPerSecond: 1,
		Burst:             1,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		CacheTTL:          cache.DefaultTTL,
		Timeout:           30 * time.Second,
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests_per_second must be > 0 (got %v)", cfg.RequestsPerSecond)
	}
	if cfg.Burst < 1 {
		return nil, fmt.Errorf("burst must be >= 1 (got %d)", cfg.Burst)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger(logging.ComponentClient)

	var store ratelimit.Store
	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		store = ratelimit.NewRedisStore(cfg.Redis)
		cacheManager = cache.NewManager(cfg.Redis)
	} else {
		store = ratelimit.NewMemoryStore()
		logger.Info().Msg("No redis configured - page cache disabled, rate limit state is per process")
	}

	rateLimiter := ratelimit.NewTracker(store, ratelimit.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		ThrottleDelay:     time.Duration(float64(time.Second) / cfg.RequestsPerSecond),
	}, logging.NewLogger(logging.ComponentRateLimiter))

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		base:        base,
		rateLimiter: rateLimiter,
		cache:       cacheManager,
		redis:       cfg.Redis,
		config:      cfg,
		logger:      logger,
	}, nil
}

// Get fetches rawQuery against the entity path and returns the response
// body. It implements pagination.Transport.
func (c *Client) Get(ctx context.Context, entityPath, rawQuery string) ([]byte, error) {
	u := *c.base
	u.Path = path.Join(c.base.Path, entityPath)
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Op: "read", URL: u.Redacted(), Err: err}
	}
	return body, nil
}

// Do performs an HTTP request with rate limiting, caching, and error handling.
// Responses with status >= 400 are returned as *QueryError after retries.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	relPath := c.relativePath(req.URL.Path)
	entity := entityLabel(relPath)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(entity).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	cacheKey := cache.CacheKey{Path: relPath, RawQuery: req.URL.RawQuery}
	var stale *cache.CacheEntry
	if c.cache != nil && req.Method == http.MethodGet {
		entry, err := c.cache.GetStale(ctx, cacheKey)
		switch {
		case err == nil && !entry.IsExpired():
			cache.CacheHits.WithLabelValues("redis").Inc()
			requestsTotal.WithLabelValues(entity, "cache_hit").Inc()
			c.logger.Debug().Str("entity", entity).Str("key", cacheKey.String()).Msg("Serving page from cache")
			return cache.EntryToResponse(entry), nil
		case err == nil:
			cache.CacheMisses.Inc()
			stale = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("entity", entity).Msg("Cache get error")
		}
	}

	// Step 2: Conditional request for a stale entry
	if stale != nil && cache.ShouldMakeConditionalRequest(stale) {
		cache.AddConditionalHeaders(req, stale)
		c.logger.Debug().
			Str("entity", entity).
			Str("etag", stale.ETag).
			Msg("Making conditional request")
	}

	// Step 3: Headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	// Step 4: Execute with rate limiting and retry
	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.retryConfig, func() (ErrorClass, error) {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}

		c.logger.Debug().
			Str("entity", entity).
			Str("query", req.URL.RawQuery).
			Msg("Executing catalog request")

		r, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(entity, "network_error").Inc()
			c.logger.Error().Err(err).Str("entity", entity).Msg("HTTP request failed")
			return ErrorClassNetwork, &TransportError{Op: req.Method, URL: req.URL.Redacted(), Err: err}
		}

		if err := c.rateLimiter.UpdateFromHeaders(ctx, r.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		requestsTotal.WithLabelValues(entity, strconv.Itoa(r.StatusCode)).Inc()

		if r.StatusCode >= 400 {
			qerr := newQueryError(r)
			errorsTotal.WithLabelValues(string(qerr.Class)).Inc()
			c.logger.Warn().
				Str("entity", entity).
				Int("status", qerr.StatusCode).
				Str("error_class", string(qerr.Class)).
				Str("message", qerr.Message).
				Msg("Catalog request error")
			return qerr.Class, qerr
		}

		resp = r
		return "", nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	// Step 5: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && stale != nil {
		resp.Body.Close()
		c.logger.Debug().Str("entity", entity).Msg("304 Not Modified - using cache")

		refreshed, err := c.cache.Refresh(ctx, cacheKey, cache.ParseExpires(resp.Header, c.config.CacheTTL))
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
			refreshed = stale
		}
		return cache.EntryToResponse(refreshed), nil
	}

	// Step 6: Update Cache on success
	if resp.StatusCode == http.StatusOK && c.cache != nil {
		entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
		if err != nil {
			resp.Body.Close()
			return nil, &TransportError{Op: "read", URL: req.URL.Redacted(), Err: err}
		}
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("entity", entity).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// retryConfig applies the configured retry budget to the per-class defaults.
func (c *Client) retryConfig(errorClass ErrorClass) RetryConfig {
	config := RetryConfigForErrorClass(errorClass)
	config.MaxAttempts = c.config.MaxRetries + 1
	if c.config.InitialBackoff > 0 {
		config.InitialBackoff = c.config.InitialBackoff
		if errorClass == ErrorClassRateLimit {
			config.InitialBackoff *= 2
		}
	}
	return config
}

// relativePath strips the base path so cache keys and metric labels do not
// depend on where the service is mounted.
func (c *Client) relativePath(p string) string {
	return strings.Trim(strings.TrimPrefix(p, c.base.Path), "/")
}

// entityLabel is the first path segment, used as a low-cardinality label.
func entityLabel(relPath string) string {
	if i := strings.IndexByte(relPath, '/'); i >= 0 {
		relPath = relPath[:i]
	}
	if relPath == "" {
		return "root"
	}
	return relPath
}

// Ping checks the shared Redis, if any.
func (c *Client) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// RateLimitState returns the last known server budget.
func (c *Client) RateLimitState(ctx context.Context) (*ratelimit.RateLimitState, error) {
	return c.rateLimiter.GetState(ctx)
}

// Close releases idle connections. The Redis client is owned by the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

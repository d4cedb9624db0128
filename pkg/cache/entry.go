package cache

import (
	"net/http"
	"time"
)

// StaleRetention is how long an expired entry with a validator stays in
// Redis so it can be revalidated with a conditional request.
const StaleRetention = time.Hour

// CacheEntry is one cached catalog page response. An entry is fresh until
// Expires; after that it is stale and, if it carries a validator, kept for
// revalidation with If-None-Match or If-Modified-Since.
type CacheEntry struct {
	// Data is the page body as received.
	Data []byte `json:"data"`

	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`

	// Expires comes from Cache-Control max-age, Expires or the fallback TTL.
	Expires time.Time `json:"expires"`

	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	CachedAt   time.Time   `json:"cached_at"`
}

// IsExpired reports whether the entry is past its freshness lifetime.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the remaining freshness lifetime, or 0 once stale.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// HasValidator reports whether the entry can be revalidated.
func (e *CacheEntry) HasValidator() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}

// StoreTTL is how long the entry stays in Redis: its freshness lifetime,
// plus StaleRetention when it can be revalidated. 0 means do not store.
func (e *CacheEntry) StoreTTL() time.Duration {
	ttl := e.TTL()
	if e.HasValidator() {
		ttl += StaleRetention
	}
	return ttl
}

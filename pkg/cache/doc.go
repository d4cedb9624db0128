// Package cache provides a Redis-backed page cache for catalog responses.
//
// Keys are derived from the request path and its canonical query string, so
// two logically identical page requests always share one entry. Entries keep
// the response body together with the validators needed for conditional
// requests.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Path:     "release",
//		RawQuery: "artist=5b11f4ce-a62d-471e-81fc-a69a8278c7da&limit=25&offset=0",
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the service
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp, cache.DefaultTTL)
//	if err != nil {
//		return err
//	}
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// a 304 response means the cached body is still current
//	}
//
// # Metrics
//
//   - catalog_cache_hits_total{layer="redis"}
//   - catalog_cache_misses_total
//   - catalog_cache_size_bytes{layer="redis"}
//   - catalog_304_responses_total
//   - catalog_conditional_requests_total
//   - catalog_cache_errors_total{operation}
package cache

package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/metrics"
	"github.com/Sternrassler/catalog-client/pkg/query"
	"github.com/rs/zerolog"
)

// PageSource fetches one page of a descriptor at limit/offset.
// Fetcher is the production implementation.
type PageSource[T any] interface {
	Fetch(ctx context.Context, desc query.Descriptor, limit, offset int) (*Page[T], error)
}

// Fetcher executes single page requests. It holds no cursor state and is
// safe for concurrent use when its Transport and Decoder are.
type Fetcher[T any] struct {
	transport Transport
	decoder   Decoder[T]
	logger    zerolog.Logger
}

// NewFetcher creates a Fetcher over transport using decoder for bodies.
func NewFetcher[T any](transport Transport, decoder Decoder[T]) *Fetcher[T] {
	if transport == nil {
		panic("transport cannot be nil")
	}
	if decoder == nil {
		panic("decoder cannot be nil")
	}
	return &Fetcher[T]{
		transport: transport,
		decoder:   decoder,
		logger:    logging.NewLogger(logging.ComponentFetcher),
	}
}

// Fetch requests one page. limit must be at least 1; values above
// query.MaxLimit are capped silently. Transport failures are returned
// unchanged in kind (errors.As reaches them) and are never retried here.
func (f *Fetcher[T]) Fetch(ctx context.Context, desc query.Descriptor, limit, offset int) (*Page[T], error) {
	entity := desc.Entity()
	if entity == "" {
		return nil, &query.ValidationError{Field: "descriptor", Reason: "descriptor is empty"}
	}
	if limit < query.MinLimit {
		return nil, query.ValidateLimit(limit)
	}
	if err := query.ValidateOffset(offset); err != nil {
		return nil, err
	}
	limit = query.ClampLimit(limit)

	if err := ctx.Err(); err != nil {
		metrics.PagesFetched.WithLabelValues(entity, metrics.OutcomeCancelled).Inc()
		return nil, cancelled(err)
	}

	start := time.Now()
	body, err := f.transport.Get(ctx, entity, desc.Encode(limit, offset))
	metrics.PageFetchDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			metrics.PagesFetched.WithLabelValues(entity, metrics.OutcomeCancelled).Inc()
			if errors.Is(err, ErrCancelled) {
				return nil, err
			}
			return nil, cancelled(err)
		}
		metrics.PagesFetched.WithLabelValues(entity, metrics.OutcomeError).Inc()
		f.logger.Warn().
			Err(err).
			Str("entity", entity).
			Str("query", desc.Query()).
			Int("offset", offset).
			Msg("Page fetch failed")
		return nil, fmt.Errorf("fetch %s page at offset %d: %w", entity, offset, err)
	}

	decoded, err := f.decoder.Decode(body)
	if err != nil {
		metrics.PagesFetched.WithLabelValues(entity, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("decode %s page at offset %d: %w", entity, offset, err)
	}

	items := decoded.Items
	if len(items) > limit {
		metrics.TruncatedPages.WithLabelValues(entity).Inc()
		f.logger.Warn().
			Str("entity", entity).
			Int("limit", limit).
			Int("items", len(items)).
			Msg("Page exceeded requested limit, truncating")
		items = items[:limit:limit]
	}

	total := decoded.TotalCount
	if total < 0 {
		total = UnknownTotal
	}

	outcome := metrics.OutcomeOK
	if len(items) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.PagesFetched.WithLabelValues(entity, outcome).Inc()

	f.logger.Debug().
		Str("entity", entity).
		Str("query", desc.Query()).
		Int("limit", limit).
		Int("offset", offset).
		Int("items", len(items)).
		Int("total", total).
		Dur("duration", time.Since(start)).
		Msg("Fetched page")

	return &Page[T]{
		TotalCount: total,
		Offset:     offset,
		Items:      items,
	}, nil
}

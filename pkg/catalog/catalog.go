package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
	"github.com/Sternrassler/catalog-client/pkg/query"
	"github.com/rs/zerolog"
)

// Options are the per-call paging and shaping inputs.
type Options struct {
	// Limit is the page size; nil means the default of 25.
	Limit *int

	// Offset is the starting position.
	Offset int

	Includes query.Includes
	Filters  query.Filters
}

// Client issues browse and search requests over a page transport.
type Client struct {
	transport pagination.Transport
	logger    zerolog.Logger
}

// New creates a catalog client. transport is usually a *client.Client.
func New(transport pagination.Transport) *Client {
	if transport == nil {
		panic("catalog: transport cannot be nil")
	}
	return &Client{
		transport: transport,
		logger:    logging.NewLogger(logging.ComponentCatalog),
	}
}

// request is a validated call: descriptor, resolved limit and offset.
type request struct {
	desc   query.Descriptor
	limit  int
	offset int
}

func browseRequest(kind, relation, id string, opts Options) (request, error) {
	if !CanBrowse(kind, relation) {
		reason := "not browsable"
		if rels := Relations(kind); len(rels) > 0 {
			reason = "must be one of " + strings.Join(rels, ", ")
		}
		return request{}, &query.ValidationError{
			Field:  "relation",
			Value:  kind + " by " + relation,
			Reason: reason,
		}
	}
	desc, err := query.NewBrowse(kind, relation, id, opts.Includes, opts.Filters)
	if err != nil {
		return request{}, err
	}
	return resolve(desc, opts)
}

func searchRequest(kind, text string, opts Options) (request, error) {
	if !CanSearch(kind) {
		return request{}, &query.ValidationError{Field: "entity", Value: kind, Reason: "not searchable"}
	}
	desc, err := query.NewSearch(kind, text, opts.Includes, opts.Filters)
	if err != nil {
		return request{}, err
	}
	return resolve(desc, opts)
}

func resolve(desc query.Descriptor, opts Options) (request, error) {
	limit, err := query.ResolveLimit(opts.Limit)
	if err != nil {
		return request{}, err
	}
	if err := query.ValidateOffset(opts.Offset); err != nil {
		return request{}, err
	}
	return request{desc: desc, limit: limit, offset: opts.Offset}, nil
}

func fetcher[T any](c *Client, kind Kind[T]) *pagination.Fetcher[T] {
	return pagination.NewFetcher(c.transport, kind.Decoder)
}

// Browse fetches one page of kind related to id.
func Browse[T any](ctx context.Context, c *Client, kind Kind[T], relation, id string, opts Options) (*pagination.Page[T], error) {
	req, err := browseRequest(kind.Name, relation, id, opts)
	if err != nil {
		return nil, err
	}
	return fetcher(c, kind).Fetch(ctx, req.desc, req.limit, req.offset)
}

// BrowseAsync starts fetching one browse page on its own goroutine.
// Validation errors are returned immediately.
func BrowseAsync[T any](ctx context.Context, c *Client, kind Kind[T], relation, id string, opts Options) (*pagination.Future[T], error) {
	req, err := browseRequest(kind.Name, relation, id, opts)
	if err != nil {
		return nil, err
	}
	return pagination.FetchAsync[T](ctx, fetcher(c, kind), req.desc, req.limit, req.offset), nil
}

// BrowseAll returns a stream over every item of kind related to id, starting
// at opts.Offset.
func BrowseAll[T any](c *Client, kind Kind[T], relation, id string, opts Options) (*pagination.Stream[T], error) {
	req, err := browseRequest(kind.Name, relation, id, opts)
	if err != nil {
		return nil, err
	}
	return openStream[T](c, fetcher(c, kind), req)
}

// Search fetches one page of kind matching text.
func Search[T any](ctx context.Context, c *Client, kind Kind[T], text string, opts Options) (*pagination.Page[T], error) {
	req, err := searchRequest(kind.Name, text, opts)
	if err != nil {
		return nil, err
	}
	return fetcher(c, kind).Fetch(ctx, req.desc, req.limit, req.offset)
}

// SearchAsync starts fetching one search page on its own goroutine.
func SearchAsync[T any](ctx context.Context, c *Client, kind Kind[T], text string, opts Options) (*pagination.Future[T], error) {
	req, err := searchRequest(kind.Name, text, opts)
	if err != nil {
		return nil, err
	}
	return pagination.FetchAsync[T](ctx, fetcher(c, kind), req.desc, req.limit, req.offset), nil
}

// SearchAll returns a stream over every item of kind matching text.
func SearchAll[T any](c *Client, kind Kind[T], text string, opts Options) (*pagination.Stream[T], error) {
	req, err := searchRequest(kind.Name, text, opts)
	if err != nil {
		return nil, err
	}
	return openStream[T](c, fetcher(c, kind), req)
}

func openStream[T any](c *Client, source pagination.PageSource[T], req request) (*pagination.Stream[T], error) {
	cursor, err := pagination.NewCursor(source, req.desc, &req.limit, req.offset)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("entity", req.desc.Entity()).
		Str("query", req.desc.Query()).
		Int("limit", req.limit).
		Int("offset", req.offset).
		Msg("Opening stream")
	return pagination.NewStream(cursor), nil
}

// BrowseMany walks kind for every id concurrently and returns the items per
// id. Each walk starts at offset 0, and a repeated id is walked once. Ids
// that fail keep the items read before the failure; the first failure is
// returned with them. If ctx ends first, the partial results come back with
// an error matching pagination.ErrCancelled.
func BrowseMany[T any](ctx context.Context, c *Client, kind Kind[T], relation string, ids []string, opts Options, cfg pagination.Config) (map[string][]T, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	descs := make([]query.Descriptor, len(unique))
	var limit int
	for i, id := range unique {
		req, err := browseRequest(kind.Name, relation, id, opts)
		if err != nil {
			return nil, fmt.Errorf("browse %s by %s %q: %w", kind.Name, relation, id, err)
		}
		descs[i], limit = req.desc, req.limit
	}
	if len(unique) == 0 {
		return map[string][]T{}, nil
	}

	walker := pagination.NewBatchWalker[T](fetcher(c, kind), cfg)
	byIndex, err := walker.WalkAll(ctx, descs, &limit)

	out := make(map[string][]T, len(byIndex))
	for i, items := range byIndex {
		out[unique[i]] = items
	}
	return out, err
}

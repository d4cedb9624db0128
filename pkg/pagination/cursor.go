package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/query"
	"github.com/rs/zerolog"
)

var (
	// ErrExhausted is returned when fetching from a cursor that has already
	// reached the end of its collection.
	ErrExhausted = errors.New("cursor exhausted")

	// ErrInvalidAdvance is returned when Advance does not match the most
	// recently fetched page.
	ErrInvalidAdvance = errors.New("invalid cursor advance")
)

// Cursor tracks the offset of one logical browse or search and drives
// successive page fetches. A Cursor has a single owner and is not safe for
// concurrent use.
//
// Consistency model: the remote collection is live, not a snapshot. When
// items are inserted ahead of the current offset between two fetches, the
// last item of one page shows up again at the head of the next page; when
// items are deleted after being counted, items shift backwards and one may
// be skipped. Walks are best effort and callers that need uniqueness must
// deduplicate by id.
//
// Exhaustion uses two signals. A page shorter than the limit is
// authoritative. The total count is a hint used once the offset has clearly
// reached it.
type Cursor[T any] struct {
	source PageSource[T]
	desc   query.Descriptor
	limit  int
	offset int

	// total is the last known server count, UnknownTotal before the first page.
	total int

	// pending is the item count of the fetched page awaiting Advance, or -1.
	pending int

	short  bool
	logger zerolog.Logger
}

// NewCursor creates a cursor starting at offset. A nil limit resolves to
// query.DefaultLimit; an explicit limit outside [1, 100] is a ValidationError.
func NewCursor[T any](source PageSource[T], desc query.Descriptor, limit *int, offset int) (*Cursor[T], error) {
	if source == nil {
		return nil, fmt.Errorf("page source is required")
	}
	resolved, err := query.ResolveLimit(limit)
	if err != nil {
		return nil, err
	}
	if err := query.ValidateOffset(offset); err != nil {
		return nil, err
	}

	return &Cursor[T]{
		source:  source,
		desc:    desc,
		limit:   resolved,
		offset:  offset,
		total:   UnknownTotal,
		pending: -1,
		logger: logging.ForEntity(logging.ComponentCursor, desc.Entity()),
	}, nil
}

// FetchCurrentPage fetches the page at the current offset without advancing.
// On failure the cursor state is unchanged, so the same page can be retried.
func (c *Cursor[T]) FetchCurrentPage(ctx context.Context) (*Page[T], error) {
	if c.IsExhausted() {
		return nil, ErrExhausted
	}

	page, err := c.source.Fetch(ctx, c.desc, c.limit, c.offset)
	if err != nil {
		return nil, err
	}

	if page.TotalCount >= 0 {
		if c.total >= 0 && page.TotalCount != c.total {
			c.logger.Debug().
				Int("previous_total", c.total).
				Int("total", page.TotalCount).
				Int("offset", c.offset).
				Msg("Collection size changed during walk")
		}
		c.total = page.TotalCount
	}
	c.pending = len(page.Items)
	c.short = len(page.Items) < c.limit

	return page, nil
}

// Advance moves the offset forward by the number of items consumed from the
// most recently fetched page. It must be called exactly once per page.
func (c *Cursor[T]) Advance(itemsConsumed int) error {
	if c.pending < 0 {
		return fmt.Errorf("%w: no fetched page to advance past", ErrInvalidAdvance)
	}
	if itemsConsumed < 0 || itemsConsumed > c.pending {
		return fmt.Errorf("%w: consumed %d of %d items", ErrInvalidAdvance, itemsConsumed, c.pending)
	}

	c.offset += itemsConsumed
	c.pending = -1
	return nil
}

// IsExhausted reports whether the walk is finished: the last fetched page was
// short, or the offset has reached the last known total.
func (c *Cursor[T]) IsExhausted() bool {
	if c.short {
		return true
	}
	return c.total >= 0 && c.offset >= c.total
}

// Descriptor returns the immutable request descriptor.
func (c *Cursor[T]) Descriptor() query.Descriptor {
	return c.desc
}

// Limit returns the resolved page size.
func (c *Cursor[T]) Limit() int {
	return c.limit
}

// Offset returns the current offset: the sum of all consumed item counts
// plus the starting offset.
func (c *Cursor[T]) Offset() int {
	return c.offset
}

// Total returns the last known server count and whether one is known.
func (c *Cursor[T]) Total() (int, bool) {
	return c.total, c.total >= 0
}

package pagination

import (
	"context"
	"errors"
	"fmt"
)

// UnknownTotal marks a page whose response carried no total count.
const UnknownTotal = -1

// ErrCancelled is returned when an operation stopped because its context was
// cancelled or timed out. It is an expected outcome, not a failure.
var ErrCancelled = errors.New("operation cancelled")

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// Page is one bounded response from the catalog service. A Page is created
// fresh per fetch and must not be modified afterwards.
type Page[T any] struct {
	// TotalCount is the server's live count of matching items at the time of
	// the fetch, or UnknownTotal. It may change between fetches.
	TotalCount int

	// Offset is the offset the page was requested at.
	Offset int

	// Items holds at most limit items. It can be empty even when
	// Offset < TotalCount if items were deleted after the count was taken.
	Items []T
}

// Len returns the number of items in the page.
func (p *Page[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// HasTotal reports whether the page carried a total count.
func (p *Page[T]) HasTotal() bool {
	return p != nil && p.TotalCount >= 0
}

// Transport performs one bounded GET against the catalog service and
// returns the raw response body. Retry, rate limiting and caching belong to
// the Transport.
type Transport interface {
	Get(ctx context.Context, path, rawQuery string) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, path, rawQuery string) ([]byte, error)

// Get implements Transport.
func (f TransportFunc) Get(ctx context.Context, path, rawQuery string) ([]byte, error) {
	return f(ctx, path, rawQuery)
}

// Decoder turns one raw response body into a page of T. Decoders set
// TotalCount to UnknownTotal when the body carries no count.
type Decoder[T any] interface {
	Decode(body []byte) (Page[T], error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc[T any] func(body []byte) (Page[T], error)

// Decode implements Decoder.
func (f DecoderFunc[T]) Decode(body []byte) (Page[T], error) {
	return f(body)
}

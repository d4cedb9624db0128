package pagination

import (
	"context"
	"errors"
	"iter"

	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/metrics"
	"github.com/rs/zerolog"
)

type streamState int

const (
	stateIdle streamState = iota
	stateYielding
	stateExhausted
	stateCancelled
	stateFailed
)

// Stream is a lazy, forward-only sequence of items over one Cursor. Items are
// pulled one at a time; a page is fetched only when the previous one has been
// drained, so the consumer suspends at most once per limit items.
//
// A Stream is not restartable: create a new Cursor and Stream to walk again.
// It is not safe for concurrent use.
type Stream[T any] struct {
	cursor  *Cursor[T]
	buf     []T
	pos     int
	state   streamState
	err     error
	pages   int
	yielded int
	logger  zerolog.Logger
}

// NewStream wraps cursor in a Stream.
func NewStream[T any](cursor *Cursor[T]) *Stream[T] {
	return &Stream[T]{
		cursor: cursor,
		logger: logging.ForEntity(logging.ComponentStream, cursor.Descriptor().Entity()),
	}
}

// Next returns the next item. It returns ok=false when the sequence has
// ended: exhausted, cancelled (err is nil, see Cancelled) or failed (err is
// the fetch failure, returned again on every later call).
//
// ctx is checked before each page fetch and again when the fetch returns;
// a page that arrives after cancellation is discarded. Items of a page that
// was already buffered are still yielded.
func (s *Stream[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	for {
		switch s.state {
		case stateYielding:
			if s.pos < len(s.buf) {
				item := s.buf[s.pos]
				s.pos++
				s.yielded++
				metrics.ItemsYielded.WithLabelValues(s.entity()).Inc()
				return item, true, nil
			}

			if err := s.cursor.Advance(len(s.buf)); err != nil {
				s.fail(err)
				return zero, false, err
			}
			s.buf, s.pos = nil, 0

			if s.cursor.IsExhausted() {
				s.end(stateExhausted, metrics.EndExhausted)
				return zero, false, nil
			}
			s.state = stateIdle

		case stateIdle:
			if s.cursor.IsExhausted() {
				s.end(stateExhausted, metrics.EndExhausted)
				return zero, false, nil
			}
			if ctx.Err() != nil {
				s.cancel(cancelled(ctx.Err()))
				return zero, false, nil
			}

			page, err := s.cursor.FetchCurrentPage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					s.cancel(cancelled(ctx.Err()))
					return zero, false, nil
				}
				if errors.Is(err, ErrCancelled) {
					s.cancel(err)
					return zero, false, nil
				}
				s.fail(err)
				return zero, false, err
			}
			if ctx.Err() != nil {
				s.cancel(cancelled(ctx.Err()))
				return zero, false, nil
			}
			s.pages++

			if len(page.Items) == 0 {
				// Deletions can leave an empty page below the reported total.
				if err := s.cursor.Advance(0); err != nil {
					s.fail(err)
					return zero, false, err
				}
				s.end(stateExhausted, metrics.EndExhausted)
				return zero, false, nil
			}

			s.buf, s.pos = page.Items, 0
			s.state = stateYielding

		case stateFailed:
			return zero, false, s.err

		default:
			return zero, false, nil
		}
	}
}

// All returns the remaining items as a range-over-func sequence. A failure
// is delivered as the final pair with a zero item.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, ok, err := s.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Close ends the stream immediately and discards any buffered items.
func (s *Stream[T]) Close() {
	if s.done() {
		return
	}
	s.buf, s.pos = nil, 0
	s.end(stateCancelled, metrics.EndClosed)
}

// Err returns what ended the stream early: the fetch failure, or an error
// matching ErrCancelled when the context was cancelled or timed out. It is
// nil while the stream is running, after exhaustion and after Close.
func (s *Stream[T]) Err() error {
	return s.err
}

// Cancelled reports whether the stream ended because its context was
// cancelled or timed out before the collection was exhausted.
func (s *Stream[T]) Cancelled() bool {
	return s.state == stateCancelled && s.err != nil
}

// Pages returns the number of pages fetched so far.
func (s *Stream[T]) Pages() int {
	return s.pages
}

// Yielded returns the number of items yielded so far.
func (s *Stream[T]) Yielded() int {
	return s.yielded
}

// Cursor returns the underlying cursor for inspection.
func (s *Stream[T]) Cursor() *Cursor[T] {
	return s.cursor
}

func (s *Stream[T]) entity() string {
	return s.cursor.Descriptor().Entity()
}

func (s *Stream[T]) done() bool {
	return s.state == stateExhausted || s.state == stateCancelled || s.state == stateFailed
}

func (s *Stream[T]) fail(err error) {
	s.err = err
	s.buf, s.pos = nil, 0
	s.state = stateFailed
	metrics.StreamsEnded.WithLabelValues(s.entity(), metrics.EndFailed).Inc()
	s.logger.Warn().
		Err(err).
		Int("pages", s.pages).
		Int("items", s.yielded).
		Int("offset", s.cursor.Offset()).
		Msg("Stream failed")
}

// cancel ends the stream quietly but keeps the cause for Err and Collect.
func (s *Stream[T]) cancel(cause error) {
	s.err = cause
	s.buf, s.pos = nil, 0
	s.end(stateCancelled, metrics.EndCancelled)
}

func (s *Stream[T]) end(state streamState, reason string) {
	s.state = state
	metrics.StreamsEnded.WithLabelValues(s.entity(), reason).Inc()
	s.logger.Debug().
		Str("reason", reason).
		Int("pages", s.pages).
		Int("items", s.yielded).
		Int("offset", s.cursor.Offset()).
		Msg("Stream ended")
}

// Collect drains s and returns every item. On failure it returns the items
// yielded before the failing page along with the error. A walk cut short by
// cancellation returns the items read so far and an error matching
// ErrCancelled, so a partial result never looks complete.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	var items []T
	for item, err := range s.All(ctx) {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	if s.Cancelled() {
		return items, s.err
	}
	return items, nil
}

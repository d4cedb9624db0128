package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/query"
	"github.com/rs/zerolog"
)

// Config holds batch walker configuration.
type Config struct {
	// MaxConcurrency is the maximum number of cursors walked in parallel.
	// Pages of a single cursor are always fetched sequentially.
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// Buffer size for channels
	BufferSize int
}

// DefaultConfig returns conservative defaults for a rate-limited catalog.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        30 * time.Second,
		BufferSize:     64,
	}
}

// WalkResult is the outcome of walking one descriptor.
type WalkResult[T any] struct {
	Index int
	Items []T
	Error error
}

// BatchWalker walks many independent descriptors concurrently, each with its
// own Cursor and Stream.
type BatchWalker[T any] struct {
	source PageSource[T]
	config Config
	logger zerolog.Logger
}

// NewBatchWalker creates a new batch walker.
func NewBatchWalker[T any](source PageSource[T], config Config) *BatchWalker[T] {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}

	return &BatchWalker[T]{
		source: timeoutSource[T]{source: source, timeout: config.Timeout},
		config: config,
		logger: logging.NewLogger(logging.ComponentBatchWalker),
	}
}

// WalkAll walks every descriptor to exhaustion and returns the items keyed by
// descriptor index. Walks that fail keep the items yielded before the
// failure; the first failure is returned alongside the partial results.
// When ctx ends before every walk finished, the partial results come back
// with an error matching ErrCancelled.
func (bw *BatchWalker[T]) WalkAll(ctx context.Context, descs []query.Descriptor, limit *int) (map[int][]T, error) {
	start := time.Now()
	results := make(map[int][]T, len(descs))
	if len(descs) == 0 {
		return results, nil
	}
	if _, err := query.ResolveLimit(limit); err != nil {
		return nil, err
	}

	bw.logger.Info().
		Int("descriptors", len(descs)).
		Int("workers", bw.config.MaxConcurrency).
		Msg("Starting batch walk")

	queue := make(chan int, bw.config.BufferSize)
	walkResults := make(chan WalkResult[T], bw.config.BufferSize)

	go func() {
		defer close(queue)
		for i := range descs {
			select {
			case queue <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < bw.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bw.worker(ctx, descs, limit, queue, walkResults, &wg, i)
	}

	go func() {
		wg.Wait()
		close(walkResults)
	}()

	var firstErr error
	failed, finished := 0, 0
	for result := range walkResults {
		if result.Error == nil || len(result.Items) > 0 {
			results[result.Index] = result.Items
		}
		if result.Error != nil {
			if errors.Is(result.Error, ErrCancelled) && ctx.Err() != nil {
				// Counted once below, together with walks never started.
				continue
			}
			failed++
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}

		finished++
		if finished%25 == 0 {
			bw.logger.Info().
				Int("walked", finished).
				Int("total", len(descs)).
				Msg("Batch walk progress")
		}
	}

	if ctx.Err() != nil && finished+failed < len(descs) {
		bw.logger.Warn().
			Err(ctx.Err()).
			Int("finished", finished).
			Int("failed", failed).
			Int("total", len(descs)).
			Msg("Batch walk cancelled - returning partial results")
		err := fmt.Errorf("batch walk cancelled (%d/%d descriptors finished): %w", finished, len(descs), cancelled(ctx.Err()))
		if firstErr != nil {
			err = errors.Join(err, firstErr)
		}
		return results, err
	}

	if firstErr != nil {
		bw.logger.Warn().
			Err(firstErr).
			Int("failed", failed).
			Int("total", len(descs)).
			Msg("Batch walk finished with errors - returning partial results")
		return results, fmt.Errorf("batch walk (%d/%d descriptors failed): %w", failed, len(descs), firstErr)
	}

	bw.logger.Info().
		Int("descriptors", len(descs)).
		Dur("duration", time.Since(start)).
		Msg("Batch walk complete")

	return results, nil
}

// worker walks descriptors from the queue one at a time.
func (bw *BatchWalker[T]) worker(ctx context.Context, descs []query.Descriptor, limit *int, queue <-chan int, results chan<- WalkResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	walked := 0

	for idx := range queue {
		if ctx.Err() != nil {
			bw.logger.Debug().
				Int("worker_id", workerID).
				Int("walked", walked).
				Msg("Worker stopping (context cancelled)")
			return
		}

		result := WalkResult[T]{Index: idx}
		cursor, err := NewCursor[T](bw.source, descs[idx], limit, 0)
		if err != nil {
			result.Error = err
		} else {
			result.Items, result.Error = Collect(ctx, NewStream(cursor))
		}

		// WalkAll drains results until every worker is done, so this send
		// cannot block forever and partial items survive cancellation.
		results <- result
		walked++
	}

	if walked > 0 {
		bw.logger.Debug().
			Int("worker_id", workerID).
			Int("walked", walked).
			Msg("Worker completed")
	}
}

// timeoutSource bounds each page fetch with its own deadline.
type timeoutSource[T any] struct {
	source  PageSource[T]
	timeout time.Duration
}

func (s timeoutSource[T]) Fetch(ctx context.Context, desc query.Descriptor, limit, offset int) (*Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.source.Fetch(pageCtx, desc, limit, offset)
	if err != nil && ctx.Err() == nil && errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
		// A page deadline is a failure of this walk, not a cancellation.
		return nil, fmt.Errorf("%s page at offset %d timed out after %s", desc.Entity(), offset, s.timeout)
	}
	return page, err
}

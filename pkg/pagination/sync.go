package pagination

import (
	"context"

	"github.com/Sternrassler/catalog-client/pkg/query"
)

// Future is the pending result of FetchAsync.
type Future[T any] struct {
	done     chan struct{}
	page     *Page[T]
	err      error
	panicked bool
	panicVal any
}

// FetchAsync starts one page fetch on its own goroutine and returns
// immediately. The fetch observes ctx; cancelling it is how an in-flight
// request is abandoned.
func FetchAsync[T any](ctx context.Context, source PageSource[T], desc query.Descriptor, limit, offset int) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.panicked = true
				f.panicVal = r
			}
		}()
		f.page, f.err = source.Fetch(ctx, desc, limit, offset)
	}()

	return f
}

// Done is closed once the fetch has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the fetch completes or ctx is done. The fetch error is
// returned as is. A panic raised by the fetch is re-raised on the waiting
// goroutine.
//
// If ctx ends first, Wait returns ErrCancelled; the fetch keeps running until
// its own context ends and its result is dropped.
func (f *Future[T]) Wait(ctx context.Context) (*Page[T], error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, cancelled(ctx.Err())
	}

	if f.panicked {
		panic(f.panicVal)
	}
	return f.page, f.err
}

// BlockingFetch fetches one page and blocks the calling goroutine until it is
// available.
//
// The fetch always runs on a dedicated goroutine, so the caller is never
// needed to complete it. The remaining hazard is re-entrancy: calling
// BlockingFetch from inside a Transport while holding a resource that same
// Transport needs to serve the request (a lock, the only slot of a
// concurrency limiter) will deadlock.
func BlockingFetch[T any](ctx context.Context, source PageSource[T], desc query.Descriptor, limit, offset int) (*Page[T], error) {
	return FetchAsync(ctx, source, desc, limit, offset).Wait(ctx)
}

package pagination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-client/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceFunc[T any] func(ctx context.Context, desc query.Descriptor, limit, offset int) (*Page[T], error)

func (f sourceFunc[T]) Fetch(ctx context.Context, desc query.Descriptor, limit, offset int) (*Page[T], error) {
	return f(ctx, desc, limit, offset)
}

func TestBlockingFetch_ReturnsPage(t *testing.T) {
	tr := newMemoryTransport(40)

	page, err := BlockingFetch[string](context.Background(), newTestFetcher(tr), browseDescriptor(t), 25, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Len())
	assert.Equal(t, 40, page.TotalCount)
}

func TestBlockingFetch_PreservesFailureKind(t *testing.T) {
	tr := newMemoryTransport(40)
	tr.errs = map[int]error{0: &remoteError{Status: 400, Message: "Invalid inc parameter"}}

	_, err := BlockingFetch[string](context.Background(), newTestFetcher(tr), browseDescriptor(t), 25, 0)

	var remote *remoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "Invalid inc parameter", remote.Message)
}

func TestBlockingFetch_ValidationFailure(t *testing.T) {
	_, err := BlockingFetch[string](context.Background(), newTestFetcher(newMemoryTransport(1)), browseDescriptor(t), 0, 0)
	assert.ErrorIs(t, err, query.ErrValidation)
}

func TestBlockingFetch_RepanicsOnCaller(t *testing.T) {
	source := sourceFunc[string](func(context.Context, query.Descriptor, int, int) (*Page[string], error) {
		panic("decoder bug")
	})

	assert.PanicsWithValue(t, "decoder bug", func() {
		_, _ = BlockingFetch[string](context.Background(), source, browseDescriptor(t), 10, 0)
	})
}

func TestFuture_WaitCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	source := sourceFunc[string](func(context.Context, query.Descriptor, int, int) (*Page[string], error) {
		<-release
		return &Page[string]{}, nil
	})

	future := FetchAsync[string](context.Background(), source, browseDescriptor(t), 10, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := future.Wait(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuture_Done(t *testing.T) {
	tr := newMemoryTransport(5)
	future := FetchAsync[string](context.Background(), newTestFetcher(tr), browseDescriptor(t), 10, 0)

	select {
	case <-future.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not complete")
	}

	page, err := future.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, page.Len())
}

func TestFetchAsync_ConcurrentFetchesShareTransport(t *testing.T) {
	tr := newMemoryTransport(100)
	fetcher := newTestFetcher(tr)
	desc := browseDescriptor(t)

	futures := make([]*Future[string], 4)
	for i := range futures {
		futures[i] = FetchAsync[string](context.Background(), fetcher, desc, 25, i*25)
	}

	for i, f := range futures {
		page, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, itemsN(100)[i*25:(i+1)*25], page.Items)
	}
	assert.Equal(t, 4, tr.requestCount())
}

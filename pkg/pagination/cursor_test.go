package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/catalog-client/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCursor(t *testing.T, tr Transport, limit *int) *Cursor[string] {
	t.Helper()
	cursor, err := NewCursor[string](newTestFetcher(tr), browseDescriptor(t), limit, 0)
	require.NoError(t, err)
	return cursor
}

func TestCursor_ThirtyItemsLimitTen(t *testing.T) {
	tr := newMemoryTransport(30)
	cursor := newTestCursor(t, tr, query.Limit(10))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.False(t, cursor.IsExhausted(), "page %d", i)

		page, err := cursor.FetchCurrentPage(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, page.Len())
		assert.Equal(t, 30, page.TotalCount)

		// A full page never exhausts by the short-page rule.
		assert.False(t, cursor.IsExhausted(), "page %d before advance", i)

		require.NoError(t, cursor.Advance(page.Len()))
	}

	assert.Equal(t, 30, cursor.Offset())
	assert.True(t, cursor.IsExhausted())
	assert.Equal(t, []int{0, 10, 20}, tr.offsets())

	total, known := cursor.Total()
	assert.True(t, known)
	assert.Equal(t, 30, total)
}

func TestCursor_ShortPageExhausts(t *testing.T) {
	tr := newMemoryTransport(14)
	cursor := newTestCursor(t, tr, query.Limit(10))
	ctx := context.Background()

	page, err := cursor.FetchCurrentPage(ctx)
	require.NoError(t, err)
	require.NoError(t, cursor.Advance(page.Len()))
	assert.False(t, cursor.IsExhausted())

	page, err = cursor.FetchCurrentPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Len())
	assert.True(t, cursor.IsExhausted(), "short page is authoritative")
}

func TestCursor_ShortPageWinsOverGrowingTotal(t *testing.T) {
	tr := newMemoryTransport(5)
	tr.fixedTotal = 500
	cursor := newTestCursor(t, tr, query.Limit(10))

	_, err := cursor.FetchCurrentPage(context.Background())
	require.NoError(t, err)
	assert.True(t, cursor.IsExhausted())
}

func TestCursor_UnknownTotalRelyOnShortPage(t *testing.T) {
	calls := 0
	tr := TransportFunc(func(context.Context, string, string) ([]byte, error) {
		calls++
		if calls == 1 {
			return []byte(`{"offset":0,"items":["a","b"]}`), nil
		}
		return []byte(`{"offset":2,"items":["c"]}`), nil
	})
	cursor := newTestCursor(t, tr, query.Limit(2))
	ctx := context.Background()

	page, err := cursor.FetchCurrentPage(ctx)
	require.NoError(t, err)
	require.NoError(t, cursor.Advance(page.Len()))
	_, known := cursor.Total()
	assert.False(t, known)
	assert.False(t, cursor.IsExhausted())

	_, err = cursor.FetchCurrentPage(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.IsExhausted())
}

func TestCursor_FailureLeavesOffsetUnchanged(t *testing.T) {
	tr := newMemoryTransport(30)
	tr.errs = map[int]error{1: &remoteError{Status: 503, Message: "Service Unavailable"}}
	cursor := newTestCursor(t, tr, query.Limit(10))
	ctx := context.Background()

	page, err := cursor.FetchCurrentPage(ctx)
	require.NoError(t, err)
	require.NoError(t, cursor.Advance(page.Len()))

	_, err = cursor.FetchCurrentPage(ctx)
	require.Error(t, err)
	assert.Equal(t, 10, cursor.Offset())
	assert.False(t, cursor.IsExhausted())
	assert.ErrorIs(t, cursor.Advance(0), ErrInvalidAdvance, "failed fetch leaves nothing to advance past")

	page, err = cursor.FetchCurrentPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "item-10", page.Items[0])
	assert.Equal(t, []int{0, 10, 10}, tr.offsets())
}

func TestCursor_AdvanceValidation(t *testing.T) {
	tr := newMemoryTransport(30)
	cursor := newTestCursor(t, tr, query.Limit(10))

	assert.ErrorIs(t, cursor.Advance(1), ErrInvalidAdvance, "advance before any fetch")

	_, err := cursor.FetchCurrentPage(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, cursor.Advance(11), ErrInvalidAdvance)
	assert.ErrorIs(t, cursor.Advance(-1), ErrInvalidAdvance)
	assert.Equal(t, 0, cursor.Offset())

	require.NoError(t, cursor.Advance(10))
	assert.ErrorIs(t, cursor.Advance(10), ErrInvalidAdvance, "second advance for the same page")
	assert.Equal(t, 10, cursor.Offset())
}

func TestCursor_OffsetIsSumOfConsumed(t *testing.T) {
	tr := newMemoryTransport(100)
	cursor := newTestCursor(t, tr, query.Limit(10))
	ctx := context.Background()

	consumed := 0
	for _, n := range []int{10, 4, 0, 7} {
		_, err := cursor.FetchCurrentPage(ctx)
		require.NoError(t, err)
		require.NoError(t, cursor.Advance(n))
		consumed += n
		assert.Equal(t, consumed, cursor.Offset())
	}
	assert.Equal(t, []int{0, 10, 14, 14}, tr.offsets())
}

func TestCursor_FetchAfterExhausted(t *testing.T) {
	tr := newMemoryTransport(3)
	cursor := newTestCursor(t, tr, nil)

	_, err := cursor.FetchCurrentPage(context.Background())
	require.NoError(t, err)
	require.True(t, cursor.IsExhausted())

	_, err = cursor.FetchCurrentPage(context.Background())
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 1, tr.requestCount())
}

func TestNewCursor_Limits(t *testing.T) {
	tr := newMemoryTransport(1)
	fetcher := newTestFetcher(tr)
	desc := browseDescriptor(t)

	cursor, err := NewCursor[string](fetcher, desc, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, query.DefaultLimit, cursor.Limit())

	for _, n := range []int{0, -1, 101} {
		_, err := NewCursor[string](fetcher, desc, query.Limit(n), 0)
		assert.ErrorIs(t, err, query.ErrValidation, "limit %d", n)
	}

	_, err = NewCursor[string](fetcher, desc, nil, -5)
	assert.ErrorIs(t, err, query.ErrValidation)

	_, err = NewCursor[string](nil, desc, nil, 0)
	assert.Error(t, err)
}

func TestNewCursor_StartingOffset(t *testing.T) {
	tr := newMemoryTransport(30)
	cursor, err := NewCursor[string](newTestFetcher(tr), browseDescriptor(t), query.Limit(10), 25)
	require.NoError(t, err)

	page, err := cursor.FetchCurrentPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, page.Len())
	assert.Equal(t, 25, page.Offset)
	assert.True(t, cursor.IsExhausted())
}

package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/Sternrassler/catalog-client/pkg/query"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const testArtistID = "5b11f4ce-a62d-471e-81fc-a69a8278c7da"

// memoryTransport serves pages of a mutable in-memory collection.
type memoryTransport struct {
	mu sync.Mutex

	items []string

	// fixedTotal overrides the reported count when >= 0.
	fixedTotal int

	// errs fails the request with the given index (0-based).
	errs map[int]error

	// beforeServe runs with the lock held before request n is served.
	beforeServe func(n int, m *memoryTransport)

	// ignoreContext serves requests even when ctx is done.
	ignoreContext bool

	paths    []string
	requests []string
}

func newMemoryTransport(n int) *memoryTransport {
	return &memoryTransport{items: itemsN(n), fixedTotal: -1}
}

func itemsN(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	return items
}

type envelope struct {
	Count  *int     `json:"count,omitempty"`
	Offset int      `json:"offset"`
	Items  []string `json:"items"`
}

func (m *memoryTransport) Get(ctx context.Context, path, rawQuery string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.requests)
	m.paths = append(m.paths, path)
	m.requests = append(m.requests, rawQuery)

	if m.beforeServe != nil {
		m.beforeServe(n, m)
	}
	if err := m.errs[n]; err != nil {
		return nil, err
	}
	if !m.ignoreContext && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	limit, _ := strconv.Atoi(values.Get("limit"))
	offset, _ := strconv.Atoi(values.Get("offset"))

	page := []string{}
	if offset < len(m.items) {
		end := offset + limit
		if end > len(m.items) {
			end = len(m.items)
		}
		page = append(page, m.items[offset:end]...)
	}

	total := len(m.items)
	if m.fixedTotal >= 0 {
		total = m.fixedTotal
	}
	return jsonCodec.Marshal(envelope{Count: &total, Offset: offset, Items: page})
}

func (m *memoryTransport) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// offsets returns the offset of every request served so far.
func (m *memoryTransport) offsets() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]int, 0, len(m.requests))
	for _, raw := range m.requests {
		values, _ := url.ParseQuery(raw)
		offset, _ := strconv.Atoi(values.Get("offset"))
		out = append(out, offset)
	}
	return out
}

var jsonDecoder = DecoderFunc[string](func(body []byte) (Page[string], error) {
	var env envelope
	if err := jsonCodec.Unmarshal(body, &env); err != nil {
		return Page[string]{}, err
	}
	total := UnknownTotal
	if env.Count != nil {
		total = *env.Count
	}
	return Page[string]{TotalCount: total, Offset: env.Offset, Items: env.Items}, nil
})

// remoteError mimics a structured transport failure.
type remoteError struct {
	Status  int
	Message string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func newTestFetcher(tr Transport) *Fetcher[string] {
	return NewFetcher[string](tr, jsonDecoder)
}

func browseDescriptor(t *testing.T) query.Descriptor {
	t.Helper()
	desc, err := query.NewBrowse("release", "artist", testArtistID, query.Includes{}, query.Filters{})
	require.NoError(t, err)
	return desc
}

func newTestStream(t *testing.T, tr Transport, limit int) *Stream[string] {
	t.Helper()
	cursor, err := NewCursor[string](newTestFetcher(tr), browseDescriptor(t), query.Limit(limit), 0)
	require.NoError(t, err)
	return NewStream(cursor)
}

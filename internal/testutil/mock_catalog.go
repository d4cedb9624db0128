// Package testutil provides a mock catalog web service for tests.
package testutil

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/catalog-client/pkg/entity"
	jsoniter "github.com/json-iterator/go"
)

// RootPath is where the mock mounts the service.
const RootPath = "/ws/2"

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// reserved query keys that are never the filter clause.
var reserved = map[string]bool{
	"limit": true, "offset": true, "inc": true, "type": true, "status": true, "fmt": true,
}

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is one request seen by the mock.
type RecordedRequest struct {
	Path     string
	RawQuery string
	Query    url.Values
	Header   http.Header
}

type failure struct {
	status  int
	message string
}

// MockCatalog serves browse and search pages from mutable in-memory
// collections. Collections are keyed by entity kind and filter clause, e.g.
// ("release", "artist=<id>") or ("artist", "query=nirvana").
type MockCatalog struct {
	server   *httptest.Server
	mu       sync.Mutex
	items    map[string][]any
	counts   map[string]int
	handlers map[string]http.HandlerFunc
	failures []failure
	requests []RecordedRequest

	// BeforeServe runs before each collection page is built, with the
	// zero-based request index. It may mutate collections.
	BeforeServe func(index int)

	// Delay is applied to every response.
	Delay time.Duration

	// RateLimitRemaining is advertised in X-RateLimit-Remaining.
	RateLimitRemaining int
}

// NewMockCatalog starts a mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		items:              make(map[string][]any),
		counts:             make(map[string]int),
		handlers:           make(map[string]http.HandlerFunc),
		RateLimitRemaining: 1000,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the service root, including RootPath.
func (m *MockCatalog) URL() string {
	return m.server.URL + RootPath
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

func collectionKey(kind, clause string) string {
	return kind + "|" + clause
}

// SetCollection replaces the items behind (kind, clause).
func (m *MockCatalog) SetCollection(kind, clause string, items []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[collectionKey(kind, clause)] = append([]any(nil), items...)
}

// Insert adds an item at index, shifting later items.
func (m *MockCatalog) Insert(kind, clause string, index int, item any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := collectionKey(kind, clause)
	list := m.items[key]
	if index > len(list) {
		index = len(list)
	}
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = item
	m.items[key] = list
}

// Remove deletes the item at index.
func (m *MockCatalog) Remove(kind, clause string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := collectionKey(kind, clause)
	list := m.items[key]
	if index < 0 || index >= len(list) {
		return
	}
	m.items[key] = append(list[:index], list[index+1:]...)
}

// SetReportedCount makes the envelope report count instead of the real
// collection size. A negative count omits the field.
func (m *MockCatalog) SetReportedCount(kind, clause string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[collectionKey(kind, clause)] = count
}

// FailNext makes the next n requests fail with status and the service
// error message.
func (m *MockCatalog) FailNext(n, status int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.failures = append(m.failures, failure{status: status, message: message})
	}
}

// SetHandler overrides the handler for a path below RootPath.
func (m *MockCatalog) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[strings.Trim(path, "/")] = handler
}

// SetResponse configures a canned response for a path below RootPath.
func (m *MockCatalog) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// Requests returns a copy of the request log.
func (m *MockCatalog) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests served.
func (m *MockCatalog) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// ConditionalCount returns the number of requests that carried a validator.
func (m *MockCatalog) ConditionalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			n++
		}
	}
	return n
}

func (m *MockCatalog) serve(w http.ResponseWriter, r *http.Request) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-r.Context().Done():
			return
		}
	}

	m.mu.Lock()
	index := len(m.requests)
	m.requests = append(m.requests, RecordedRequest{
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Query:    r.URL.Query(),
		Header:   r.Header.Clone(),
	})
	var fail *failure
	if len(m.failures) > 0 {
		fail = &m.failures[0]
		m.failures = m.failures[1:]
	}
	kind := strings.Trim(strings.TrimPrefix(r.URL.Path, RootPath), "/")
	handler := m.handlers[kind]
	remaining := m.RateLimitRemaining
	hook := m.BeforeServe
	m.mu.Unlock()

	w.Header().Set("X-RateLimit-Limit", "1200")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(10*time.Second).Unix(), 10))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if fail != nil {
		writeError(w, fail.status, fail.message)
		return
	}
	if handler != nil {
		handler(w, r)
		return
	}
	if !strings.HasPrefix(r.URL.Path, RootPath+"/") || kind == "" {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	if hook != nil {
		hook(index)
	}

	body, status, err := m.page(kind, r.URL.Query())
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	etag := etagOf(body)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Cache-Control", "max-age=60")
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "max-age=60")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// page renders one envelope the way the service does: browse pages carry
// "<kind>-count"/"<kind>-offset", search pages "count"/"offset".
func (m *MockCatalog) page(kind string, q url.Values) ([]byte, int, error) {
	clause := ""
	search := false
	for key := range q {
		if reserved[key] {
			continue
		}
		if clause != "" {
			return nil, http.StatusBadRequest, fmt.Errorf("more than one filter clause")
		}
		clause = key + "=" + q.Get(key)
		search = key == "query"
	}
	if clause == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("Missing filter or query")
	}

	limit := 25
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, http.StatusBadRequest, fmt.Errorf("Invalid limit: %s", v)
		}
		limit = min(n, 100)
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, http.StatusBadRequest, fmt.Errorf("Invalid offset: %s", v)
		}
		offset = n
	}

	m.mu.Lock()
	key := collectionKey(kind, clause)
	all := m.items[key]
	count, override := m.counts[key]
	start := min(offset, len(all))
	end := min(offset+limit, len(all))
	items := append([]any{}, all[start:end]...)
	if !override {
		count = len(all)
	}
	m.mu.Unlock()

	envelope := map[string]any{entity.ListKey(kind): items}
	countKey, offsetKey := kind+"-count", kind+"-offset"
	if search {
		countKey, offsetKey = "count", "offset"
		envelope["created"] = time.Now().UTC().Format(time.RFC3339)
	}
	if count >= 0 {
		envelope[countKey] = count
	}
	envelope[offsetKey] = offset

	body, err := jsonCodec.Marshal(envelope)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return body, http.StatusOK, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	body, _ := jsonCodec.Marshal(map[string]string{
		"error": message,
		"help":  "For usage, please see: https://musicbrainz.org/development/mmd",
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func etagOf(body []byte) string {
	h := fnv.New64a()
	h.Write(body)
	return fmt.Sprintf(`"%x"`, h.Sum64())
}

// Item builds a minimal entity payload with an id and a name or title.
func Item(id, name string) map[string]any {
	return map[string]any{"id": id, "name": name, "title": name}
}

// Items builds n items with deterministic ids.
func Items(prefix string, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = Item(fmt.Sprintf("%s-%03d", prefix, i), fmt.Sprintf("%s %d", prefix, i))
	}
	return out
}

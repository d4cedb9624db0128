package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/catalog-client/pkg/catalog"
	"github.com/Sternrassler/catalog-client/pkg/client"
	"github.com/Sternrassler/catalog-client/pkg/logging"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
	"github.com/Sternrassler/catalog-client/pkg/query"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

var newline = []byte{'\n'}

// pinger reports backend readiness.
type pinger interface {
	Ping(ctx context.Context) error
}

type server struct {
	catalog *catalog.Client
	ready   pinger
	timeout time.Duration
	logger  zerolog.Logger
}

func newServer(c *catalog.Client, ready pinger, timeout time.Duration) *server {
	return &server{
		catalog: c,
		ready:   ready,
		timeout: timeout,
		logger:  logging.NewLogger(logging.ComponentProxy),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(s.ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /browse/{entity}/{relation}/{id}", s.handleBrowse)
	mux.HandleFunc("GET /search/{entity}", s.handleSearch)
	return mux
}

// pageBody is the JSON shape of a single-page response.
type pageBody struct {
	Count  *int                  `json:"count,omitempty"`
	Offset int                   `json:"offset"`
	Items  []jsoniter.RawMessage `json:"items"`
}

// healthHandler returns 200 OK if the process is alive.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 503 while the shared Redis is unreachable.
func readyHandler(p pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			http.Error(w, "NOT READY: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}

func (s *server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	kind := catalog.RawKind(r.PathValue("entity"))
	relation, id := r.PathValue("relation"), r.PathValue("id")

	opts, all, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	r = r.WithContext(ctx)

	if all {
		stream, err := catalog.BrowseAll(s.catalog, kind, relation, id, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeStream(ctx, w, r, stream)
		return
	}

	page, err := catalog.Browse(ctx, s.catalog, kind, relation, id, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePage(w, page.TotalCount, page.Offset, page.Items)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	kind := catalog.RawKind(r.PathValue("entity"))
	text := r.URL.Query().Get("query")

	opts, all, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	r = r.WithContext(ctx)

	if all {
		stream, err := catalog.SearchAll(s.catalog, kind, text, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeStream(ctx, w, r, stream)
		return
	}

	page, err := catalog.Search(ctx, s.catalog, kind, text, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePage(w, page.TotalCount, page.Offset, page.Items)
}

// parseOptions reads inc, type, status, limit, offset and all.
func parseOptions(r *http.Request) (catalog.Options, bool, error) {
	q := r.URL.Query()
	var opts catalog.Options

	inc, err := query.ParseIncludes(q.Get("inc"))
	if err != nil {
		return opts, false, err
	}
	opts.Includes = inc
	opts.Filters = query.Filters{
		Types:    splitList(q["type"]),
		Statuses: splitList(q["status"]),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, false, &query.ValidationError{Field: "limit", Value: v, Reason: "must be an integer"}
		}
		opts.Limit = query.Limit(n)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, false, &query.ValidationError{Field: "offset", Value: v, Reason: "must be an integer"}
		}
		opts.Offset = n
	}

	all := false
	if v := q.Get("all"); v != "" {
		all, err = strconv.ParseBool(v)
		if err != nil {
			return opts, false, &query.ValidationError{Field: "all", Value: v, Reason: "must be a boolean"}
		}
	}
	return opts, all, nil
}

// splitList flattens repeated and comma-separated parameter values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *server) writePage(w http.ResponseWriter, total, offset int, items []jsoniter.RawMessage) {
	body := pageBody{Offset: offset, Items: items}
	if total >= 0 {
		body.Count = &total
	}
	if body.Items == nil {
		body.Items = []jsoniter.RawMessage{}
	}
	writeJSON(w, http.StatusOK, body)
}

// writeStream emits one item per line. A failure or timeout after the first
// byte is reported as a trailing {"error": ...} line.
func (s *server) writeStream(ctx context.Context, w http.ResponseWriter, r *http.Request, stream *pagination.Stream[jsoniter.RawMessage]) {
	defer stream.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	start := time.Now()
	count := 0
	for item, err := range stream.All(ctx) {
		if err != nil {
			s.writeTrailer(w, r, err, count)
			return
		}
		w.Write(item)
		w.Write(newline)
		count++
		if flusher != nil && count%100 == 0 {
			flusher.Flush()
		}
	}

	// A cancelled stream ends quietly; the client still needs to know the
	// body is incomplete.
	if stream.Cancelled() {
		s.writeTrailer(w, r, stream.Err(), count)
		return
	}

	s.logger.Debug().
		Str("path", r.URL.Path).
		Int("items", count).
		Dur("duration", time.Since(start)).
		Msg("Stream complete")
}

func (s *server) writeTrailer(w http.ResponseWriter, r *http.Request, err error, count int) {
	s.logger.Warn().
		Err(err).
		Str("path", r.URL.Path).
		Int("items", count).
		Int("status", statusFor(err)).
		Msg("Stream ended with error")
	line, _ := jsonCodec.Marshal(map[string]string{"error": err.Error()})
	w.Write(append(line, '\n'))
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	event := s.logger.Warn()
	if status >= 500 {
		event = s.logger.Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request failed")

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps client-side errors onto proxy responses. Validation
// failures are 400, catalog client errors keep their status, and anything
// from the upstream path is a gateway failure.
func statusFor(err error) int {
	if errors.Is(err, query.ErrValidation) {
		return http.StatusBadRequest
	}
	var qerr *client.QueryError
	if errors.As(err, &qerr) && qerr.Class == client.ErrorClassClient {
		return qerr.StatusCode
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jsonCodec.NewEncoder(w).Encode(v)
}

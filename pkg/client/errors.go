package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// QueryError is a request the catalog service rejected. Message is the
// service's own error text, unmodified.
type QueryError struct {
	StatusCode int
	Class      ErrorClass
	Message    string

	// RetryAfter is the server's requested delay, zero when not given.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("catalog %s error (status %d): %s", e.Class, e.StatusCode, e.Message)
}

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// newQueryError builds a QueryError from a failed response and closes its
// body.
func newQueryError(resp *http.Response) *QueryError {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	qerr := &QueryError{
		StatusCode: resp.StatusCode,
		Class:      classifyStatus(resp.StatusCode),
		Message:    errorMessage(body, resp.Status),
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		qerr.RetryAfter = time.Duration(secs) * time.Second
	}
	return qerr
}

// errorMessage extracts the "error" field of a JSON error body, falling back
// to the raw body text and then to the status line.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := jsonCodec.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return status
}

// classifyStatus maps an HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// A malformed or unknown request fails the same way every time.
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names used for the "component" field.
const (
	ComponentClient      = "catalog-client"
	ComponentRateLimiter = "rate-limiter"
	ComponentFetcher     = "page-fetcher"
	ComponentCursor      = "cursor"
	ComponentStream      = "stream"
	ComponentBatchWalker = "batch-walker"
	ComponentCatalog     = "catalog"
	ComponentProxy       = "catalog-proxy"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Service is added to every entry as "service" when set.
	Service string

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForEntity is NewLogger with the entity kind attached.
func ForEntity(component, entity string) zerolog.Logger {
	return log.With().Str("component", component).Str("entity", entity).Logger()
}

// Log Level Guidelines:
//
// Debug: page flow
//   - Page requests and their offsets
//   - Cache hit/miss, conditional requests
//   - Rate limiter throttling
//
// Info: stream and batch completion, server startup/shutdown
//
// Warn: retries, truncated pages, rate limit exhaustion, cache errors
//
// Error: failed requests after retries, configuration errors
//
// Context Fields:
//   - entity: entity kind of the request path
//   - offset, limit, total: pagination position
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network
//   - remaining: server-advertised request budget
//   - etag: validator used for conditional requests

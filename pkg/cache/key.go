package cache

import (
	"strings"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "catalog"

// CacheKey identifies one cached page request.
type CacheKey struct {
	// Path is the entity path relative to the service root (e.g. "release")
	Path string

	// RawQuery is the canonical encoded query including limit and offset.
	// Callers must pass the canonical form; the key does not reorder it.
	RawQuery string
}

// String renders the key as catalog:<path>:<query>.
//
// Example:
//
//	catalog:release:artist=5b11f4ce-a62d-471e-81fc-a69a8278c7da&inc=labels&limit=25&offset=0
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if path := strings.Trim(k.Path, "/"); path != "" {
		parts = append(parts, path)
	}
	if k.RawQuery != "" {
		parts = append(parts, k.RawQuery)
	}

	return strings.Join(parts, ":")
}

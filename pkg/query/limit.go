package query

import "strconv"

// Page size bounds accepted by the catalog service.
const (
	// MinLimit is the smallest page size a caller may request.
	MinLimit = 1

	// MaxLimit is the server-side page size cap.
	MaxLimit = 100

	// DefaultLimit is used when the caller does not supply a limit.
	DefaultLimit = 25
)

// Limit returns a pointer to n, for use as an explicit optional limit.
func Limit(n int) *int {
	return &n
}

// ResolveLimit applies the default to an omitted limit and validates an
// explicit one. Explicit values outside [MinLimit, MaxLimit] are rejected,
// never clamped.
func ResolveLimit(limit *int) (int, error) {
	if limit == nil {
		return DefaultLimit, nil
	}
	if err := ValidateLimit(*limit); err != nil {
		return 0, err
	}
	return *limit, nil
}

// ValidateLimit rejects page sizes outside [MinLimit, MaxLimit].
func ValidateLimit(limit int) error {
	if limit < MinLimit || limit > MaxLimit {
		return invalid("limit", strconv.Itoa(limit), "must be between 1 and 100")
	}
	return nil
}

// ValidateOffset rejects negative offsets.
func ValidateOffset(offset int) error {
	if offset < 0 {
		return invalid("offset", strconv.Itoa(offset), "must not be negative")
	}
	return nil
}

// ClampLimit silently caps limit at MaxLimit. It is applied to every outgoing
// request after validation.
func ClampLimit(limit int) int {
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

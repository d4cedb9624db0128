package query

import (
	"sort"
	"strings"
)

// Filters holds the optional secondary refinements of a browse or search.
// An empty field is absent and renders nothing.
type Filters struct {
	// Types narrows by release group type (e.g. "album", "ep").
	Types []string

	// Statuses narrows by release status (e.g. "official").
	Statuses []string
}

// IsZero reports whether no secondary filter is present.
func (f Filters) IsZero() bool {
	return len(f.Types) == 0 && len(f.Statuses) == 0
}

// normalize lowercases, trims, deduplicates and sorts each filter's values.
func (f Filters) normalize() (Filters, error) {
	types, err := normalizeValues("type", f.Types)
	if err != nil {
		return Filters{}, err
	}
	statuses, err := normalizeValues("status", f.Statuses)
	if err != nil {
		return Filters{}, err
	}
	return Filters{Types: types, Statuses: statuses}, nil
}

func normalizeValues(field string, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return nil, invalid(field, "", "empty filter value")
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// params returns the present filters as name=value pairs in canonical order.
func (f Filters) params() []param {
	var out []param
	if len(f.Types) > 0 {
		out = append(out, param{name: "type", value: strings.Join(f.Types, "|")})
	}
	if len(f.Statuses) > 0 {
		out = append(out, param{name: "status", value: strings.Join(f.Statuses, "|")})
	}
	return out
}

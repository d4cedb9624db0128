// Package query builds canonical request descriptors for catalog browse and
// search operations.
//
// A Descriptor is an immutable value: entity path, filter clause, include
// flags and secondary filters. Its canonical query string is deterministic,
// so equal logical inputs always produce byte-identical requests and cache
// keys:
//
//	desc, err := query.NewBrowse("release", "artist", artistID,
//		query.MustIncludes(query.IncludeTags, query.IncludeAliases),
//		query.Filters{Types: []string{"album"}})
//	desc.Query()          // artist=<mbid>&type=album&inc=aliases,tags
//	desc.Encode(25, 50)   // ...&limit=25&offset=50
package query

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SearchKey is the parameter name carrying free-text search queries.
const SearchKey = "query"

var relationKey = regexp.MustCompile(`^[a-z][a-z_-]*$`)

// reservedKeys are rendered from Filters, Includes and paging; a filter
// clause must not reuse them.
var reservedKeys = map[string]bool{
	"type": true, "status": true, "inc": true, "limit": true, "offset": true,
}

type param struct {
	name  string
	value string
}

func (p param) encode() string {
	return p.name + "=" + url.QueryEscape(p.value)
}

// Descriptor is the canonical, immutable description of one browse or
// search request, independent of page size and offset.
type Descriptor struct {
	entity   string
	clause   param
	includes Includes
	filters  Filters
	query    string
}

// NewDescriptor parses filterClause and builds a Descriptor for entityPath.
// A clause of the form "relation=value" is a browse filter; anything else
// is a free-text search.
func NewDescriptor(entityPath, filterClause string, includes Includes, filters Filters) (Descriptor, error) {
	clause, err := parseClause(filterClause)
	if err != nil {
		return Descriptor{}, err
	}
	return newDescriptor(entityPath, clause, includes, filters)
}

// NewBrowse builds a Descriptor listing entityPath items related to the
// entity id through relation (e.g. releases of an artist). id must be a
// UUID; it is rendered in lowercase hyphenated form.
func NewBrowse(entityPath, relation, id string, includes Includes, filters Filters) (Descriptor, error) {
	if !relationKey.MatchString(relation) {
		return Descriptor{}, invalid("relation", relation, "must be a lowercase relation name")
	}
	if reservedKeys[relation] {
		return Descriptor{}, invalid("relation", relation, "reserved parameter name")
	}
	canonical, err := canonicalID(id)
	if err != nil {
		return Descriptor{}, err
	}
	return newDescriptor(entityPath, param{name: relation, value: canonical}, includes, filters)
}

// NewSearch builds a Descriptor for a free-text search over entityPath.
func NewSearch(entityPath, text string, includes Includes, filters Filters) (Descriptor, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Descriptor{}, invalid("filter", "", "search query must not be empty")
	}
	return newDescriptor(entityPath, param{name: SearchKey, value: text}, includes, filters)
}

// Build returns the canonical query string for the given inputs.
func Build(entityPath, filterClause string, includes Includes, filters Filters) (string, error) {
	d, err := NewDescriptor(entityPath, filterClause, includes, filters)
	if err != nil {
		return "", err
	}
	return d.Query(), nil
}

func newDescriptor(entityPath string, clause param, includes Includes, filters Filters) (Descriptor, error) {
	entity := strings.Trim(strings.TrimSpace(entityPath), "/")
	if entity == "" {
		return Descriptor{}, invalid("entity", entityPath, "entity path must not be empty")
	}
	normalized, err := filters.normalize()
	if err != nil {
		return Descriptor{}, err
	}

	d := Descriptor{
		entity:   entity,
		clause:   clause,
		includes: includes,
		filters:  normalized,
	}

	parts := []string{clause.encode()}
	for _, p := range normalized.params() {
		parts = append(parts, p.encode())
	}
	if includes.Len() > 0 {
		// The separator stays literal; the flag names never need escaping.
		parts = append(parts, "inc="+includes.String())
	}
	d.query = strings.Join(parts, "&")

	return d, nil
}

func parseClause(clause string) (param, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return param{}, invalid("filter", "", "filter clause must not be empty")
	}

	if key, value, ok := strings.Cut(clause, "="); ok && relationKey.MatchString(key) {
		if reservedKeys[key] {
			return param{}, invalid("filter", clause, "reserved parameter name "+key+" cannot be a filter clause")
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return param{}, invalid("filter", clause, "filter value must not be empty")
		}
		if key == SearchKey {
			return param{name: key, value: value}, nil
		}
		if id, err := uuid.Parse(value); err == nil {
			value = id.String()
		}
		return param{name: key, value: value}, nil
	}

	return param{name: SearchKey, value: clause}, nil
}

func canonicalID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", invalid("id", id, "must be a UUID")
	}
	return parsed.String(), nil
}

// Entity returns the remote collection path (e.g. "release").
func (d Descriptor) Entity() string {
	return d.entity
}

// FilterKey returns the filter clause parameter name: a relation for
// browses, SearchKey for searches.
func (d Descriptor) FilterKey() string {
	return d.clause.name
}

// FilterValue returns the canonical filter value.
func (d Descriptor) FilterValue() string {
	return d.clause.value
}

// IsSearch reports whether the descriptor is a free-text search.
func (d Descriptor) IsSearch() bool {
	return d.clause.name == SearchKey
}

// Includes returns the include flag set.
func (d Descriptor) Includes() Includes {
	return d.includes
}

// Filters returns the normalized secondary filters.
func (d Descriptor) Filters() Filters {
	return Filters{
		Types:    append([]string(nil), d.filters.Types...),
		Statuses: append([]string(nil), d.filters.Statuses...),
	}
}

// Query returns the canonical query string without paging parameters.
func (d Descriptor) Query() string {
	return d.query
}

// Encode returns the full wire query string for one page request.
func (d Descriptor) Encode(limit, offset int) string {
	return d.query + "&limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
}

// String returns "entity?query" for logging.
func (d Descriptor) String() string {
	return d.entity + "?" + d.query
}

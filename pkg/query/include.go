package query

import (
	"strings"
)

// Include names one extra-data option requested for each item of a page.
type Include string

// Known include flags. Declaration order is the canonical rendering order.
const (
	IncludeAliases            Include = "aliases"
	IncludeAnnotation         Include = "annotation"
	IncludeTags               Include = "tags"
	IncludeGenres             Include = "genres"
	IncludeRatings            Include = "ratings"
	IncludeUserTags           Include = "user-tags"
	IncludeUserGenres         Include = "user-genres"
	IncludeUserRatings        Include = "user-ratings"
	IncludeArtistCredits      Include = "artist-credits"
	IncludeArtists            Include = "artists"
	IncludeLabels             Include = "labels"
	IncludeRecordings         Include = "recordings"
	IncludeReleases           Include = "releases"
	IncludeReleaseGroups      Include = "release-groups"
	IncludeMedia              Include = "media"
	IncludeDiscIDs            Include = "discids"
	IncludeISRCs              Include = "isrcs"
	IncludeWorks              Include = "works"
	IncludeAreaRels           Include = "area-rels"
	IncludeArtistRels         Include = "artist-rels"
	IncludeLabelRels          Include = "label-rels"
	IncludePlaceRels          Include = "place-rels"
	IncludeRecordingRels      Include = "recording-rels"
	IncludeReleaseRels        Include = "release-rels"
	IncludeReleaseGroupRels   Include = "release-group-rels"
	IncludeSeriesRels         Include = "series-rels"
	IncludeURLRels            Include = "url-rels"
	IncludeWorkRels           Include = "work-rels"
	IncludeRecordingLevelRels Include = "recording-level-rels"
	IncludeWorkLevelRels      Include = "work-level-rels"
)

var canonicalIncludes = []Include{
	IncludeAliases,
	IncludeAnnotation,
	IncludeTags,
	IncludeGenres,
	IncludeRatings,
	IncludeUserTags,
	IncludeUserGenres,
	IncludeUserRatings,
	IncludeArtistCredits,
	IncludeArtists,
	IncludeLabels,
	IncludeRecordings,
	IncludeReleases,
	IncludeReleaseGroups,
	IncludeMedia,
	IncludeDiscIDs,
	IncludeISRCs,
	IncludeWorks,
	IncludeAreaRels,
	IncludeArtistRels,
	IncludeLabelRels,
	IncludePlaceRels,
	IncludeRecordingRels,
	IncludeReleaseRels,
	IncludeReleaseGroupRels,
	IncludeSeriesRels,
	IncludeURLRels,
	IncludeWorkRels,
	IncludeRecordingLevelRels,
	IncludeWorkLevelRels,
}

var includeRank = func() map[Include]int {
	m := make(map[Include]int, len(canonicalIncludes))
	for i, inc := range canonicalIncludes {
		m[inc] = i
	}
	return m
}()

// Valid reports whether inc is a known include flag.
func (inc Include) Valid() bool {
	_, ok := includeRank[inc]
	return ok
}

// Includes is an immutable set of include flags. Iteration and rendering
// always follow the canonical flag order, independent of insertion order.
// The zero value is the empty set.
type Includes struct {
	set map[Include]struct{}
}

// NewIncludes builds a set from flags. Duplicates collapse; unknown flags are
// a ValidationError.
func NewIncludes(flags ...Include) (Includes, error) {
	return Includes{}.With(flags...)
}

// MustIncludes is NewIncludes for static flag lists; it panics on unknown flags.
func MustIncludes(flags ...Include) Includes {
	inc, err := NewIncludes(flags...)
	if err != nil {
		panic(err)
	}
	return inc
}

// ParseIncludes parses a comma or plus separated list of flag names.
func ParseIncludes(s string) (Includes, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
	flags := make([]Include, 0, len(fields))
	for _, f := range fields {
		flags = append(flags, Include(strings.ToLower(f)))
	}
	return NewIncludes(flags...)
}

// With returns a new set holding the receiver's flags plus flags.
func (s Includes) With(flags ...Include) (Includes, error) {
	out := Includes{set: make(map[Include]struct{}, len(s.set)+len(flags))}
	for inc := range s.set {
		out.set[inc] = struct{}{}
	}
	for _, inc := range flags {
		if !inc.Valid() {
			return Includes{}, invalid("include", string(inc), "unknown include flag")
		}
		out.set[inc] = struct{}{}
	}
	return out, nil
}

// Has reports whether inc is in the set.
func (s Includes) Has(inc Include) bool {
	_, ok := s.set[inc]
	return ok
}

// Len returns the number of flags in the set.
func (s Includes) Len() int {
	return len(s.set)
}

// List returns the flags in canonical order.
func (s Includes) List() []Include {
	out := make([]Include, 0, len(s.set))
	for _, inc := range canonicalIncludes {
		if _, ok := s.set[inc]; ok {
			out = append(out, inc)
		}
	}
	return out
}

// String renders the set comma-joined in canonical order.
func (s Includes) String() string {
	list := s.List()
	parts := make([]string, len(list))
	for i, inc := range list {
		parts[i] = string(inc)
	}
	return strings.Join(parts, ",")
}

// Package catalog binds the pagination engine to the catalog's entity kinds.
//
// Every browse and search call goes through one generic path; per-entity
// behaviour lives in data: a Kind value per entity type and a table of the
// relations each kind can be browsed by.
//
//	c := catalog.New(transport)
//	stream, err := catalog.BrowseAll(c, catalog.Releases, "artist", artistID, catalog.Options{
//		Includes: query.MustIncludes(query.IncludeLabels),
//	})
//	for release, err := range stream.All(ctx) {
//		...
//	}
package catalog

import (
	"slices"

	"github.com/Sternrassler/catalog-client/pkg/entity"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
	jsoniter "github.com/json-iterator/go"
)

// Kind pairs an entity path with the decoder for its pages.
type Kind[T any] struct {
	Name    string
	Decoder pagination.Decoder[T]
}

// NewKind returns the Kind for name decoding items into T.
func NewKind[T any](name string) Kind[T] {
	return Kind[T]{Name: name, Decoder: entity.NewDecoder[T](name)}
}

// Entity kinds.
var (
	Areas         = NewKind[entity.Area](entity.KindArea)
	Artists       = NewKind[entity.Artist](entity.KindArtist)
	Collections   = NewKind[entity.Collection](entity.KindCollection)
	Events        = NewKind[entity.Event](entity.KindEvent)
	Instruments   = NewKind[entity.Instrument](entity.KindInstrument)
	Labels        = NewKind[entity.Label](entity.KindLabel)
	Places        = NewKind[entity.Place](entity.KindPlace)
	Recordings    = NewKind[entity.Recording](entity.KindRecording)
	Releases      = NewKind[entity.Release](entity.KindRelease)
	ReleaseGroups = NewKind[entity.ReleaseGroup](entity.KindReleaseGroup)
	Series        = NewKind[entity.Series](entity.KindSeries)
	URLs          = NewKind[entity.URL](entity.KindURL)
	Works         = NewKind[entity.Work](entity.KindWork)
)

// RawKind returns a Kind whose items are the undecoded JSON objects, for
// callers that forward items without inspecting them.
func RawKind(name string) Kind[jsoniter.RawMessage] {
	return NewKind[jsoniter.RawMessage](name)
}

// relations lists, per entity kind, the relations it can be browsed by.
var relations = map[string][]string{
	entity.KindArea:         {"collection"},
	entity.KindArtist:       {"area", "collection", "recording", "release", "release-group", "work"},
	entity.KindCollection:   {"area", "artist", "event", "label", "place", "recording", "release", "release-group", "work"},
	entity.KindEvent:        {"area", "artist", "collection", "place"},
	entity.KindInstrument:   {"collection"},
	entity.KindLabel:        {"area", "collection", "release"},
	entity.KindPlace:        {"area", "collection"},
	entity.KindRecording:    {"artist", "collection", "release", "work"},
	entity.KindRelease:      {"area", "artist", "collection", "label", "track", "track_artist", "recording", "release-group"},
	entity.KindReleaseGroup: {"artist", "collection", "release"},
	entity.KindSeries:       {"collection"},
	entity.KindWork:         {"artist", "collection"},
}

// searchable kinds accept free-text search.
var searchable = map[string]bool{
	entity.KindArea:         true,
	entity.KindArtist:       true,
	entity.KindEvent:        true,
	entity.KindInstrument:   true,
	entity.KindLabel:        true,
	entity.KindPlace:        true,
	entity.KindRecording:    true,
	entity.KindRelease:      true,
	entity.KindReleaseGroup: true,
	entity.KindSeries:       true,
	entity.KindURL:          true,
	entity.KindWork:         true,
}

// Relations returns the relations kind can be browsed by, sorted.
func Relations(kind string) []string {
	out := slices.Clone(relations[kind])
	slices.Sort(out)
	return out
}

// CanBrowse reports whether kind can be browsed by relation.
func CanBrowse(kind, relation string) bool {
	return slices.Contains(relations[kind], relation)
}

// CanSearch reports whether kind accepts search queries.
func CanSearch(kind string) bool {
	return searchable[kind]
}

// Known reports whether kind is a catalog entity kind.
func Known(kind string) bool {
	_, browsable := relations[kind]
	return browsable || searchable[kind]
}

package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/catalog-client/pkg/pagination"
	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMissingList is returned when a response carries no item list for the
// decoder's kind.
var ErrMissingList = errors.New("response has no item list")

// Decoder maps one response envelope of a kind onto a page. Browse responses
// name their fields "<kind>-count", "<kind>-offset" and "<kind>s"; search
// responses use "count" and "offset". Both are accepted.
type Decoder[T any] struct {
	kind       string
	listKey    string
	countKeys  []string
	offsetKeys []string
}

// NewDecoder returns the decoder for kind (e.g. "release-group").
func NewDecoder[T any](kind string) Decoder[T] {
	return Decoder[T]{
		kind:       kind,
		listKey:    ListKey(kind),
		countKeys:  []string{kind + "-count", "count"},
		offsetKeys: []string{kind + "-offset", "offset"},
	}
}

// ListKey returns the envelope field holding the items of kind.
func ListKey(kind string) string {
	if strings.HasSuffix(kind, "s") {
		return kind
	}
	return kind + "s"
}

// Kind returns the entity kind the decoder handles.
func (d Decoder[T]) Kind() string {
	return d.kind
}

// Decode implements pagination.Decoder.
func (d Decoder[T]) Decode(body []byte) (pagination.Page[T], error) {
	var envelope map[string]jsoniter.RawMessage
	if err := jsonCodec.Unmarshal(body, &envelope); err != nil {
		return pagination.Page[T]{}, fmt.Errorf("unmarshal %s envelope: %w", d.kind, err)
	}

	raw, ok := envelope[d.listKey]
	if !ok {
		return pagination.Page[T]{}, fmt.Errorf("%w: %q", ErrMissingList, d.listKey)
	}

	var items []T
	if err := jsonCodec.Unmarshal(raw, &items); err != nil {
		return pagination.Page[T]{}, fmt.Errorf("unmarshal %s items: %w", d.kind, err)
	}

	total, err := d.intField(envelope, d.countKeys, pagination.UnknownTotal)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	offset, err := d.intField(envelope, d.offsetKeys, 0)
	if err != nil {
		return pagination.Page[T]{}, err
	}

	return pagination.Page[T]{
		TotalCount: total,
		Offset:     offset,
		Items:      items,
	}, nil
}

func (d Decoder[T]) intField(envelope map[string]jsoniter.RawMessage, keys []string, fallback int) (int, error) {
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var n int
		if err := jsonCodec.Unmarshal(raw, &n); err != nil {
			return 0, fmt.Errorf("unmarshal %s field %q: %w", d.kind, key, err)
		}
		return n, nil
	}
	return fallback, nil
}

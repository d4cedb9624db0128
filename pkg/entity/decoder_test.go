package entity

import (
	"errors"
	"testing"

	"github.com/Sternrassler/catalog-client/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_BrowseEnvelope(t *testing.T) {
	body := []byte(`{
		"release-count": 42,
		"release-offset": 25,
		"releases": [
			{"id": "b84ee12a-09ef-421b-82de-0441a926375b", "title": "OK Computer", "status": "Official",
			 "date": "1997-05-21", "media": [{"position": 1, "format": "CD", "track-count": 12}]},
			{"id": "2a8d4ad5-6a4b-4f4e-9c8e-2c3a0b0f7f11", "title": "Kid A"}
		]
	}`)

	page, err := NewDecoder[Release](KindRelease).Decode(body)
	require.NoError(t, err)

	assert.Equal(t, 42, page.TotalCount)
	assert.Equal(t, 25, page.Offset)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "OK Computer", page.Items[0].Title)
	assert.Equal(t, 12, page.Items[0].Media[0].TrackCount)
	assert.Equal(t, "Kid A", page.Items[1].Title)
}

func TestDecoder_SearchEnvelope(t *testing.T) {
	body := []byte(`{
		"created": "2024-01-01T00:00:00.000Z",
		"count": 3,
		"offset": 0,
		"artists": [
			{"id": "a74b1b7f-71a5-4011-9441-d0b5e4122711", "name": "Radiohead", "type": "Group",
			 "score": 100, "life-span": {"begin": "1991"}, "tags": [{"name": "rock", "count": 7}]}
		]
	}`)

	page, err := NewDecoder[Artist](KindArtist).Decode(body)
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 100, page.Items[0].Score)
	assert.Equal(t, "1991", page.Items[0].LifeSpan.Begin)
	assert.Equal(t, "rock", page.Items[0].Tags[0].Name)
}

func TestDecoder_HyphenatedKind(t *testing.T) {
	body := []byte(`{"release-group-count": 1, "release-group-offset": 0,
		"release-groups": [{"id": "x", "title": "Pablo Honey", "primary-type": "Album", "secondary-types": ["Live"]}]}`)

	page, err := NewDecoder[ReleaseGroup](KindReleaseGroup).Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "Album", page.Items[0].PrimaryType)
	assert.Equal(t, []string{"Live"}, page.Items[0].SecondaryTypes)
}

func TestDecoder_SeriesListKey(t *testing.T) {
	assert.Equal(t, "series", ListKey(KindSeries))
	assert.Equal(t, "recordings", ListKey(KindRecording))

	page, err := NewDecoder[Series](KindSeries).Decode([]byte(`{"series-count": 1, "series": [{"id": "s", "name": "Proms"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Proms", page.Items[0].Name)
}

func TestDecoder_MissingCountIsUnknown(t *testing.T) {
	page, err := NewDecoder[Work](KindWork).Decode([]byte(`{"works": []}`))
	require.NoError(t, err)
	assert.Equal(t, pagination.UnknownTotal, page.TotalCount)
	assert.Empty(t, page.Items)
}

func TestDecoder_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"wrong list type", `{"labels": {"id": "x"}}`},
		{"bad count", `{"label-count": "many", "labels": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder[Label](KindLabel).Decode([]byte(tt.body))
			assert.Error(t, err)
		})
	}

	_, err := NewDecoder[Label](KindLabel).Decode([]byte(`{"label-count": 0}`))
	assert.True(t, errors.Is(err, ErrMissingList))
}

func TestDecoder_ImplementsPaginationDecoder(t *testing.T) {
	var _ pagination.Decoder[Place] = NewDecoder[Place](KindPlace)
	assert.Equal(t, KindPlace, NewDecoder[Place](KindPlace).Kind())
}

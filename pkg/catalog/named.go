package catalog

import (
	"context"

	"github.com/Sternrassler/catalog-client/pkg/entity"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
)

// ReleasesByArtist fetches one page of an artist's releases.
func (c *Client) ReleasesByArtist(ctx context.Context, artistID string, opts Options) (*pagination.Page[entity.Release], error) {
	return Browse(ctx, c, Releases, "artist", artistID, opts)
}

// ReleaseGroupsByArtist fetches one page of an artist's release groups.
func (c *Client) ReleaseGroupsByArtist(ctx context.Context, artistID string, opts Options) (*pagination.Page[entity.ReleaseGroup], error) {
	return Browse(ctx, c, ReleaseGroups, "artist", artistID, opts)
}

// RecordingsByRelease fetches one page of the recordings on a release.
func (c *Client) RecordingsByRelease(ctx context.Context, releaseID string, opts Options) (*pagination.Page[entity.Recording], error) {
	return Browse(ctx, c, Recordings, "release", releaseID, opts)
}

// WorksInCollection fetches one page of the works in a collection.
func (c *Client) WorksInCollection(ctx context.Context, collectionID string, opts Options) (*pagination.Page[entity.Work], error) {
	return Browse(ctx, c, Works, "collection", collectionID, opts)
}

// AllReleasesByArtist streams every release of an artist.
func (c *Client) AllReleasesByArtist(artistID string, opts Options) (*pagination.Stream[entity.Release], error) {
	return BrowseAll(c, Releases, "artist", artistID, opts)
}

// SearchArtists fetches one page of artists matching text.
func (c *Client) SearchArtists(ctx context.Context, text string, opts Options) (*pagination.Page[entity.Artist], error) {
	return Search(ctx, c, Artists, text, opts)
}

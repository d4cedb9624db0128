// Package pagination walks offset-paginated catalog collections.
//
// The catalog service accepts a bounded page size (limit, at most 100) and an
// offset, and answers with one page of items plus a total-count hint. This
// package turns that into three layers:
//
//   - Fetcher executes one query.Descriptor at a given limit/offset through a
//     Transport and decodes the body into a Page.
//   - Cursor owns the offset of one logical browse or search and decides when
//     the walk is exhausted.
//   - Stream yields items one at a time, fetching the next page only when the
//     current one is drained.
//
// Example usage:
//
//	fetcher := pagination.NewFetcher[entity.Release](transport, entity.NewDecoder[entity.Release]("release"))
//	cursor, err := pagination.NewCursor[entity.Release](fetcher, desc, nil, 0)
//	if err != nil {
//		return err
//	}
//	for release, err := range pagination.NewStream(cursor).All(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(release.Title)
//	}
//
// One page is in flight per cursor at any time; there is no prefetching and
// pages of one cursor are never fetched in parallel. BatchWalker runs several
// independent cursors concurrently against a shared Transport.
//
// FetchAsync and BlockingFetch cover callers that want a first page without a
// cursor, either as a Future or synchronously.
package pagination

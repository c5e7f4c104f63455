package tmdb

import (
	"context"
)

// API defines the catalog operations used by the session and the HTTP server
type API interface {
	// DiscoverMovies returns up to DiscoverLimit movies matching f
	DiscoverMovies(ctx context.Context, f FilterCriteria) []MediaRecord

	// DiscoverShows returns up to DiscoverLimit shows matching f
	DiscoverShows(ctx context.Context, f FilterCriteria) []MediaRecord

	MovieDetails(ctx context.Context, id int64) MediaRecord
	TVDetails(ctx context.Context, id int64) MediaRecord
	MovieCredits(ctx context.Context, id int64) MediaRecord
	MovieTrailer(ctx context.Context, id int64) MediaRecord

	Trending(ctx context.Context) []MediaRecord
	Popular(ctx context.Context) []MediaRecord
	NowPlaying(ctx context.Context) []MediaRecord
	TopRatedMovies(ctx context.Context) []MediaRecord
	TopRatedShows(ctx context.Context) []MediaRecord

	// TopRated returns one page of the top rated movies or shows
	TopRated(ctx context.Context, kind MediaKind, page int) Page

	// ClearCache drops every cached response
	ClearCache()

	// NetworkStatus reports the last observed health of the connection
	NetworkStatus(ctx context.Context) Status
}

var _ API = (*Client)(nil)

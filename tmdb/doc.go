// Package tmdb provides the catalog client for The Movie Database v3 API.
//
// # Architecture
//
// Every catalog read follows the same path:
//
//   - Client builds the endpoint URL with its query parameters in a fixed order
//   - the response cache is consulted by full URL
//   - on a miss, the fetcher retrieves the URL, escalating through mirrors,
//     relays and alternate headers when the network looks blocked
//   - a successful non-stale payload is decoded and cached
//
// Discovery picks a random page among the first 20 so repeated calls with the
// same filter surface different titles. The page count comes from a separate
// metadata request that skips the cache and the fetcher.
//
// # Usage
//
//	client, err := tmdb.NewClient(tmdb.DefaultBaseURL, token, logger,
//		tmdb.WithCache(cache.New(50, time.Minute)),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	movies := client.DiscoverMovies(ctx, tmdb.FilterCriteria{Industry: "Korean", Year: "2021"})
//
// # Error Handling
//
// Catalog operations never return errors. Failures are logged at warn level
// and produce an empty list or a nil record. NetworkStatus exposes whether the
// most recent failure was tagged as a regional block so a UI can show help.
package tmdb

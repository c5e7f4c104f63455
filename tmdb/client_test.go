package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/cache"
	"github.com/s0up4200/moviemate/fetcher"
	"github.com/s0up4200/moviemate/transport"
)

// recorder keeps the requests an httptest server received
type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

// pages returns the page parameter of every request that had one
func (r *recorder) pages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, req := range r.requests {
		if p := req.URL.Query().Get("page"); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func records(ids ...int) []map[string]any {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": id, "title": "Title " + strconv.Itoa(id)})
	}
	return out
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *recorder) {
	t.Helper()

	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	tr := transport.New(logger, transport.WithTimeout(2*time.Second))
	c := cache.New(20, time.Minute)
	f := fetcher.New(tr, nil, fetcher.Config{
		BaseURL:       srv.URL,
		BaseDelay:     time.Millisecond,
		StrategyDelay: time.Millisecond,
	}, logger, fetcher.WithStaleSource(c))

	base := []Option{
		WithCache(c),
		WithFetcher(f),
		WithMetaGetter(tr),
		WithRandom(func(int) int { return 0 }),
	}

	client, err := NewClient(srv.URL, "secret-token", logger, append(base, opts...)...)
	require.NoError(t, err)
	return client, rec
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(DefaultBaseURL, " ", zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDiscoverMovies_BollywoodQuery(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"page":        1,
			"total_pages": 1,
			"results":     records(1, 2, 3, 4, 5),
		})
	})

	got := client.DiscoverMovies(context.Background(), FilterCriteria{
		Industry: "Bollywood",
		Year:     "2020",
		Genre:    "18",
	})

	assert.Len(t, got, DiscoverLimit)
	require.NotZero(t, rec.count())

	req := rec.requests[len(rec.requests)-1]
	assert.Equal(t, "/discover/movie", req.URL.Path)
	assert.Contains(t, req.URL.RawQuery, "include_adult=false&sort_by=release_date.desc&with_original_language=hi&region=IN&primary_release_year=2020&with_genres=18")
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
	assert.Equal(t, UserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, "no-cache", req.Header.Get("Cache-Control"))
}

func TestDiscoverPaths(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "movie without filters",
			path: movieDiscoverPath(FilterCriteria{}),
			want: "/discover/movie?include_adult=false&sort_by=release_date.desc",
		},
		{
			name: "movie rating without industry is dropped",
			path: movieDiscoverPath(FilterCriteria{ContentRating: "PG-13", Year: "2019"}),
			want: "/discover/movie?include_adult=false&sort_by=release_date.desc&primary_release_year=2019",
		},
		{
			name: "movie rating with industry",
			path: movieDiscoverPath(FilterCriteria{Industry: "hollywood", ContentRating: "PG-13"}),
			want: "/discover/movie?include_adult=false&sort_by=release_date.desc&with_original_language=en&region=US&certification_country=US&certification=PG-13",
		},
		{
			name: "unknown industry is ignored",
			path: movieDiscoverPath(FilterCriteria{Industry: "Nollywood", Genre: "35"}),
			want: "/discover/movie?include_adult=false&sort_by=release_date.desc&with_genres=35",
		},
		{
			name: "tv ignores rating",
			path: tvDiscoverPath(FilterCriteria{Industry: "Korean", Year: "2021", Genre: "18", ContentRating: "15"}),
			want: "/discover/tv?include_adult=false&sort_by=first_air_date.desc&with_original_language=ko&with_origin_country=KR&first_air_date_year=2021&with_genres=18",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path)
		})
	}
}

func TestDiscoverShows_OriginCountryFilter(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"total_pages": 1,
			"results": []map[string]any{
				{"id": 10, "name": "Imported", "origin_country": []string{"US"}},
				{"id": 11, "name": "Local", "origin_country": []string{"KR"}},
			},
		})
	})

	got := client.DiscoverShows(context.Background(), FilterCriteria{Industry: "Korean"})
	require.Len(t, got, 1)

	id, ok := got[0].ID()
	require.True(t, ok)
	assert.EqualValues(t, 11, id)
	assert.Equal(t, "Local", got[0].Title())
}

func TestDiscover_RandomPageIsBounded(t *testing.T) {
	for _, total := range []int{50, 1000} {
		t.Run(strconv.Itoa(total), func(t *testing.T) {
			var gotN int
			client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, map[string]any{"total_pages": total, "results": records(1)})
			}, WithRandom(func(n int) int {
				gotN = n
				return n - 1
			}))

			client.DiscoverMovies(context.Background(), FilterCriteria{})
			assert.Equal(t, MaxRandomPage, gotN)
			assert.Equal(t, []string{"20"}, rec.pages())
		})
	}
}

func TestDiscover_DefaultRandomStaysInRange(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"total_pages": 50, "results": records(1)})
	}, WithRandom(rand.IntN))

	for range 25 {
		client.DiscoverMovies(context.Background(), FilterCriteria{})
	}

	for _, p := range rec.pages() {
		n, err := strconv.Atoi(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, MaxRandomPage)
	}
}

func TestDiscover_EmptyPageFallsBackToFirst(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			writeJSON(t, w, map[string]any{"total_pages": 8, "results": records(7)})
		case "5":
			writeJSON(t, w, map[string]any{"total_pages": 8, "results": []any{}})
		default:
			writeJSON(t, w, map[string]any{"total_pages": 8})
		}
	}, WithRandom(func(int) int { return 4 }))

	got := client.DiscoverMovies(context.Background(), FilterCriteria{Industry: "Japanese"})
	require.Len(t, got, 1)
	assert.Equal(t, []string{"5", "1"}, rec.pages())
}

func TestDiscover_MetadataFailureUsesFirstPage(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, map[string]any{"results": records(1, 2)})
	}, WithRandom(func(n int) int {
		assert.Equal(t, 1, n)
		return 0
	}))

	got := client.DiscoverMovies(context.Background(), FilterCriteria{})
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"1"}, rec.pages())
}

func TestMovieTrailer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/1/videos":
			writeJSON(t, w, map[string]any{"id": 1, "results": []map[string]any{
				{"id": "a", "type": "Teaser", "key": "teaser"},
				{"id": "b", "type": "Trailer", "key": "first"},
				{"id": "c", "type": "Trailer", "key": "second"},
			}})
		default:
			writeJSON(t, w, map[string]any{"id": 2, "results": []map[string]any{
				{"id": "d", "type": "Featurette", "key": "bts"},
			}})
		}
	})

	trailer := client.MovieTrailer(context.Background(), 1)
	require.NotNil(t, trailer)
	assert.Equal(t, "first", trailer.Key())

	assert.Nil(t, client.MovieTrailer(context.Background(), 2))
}

func TestDetails(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/550":
			writeJSON(t, w, map[string]any{"id": 550, "title": "Fight Club", "release_date": "1999-10-15"})
		case "/tv/1399":
			writeJSON(t, w, map[string]any{"id": 1399, "name": "Game of Thrones", "first_air_date": "2011-04-17"})
		case "/movie/550/credits":
			writeJSON(t, w, map[string]any{"id": 550, "cast": []any{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	movie := client.MovieDetails(ctx, 550)
	require.NotNil(t, movie)
	assert.Equal(t, "Fight Club", movie.Title())
	assert.Equal(t, "1999", movie.Year())
	assert.Equal(t, "language="+DefaultLanguage, rec.requests[0].URL.RawQuery)

	show := client.TVDetails(ctx, 1399)
	require.NotNil(t, show)
	assert.Equal(t, "2011", show.Year())

	assert.NotNil(t, client.MovieCredits(ctx, 550))
	assert.Nil(t, client.MovieDetails(ctx, 1))
}

func TestOperationsSwallowErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx := context.Background()

	assert.Empty(t, client.DiscoverMovies(ctx, FilterCriteria{Industry: "Korean"}))
	assert.NotNil(t, client.DiscoverShows(ctx, FilterCriteria{}))
	assert.Nil(t, client.MovieDetails(ctx, 1))
	assert.Nil(t, client.MovieTrailer(ctx, 1))

	trending := client.Trending(ctx)
	assert.NotNil(t, trending)
	assert.Empty(t, trending)

	page := client.TopRated(ctx, KindTV, 3)
	assert.Equal(t, Page{Results: []MediaRecord{}, Page: 1, TotalPages: 1}, page)

	status := client.NetworkStatus(ctx)
	assert.False(t, status.Blocked)
	assert.Contains(t, status.LastError, "HTTP 500")
}

func TestLists_UseCache(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"results": records(1, 2, 3, 4)})
	})
	ctx := context.Background()

	assert.Len(t, client.Trending(ctx), 4)
	assert.Len(t, client.Trending(ctx), 4)
	assert.Equal(t, 1, rec.count())

	client.ClearCache()
	client.Trending(ctx)
	assert.Equal(t, 2, rec.count())

	client.NowPlaying(ctx)
	last := rec.requests[rec.count()-1]
	assert.Equal(t, "/movie/now_playing", last.URL.Path)
	assert.Equal(t, "US", last.URL.Query().Get("region"))
}

func TestTopRated(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"page": 2, "total_pages": 9000, "results": records(1)})
	})

	page := client.TopRated(context.Background(), KindMovie, 2)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, MaxTotalPages, page.TotalPages)
	assert.Len(t, page.Results, 1)

	req := rec.requests[0]
	assert.Equal(t, "/movie/top_rated", req.URL.Path)
	assert.Equal(t, "2", req.URL.Query().Get("page"))

	client.TopRated(context.Background(), KindTV, 0)
	assert.Equal(t, "1", rec.requests[1].URL.Query().Get("page"))
}

// fakeFetcher returns queued results in order
type fakeFetcher struct {
	results []*fetcher.Result
	errs    []error
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, header http.Header) (*fetcher.Result, error) {
	i := f.calls
	f.calls++
	return f.results[i], f.errs[i]
}

func newFakeClient(t *testing.T, f *fakeFetcher, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithFetcher(f), WithMetaGetter(failingGetter{})}
	client, err := NewClient("https://api.example.org/3", "token", zerolog.Nop(), append(base, opts...)...)
	require.NoError(t, err)
	return client
}

type failingGetter struct{}

func (failingGetter) Get(context.Context, string, http.Header) (*transport.Response, error) {
	return nil, errors.New("unused")
}

func TestNetworkStatus_BlockedUntilSuccess(t *testing.T) {
	f := &fakeFetcher{
		results: []*fetcher.Result{nil, {Body: []byte(`{"results":[{"id":1}]}`), Strategy: fetcher.StrategyProxy}},
		errs:    []error{blocking.Tag(&fetcher.FetchExhaustedError{Rounds: 6, Last: errors.New("connection refused")}), nil},
	}
	client := newFakeClient(t, f)
	ctx := context.Background()

	assert.Empty(t, client.Popular(ctx))
	status := client.NetworkStatus(ctx)
	assert.True(t, status.Blocked)
	assert.Equal(t, blocking.RemediationMessage, status.Message)
	assert.NotEmpty(t, status.Help)

	assert.Len(t, client.Popular(ctx), 1)
	assert.False(t, client.NetworkStatus(ctx).Blocked)
}

func TestNetworkStatus_SuspectNetworkFromContext(t *testing.T) {
	client := newFakeClient(t, &fakeFetcher{})

	ctx := blocking.WithHints(context.Background(), blocking.Hints{UserAgent: "Mozilla/5.0 JioBrowser"})
	status := client.NetworkStatus(ctx)
	assert.True(t, status.SuspectNetwork)
	assert.False(t, status.Blocked)
	assert.NotEmpty(t, status.Help)

	assert.False(t, client.NetworkStatus(context.Background()).SuspectNetwork)
}

func TestStaleResultsAreNotCached(t *testing.T) {
	stale := &fetcher.Result{Body: []byte(`{"results":[{"id":1},{"id":2}]}`), Strategy: fetcher.StrategyStale, Stale: true}
	f := &fakeFetcher{
		results: []*fetcher.Result{stale, stale},
		errs:    []error{nil, nil},
	}
	client := newFakeClient(t, f)
	ctx := context.Background()

	assert.Len(t, client.TopRatedMovies(ctx), 2)
	assert.True(t, client.NetworkStatus(ctx).Stale)

	client.TopRatedMovies(ctx)
	assert.Equal(t, 2, f.calls)
}

func TestStaleBlockedResultSetsBlockedStatus(t *testing.T) {
	stale := &fetcher.Result{
		Body:     []byte(`{"results":[{"id":1}]}`),
		Strategy: fetcher.StrategyStale,
		Stale:    true,
		Blocked:  true,
	}
	fresh := &fetcher.Result{Body: []byte(`{"results":[{"id":1}]}`), Strategy: fetcher.StrategyDirect}
	f := &fakeFetcher{
		results: []*fetcher.Result{stale, fresh},
		errs:    []error{nil, nil},
	}
	client := newFakeClient(t, f)
	ctx := context.Background()

	assert.Len(t, client.Popular(ctx), 1)
	status := client.NetworkStatus(ctx)
	assert.True(t, status.Stale)
	assert.True(t, status.Blocked)
	assert.Equal(t, blocking.RemediationMessage, status.Message)
	assert.NotEmpty(t, status.Help)

	client.Popular(ctx)
	status = client.NetworkStatus(ctx)
	assert.False(t, status.Stale)
	assert.False(t, status.Blocked)
}

func TestMediaRecordAccessors(t *testing.T) {
	var rec MediaRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 42,
		"name": "Show",
		"first_air_date": "2021-09-17",
		"vote_average": 7.9,
		"origin_country": ["KR", 3],
		"genres": [{"id": 18, "name": "Drama"}, {"id": 9648}]
	}`), &rec))

	id, ok := rec.ID()
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, "Show", rec.Title())
	assert.Equal(t, "2021", rec.Year())
	assert.InDelta(t, 7.9, rec.VoteAverage(), 0.001)
	assert.Equal(t, []string{"KR"}, rec.OriginCountries())
	assert.True(t, rec.HasOriginCountry("kr"))
	assert.Equal(t, []int{18, 9648}, rec.GenreIDs())

	_, ok = MediaRecord{"id": "x"}.ID()
	assert.False(t, ok)
	assert.Empty(t, MediaRecord{"release_date": "20"}.Year())
}

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		in   string
		want MediaKind
		ok   bool
	}{
		{"movies", KindMovie, true},
		{"Movie", KindMovie, true},
		{"tv", KindTV, true},
		{"shows", KindTV, true},
		{"anime", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMediaKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

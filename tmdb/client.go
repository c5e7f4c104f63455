package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/cache"
	"github.com/s0up4200/moviemate/fetcher"
	"github.com/s0up4200/moviemate/transport"
)

const (
	// DefaultBaseURL is the public TMDB v3 API
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultLanguage is sent with detail and list requests
	DefaultLanguage = "en-US"
	// UserAgent identifies the client to the API
	UserAgent = "MovieMate/1.0"

	// DiscoverLimit caps the number of discovery results returned
	DiscoverLimit = 3
	// MaxRandomPage bounds the random page picked for discovery
	MaxRandomPage = 20
	// MaxTotalPages is the highest page the API will serve
	MaxTotalPages = 500

	metaTimeout    = 10 * time.Second
	metaMaxRetries = 3
)

// Fetcher retrieves a URL, escalating through workarounds when blocked
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (*fetcher.Result, error)
}

// Client is the TMDB catalog client. Its operations never return errors: a
// failure is logged, recorded for NetworkStatus and yields an empty result.
type Client struct {
	baseURL  string
	token    string
	language string
	header   http.Header

	cache    *cache.Cache
	fetcher  Fetcher
	meta     transport.Getter
	detector *blocking.Detector
	intN     func(n int) int
	logger   zerolog.Logger

	mu     sync.Mutex
	status Status
}

// NewClient creates a catalog client. Components not supplied through options
// are built with their defaults.
func NewClient(baseURL, token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: bearer token is required", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:  baseURL,
		token:    token,
		language: DefaultLanguage,
		intN:     rand.IntN,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil {
		c.cache = cache.New(cache.DefaultCapacity, cache.DefaultTTL)
	}
	if c.detector == nil {
		c.detector = blocking.NewDetector(nil, blocking.Hints{})
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.New(
			transport.New(logger),
			c.detector,
			fetcher.DefaultConfig(baseURL),
			logger,
			fetcher.WithStaleSource(c.cache),
		)
	}
	if c.meta == nil {
		c.meta = transport.New(logger,
			transport.WithTimeout(metaTimeout),
			transport.WithMaxRetries(metaMaxRetries),
		)
	}

	c.header = http.Header{}
	c.header.Set("Authorization", "Bearer "+token)
	c.header.Set("Accept", "application/json")
	c.header.Set("User-Agent", UserAgent)

	return c, nil
}

// Ping checks that the API is reachable and the token is accepted.
// Unlike the catalog operations it returns the error.
func (c *Client) Ping(ctx context.Context) (string, error) {
	res, err := c.fetcher.Fetch(ctx, c.baseURL+"/authentication", c.header)
	if err != nil {
		c.recordFailure(err)
		return "", err
	}
	c.recordSuccess(res)
	return res.Strategy, nil
}

// fetchJSON serves endpoint from cache or the fetcher and decodes it into v
func (c *Client) fetchJSON(ctx context.Context, endpoint string, v any) error {
	u := c.baseURL + endpoint

	if body, ok := c.cache.Get(u); ok {
		if err := json.Unmarshal(body, v); err == nil {
			return nil
		}
	}

	res, err := c.fetcher.Fetch(ctx, u, c.header)
	if err != nil {
		c.recordFailure(err)
		return err
	}
	c.recordSuccess(res)

	if err := json.Unmarshal(res.Body, v); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", endpoint, err)
	}

	if !res.Stale {
		c.cache.Set(u, res.Body)
	}
	return nil
}

// totalPages asks for the page count of a discovery query, bypassing cache
func (c *Client) totalPages(ctx context.Context, endpoint string) int {
	resp, err := c.meta.Get(ctx, c.baseURL+endpoint, c.header)
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Could not fetch total pages, using page 1")
		return 1
	}

	var lr listResponse
	if err := json.Unmarshal(resp.Body, &lr); err != nil {
		return 1
	}
	return max(1, min(lr.TotalPages, MaxTotalPages))
}

func (c *Client) randomPage(ctx context.Context, endpoint string) int {
	total := c.totalPages(ctx, endpoint)
	return c.intN(min(total, MaxRandomPage)) + 1
}

// discover fetches a random page of endpoint, falling back to page 1 when the
// random page has nothing that passes keep
func (c *Client) discover(ctx context.Context, endpoint string, keep func(MediaRecord) bool) ([]MediaRecord, error) {
	page := c.randomPage(ctx, endpoint)

	var resp listResponse
	if err := c.fetchJSON(ctx, withPage(endpoint, page), &resp); err != nil {
		return nil, err
	}
	results := keepRecords(resp.records(), keep)

	if len(results) == 0 {
		c.logger.Debug().Int("page", page).Str("endpoint", endpoint).Msg("Random page was empty, falling back to page 1")

		var first listResponse
		if err := c.fetchJSON(ctx, withPage(endpoint, 1), &first); err != nil {
			return nil, err
		}
		results = keepRecords(first.records(), keep)
	}

	if len(results) > DiscoverLimit {
		results = results[:DiscoverLimit]
	}
	return results, nil
}

// DiscoverMovies returns up to DiscoverLimit movies matching f
func (c *Client) DiscoverMovies(ctx context.Context, f FilterCriteria) []MediaRecord {
	results, err := c.discover(ctx, movieDiscoverPath(f), nil)
	if err != nil {
		c.logger.Warn().Err(err).Interface("filter", f).Msg("Error fetching movies")
		return []MediaRecord{}
	}
	return results
}

// DiscoverShows returns up to DiscoverLimit shows matching f. When an industry
// is set, only shows listing its region as an origin country are kept.
func (c *Client) DiscoverShows(ctx context.Context, f FilterCriteria) []MediaRecord {
	var keep func(MediaRecord) bool
	if ind, ok := LookupIndustry(f.Industry); ok {
		keep = func(m MediaRecord) bool { return m.HasOriginCountry(ind.Region) }
	}

	results, err := c.discover(ctx, tvDiscoverPath(f), keep)
	if err != nil {
		c.logger.Warn().Err(err).Interface("filter", f).Msg("Error fetching TV shows")
		return []MediaRecord{}
	}
	return results
}

// MovieDetails returns the full movie record, or nil
func (c *Client) MovieDetails(ctx context.Context, id int64) MediaRecord {
	return c.detail(ctx, fmt.Sprintf("/movie/%d?language=%s", id, c.language), "movie details")
}

// TVDetails returns the full show record, or nil
func (c *Client) TVDetails(ctx context.Context, id int64) MediaRecord {
	return c.detail(ctx, fmt.Sprintf("/tv/%d?language=%s", id, c.language), "TV details")
}

// MovieCredits returns the cast and crew record of a movie, or nil
func (c *Client) MovieCredits(ctx context.Context, id int64) MediaRecord {
	return c.detail(ctx, fmt.Sprintf("/movie/%d/credits?language=%s", id, c.language), "movie credits")
}

// MovieTrailer returns the first video of type Trailer, or nil
func (c *Client) MovieTrailer(ctx context.Context, id int64) MediaRecord {
	var resp listResponse
	if err := c.fetchJSON(ctx, fmt.Sprintf("/movie/%d/videos?language=%s", id, c.language), &resp); err != nil {
		c.logger.Warn().Err(err).Int64("id", id).Msg("Error fetching movie trailer")
		return nil
	}

	for _, v := range resp.Results {
		if v.Type() == "Trailer" {
			return v
		}
	}
	return nil
}

func (c *Client) detail(ctx context.Context, endpoint, what string) MediaRecord {
	var rec MediaRecord
	if err := c.fetchJSON(ctx, endpoint, &rec); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msgf("Error fetching %s", what)
		return nil
	}
	if _, ok := rec.ID(); !ok {
		c.logger.Warn().Err(ErrMissingID).Str("endpoint", endpoint).Msgf("Error fetching %s", what)
		return nil
	}
	return rec
}

// Trending returns today's trending movies
func (c *Client) Trending(ctx context.Context) []MediaRecord {
	return c.list(ctx, "/trending/movie/day?language="+c.language, "trending movies")
}

// Popular returns the popular movies
func (c *Client) Popular(ctx context.Context) []MediaRecord {
	return c.list(ctx, "/movie/popular?language="+c.language, "popular movies")
}

// NowPlaying returns the movies currently in US theatres
func (c *Client) NowPlaying(ctx context.Context) []MediaRecord {
	return c.list(ctx, "/movie/now_playing?language="+c.language+"&region=US", "now playing movies")
}

// TopRatedMovies returns the first page of top rated movies
func (c *Client) TopRatedMovies(ctx context.Context) []MediaRecord {
	return c.list(ctx, "/movie/top_rated?language="+c.language, "top rated movies")
}

// TopRatedShows returns the first page of top rated shows
func (c *Client) TopRatedShows(ctx context.Context) []MediaRecord {
	return c.list(ctx, "/tv/top_rated?language="+c.language, "top rated TV shows")
}

func (c *Client) list(ctx context.Context, endpoint, what string) []MediaRecord {
	var resp listResponse
	if err := c.fetchJSON(ctx, endpoint, &resp); err != nil {
		c.logger.Warn().Err(err).Msgf("Error fetching %s", what)
		return []MediaRecord{}
	}
	return resp.records()
}

// TopRated returns one page of top rated movies or shows. On failure it
// returns an empty first page.
func (c *Client) TopRated(ctx context.Context, kind MediaKind, page int) Page {
	if page < 1 {
		page = 1
	}
	page = min(page, MaxTotalPages)

	endpoint := "/" + string(kind) + "/top_rated?language=" + c.language + "&page=" + strconv.Itoa(page)

	var resp listResponse
	if err := c.fetchJSON(ctx, endpoint, &resp); err != nil {
		c.logger.Warn().Err(err).Str("kind", string(kind)).Int("page", page).Msg("Error fetching top rated page")
		return Page{Results: []MediaRecord{}, Page: 1, TotalPages: 1}
	}

	return Page{
		Results:    resp.records(),
		Page:       max(resp.Page, 1),
		TotalPages: max(1, min(resp.TotalPages, MaxTotalPages)),
	}
}

// ClearCache drops every cached response. Stale copies are kept for the
// fetcher's last-resort fallback.
func (c *Client) ClearCache() {
	c.cache.Clear()
	c.logger.Debug().Msg("Response cache cleared")
}

// NetworkStatus reports whether the last terminal failure looked like a
// regional block, and whether the caller is on a suspect network
func (c *Client) NetworkStatus(ctx context.Context) Status {
	c.mu.Lock()
	s := c.status
	c.mu.Unlock()

	s.SuspectNetwork = c.detector.IsOnSuspectNetworkContext(ctx)
	if s.Blocked || s.SuspectNetwork {
		s.Help = blocking.HelpMessage()
	}
	return s
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.LastError = err.Error()
	if blocking.IsRegionalBlock(err) {
		c.status.Blocked = true
		c.status.Message = blocking.RemediationMessage
	}
}

func (c *Client) recordSuccess(res *fetcher.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !res.Stale {
		c.status = Status{}
		return
	}

	c.status.Stale = true
	if res.Blocked {
		c.status.Blocked = true
		c.status.Message = blocking.RemediationMessage
	}
}

func keepRecords(records []MediaRecord, keep func(MediaRecord) bool) []MediaRecord {
	if keep == nil {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

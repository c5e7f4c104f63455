package fetcher

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/transport"
)

const (
	baseURL   = "https://api.example.org/3"
	directURL = baseURL + "/discover/movie?page=2"
)

type call struct {
	url    string
	header http.Header
}

// scriptedGetter answers with respond and records every request
type scriptedGetter struct {
	respond func(url string, header http.Header) (*transport.Response, error)
	calls   []call
}

func (g *scriptedGetter) Get(ctx context.Context, url string, header http.Header) (*transport.Response, error) {
	g.calls = append(g.calls, call{url: url, header: header.Clone()})
	return g.respond(url, header)
}

func (g *scriptedGetter) urls() []string {
	out := make([]string, len(g.calls))
	for i, c := range g.calls {
		out[i] = c.url
	}
	return out
}

func ok(body string) (*transport.Response, error) {
	return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func blockedErr() error {
	return &transport.NetworkError{Err: errors.New("connection refused")}
}

func testConfig() Config {
	return Config{
		BaseURL:       baseURL,
		Mirrors:       []string{"https://mirror-a.example/3", "https://mirror-b.example/3"},
		Proxies:       []string{"https://relay-a.example/", "https://relay-b.example/raw?url="},
		MaxRetries:    0,
		BaseDelay:     time.Millisecond,
		StrategyDelay: time.Millisecond,
	}
}

func newTestFetcher(g transport.Getter, cfg Config, opts ...Option) *Fetcher {
	return New(g, blocking.NewDetector(nil, blocking.Hints{}), cfg, zerolog.Nop(), opts...)
}

func TestFetch_DirectSuccess(t *testing.T) {
	g := &scriptedGetter{respond: func(string, http.Header) (*transport.Response, error) {
		return ok(`{"results":[]}`)
	}}

	res, err := newTestFetcher(g, testConfig()).Fetch(context.Background(), directURL, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, res.Strategy)
	assert.False(t, res.Stale)
	assert.Len(t, g.calls, 1)
}

func TestFetch_NonBlockedFailureShortCircuits(t *testing.T) {
	statusErr := &transport.HTTPError{StatusCode: http.StatusInternalServerError}
	g := &scriptedGetter{respond: func(string, http.Header) (*transport.Response, error) {
		return nil, statusErr
	}}

	_, err := newTestFetcher(g, testConfig()).Fetch(context.Background(), directURL, nil)
	assert.Same(t, statusErr, err)
	assert.Len(t, g.calls, 1, "no strategy should run")
}

func TestFetch_EscalationOrder(t *testing.T) {
	var direct int
	g := &scriptedGetter{respond: func(url string, header http.Header) (*transport.Response, error) {
		if url == directURL && header.Get("Sec-Fetch-Mode") == "" {
			direct++
			if direct == 2 {
				return ok(`{"page":2}`)
			}
		}
		return nil, blockedErr()
	}}

	res, err := newTestFetcher(g, testConfig()).Fetch(context.Background(), directURL, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyDelayed, res.Strategy)
	assert.JSONEq(t, `{"page":2}`, string(res.Body))

	encoded := "https%3A%2F%2Fapi.example.org%2F3%2Fdiscover%2Fmovie%3Fpage%3D2"
	assert.Equal(t, []string{
		directURL,
		"https://mirror-a.example/3/discover/movie?page=2",
		"https://mirror-b.example/3/discover/movie?page=2",
		"https://relay-a.example/" + encoded,
		"https://relay-b.example/raw?url=" + encoded,
		directURL,
		directURL,
	}, g.urls())

	assert.Equal(t, "XMLHttpRequest", g.calls[3].header.Get("X-Requested-With"))
	assert.Equal(t, "cors", g.calls[5].header.Get("Sec-Fetch-Mode"))
	assert.Empty(t, g.calls[6].header.Get("Sec-Fetch-Mode"))
}

func TestFetch_StopsAtFirstSuccess(t *testing.T) {
	g := &scriptedGetter{respond: func(url string, header http.Header) (*transport.Response, error) {
		if strings.HasPrefix(url, "https://relay-a.example/") {
			return ok(`{"via":"relay"}`)
		}
		return nil, blockedErr()
	}}

	res, err := newTestFetcher(g, testConfig()).Fetch(context.Background(), directURL, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyProxy, res.Strategy)
	assert.Len(t, g.calls, 4, "direct, two mirrors, first relay")
}

func TestFetch_MirrorSuccess(t *testing.T) {
	g := &scriptedGetter{respond: func(url string, header http.Header) (*transport.Response, error) {
		if strings.HasPrefix(url, "https://mirror-b.example/") {
			return ok(`{}`)
		}
		return nil, &transport.TimeoutError{Timeout: 8 * time.Second}
	}}

	res, err := newTestFetcher(g, testConfig()).Fetch(context.Background(), directURL, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyAlternativeEndpoints, res.Strategy)
	assert.Len(t, g.calls, 3)
}

func TestFetch_SuspectNetworkEscalatesAnyFailure(t *testing.T) {
	g := &scriptedGetter{respond: func(url string, header http.Header) (*transport.Response, error) {
		if strings.HasPrefix(url, "https://mirror-a.example/") {
			return ok(`{}`)
		}
		return nil, &transport.HTTPError{StatusCode: http.StatusServiceUnavailable}
	}}

	ctx := blocking.WithHints(context.Background(), blocking.Hints{UserAgent: "JioPages/3.0"})
	res, err := newTestFetcher(g, testConfig()).Fetch(ctx, directURL, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyAlternativeEndpoints, res.Strategy)
}

func TestFetch_Exhausted(t *testing.T) {
	g := &scriptedGetter{respond: func(string, http.Header) (*transport.Response, error) {
		return nil, blockedErr()
	}}

	cfg := testConfig()
	cfg.MaxRetries = 2

	_, err := newTestFetcher(g, cfg).Fetch(context.Background(), directURL, nil)
	require.Error(t, err)

	assert.True(t, blocking.IsRegionalBlock(err))
	var exhausted *FetchExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Rounds)
	assert.Contains(t, err.Error(), "VPN")

	perRound := len(cfg.Mirrors) + len(cfg.Proxies) + 2
	assert.Len(t, g.calls, 1+3*perRound)
}

func TestFetch_ExhaustedServesStale(t *testing.T) {
	g := &scriptedGetter{respond: func(string, http.Header) (*transport.Response, error) {
		return nil, blockedErr()
	}}
	stale := staleMap{directURL: []byte(`{"old":true}`)}

	res, err := newTestFetcher(g, testConfig(), WithStaleSource(stale)).Fetch(context.Background(), directURL, nil)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.True(t, res.Blocked)
	assert.Equal(t, StrategyStale, res.Strategy)
	assert.JSONEq(t, `{"old":true}`, string(res.Body))
}

func TestFetch_ContextCancelledStopsEscalation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := &scriptedGetter{respond: func(url string, header http.Header) (*transport.Response, error) {
		cancel()
		return nil, blockedErr()
	}}

	cfg := testConfig()
	cfg.MaxRetries = 5

	_, err := newTestFetcher(g, cfg).Fetch(ctx, directURL, nil)
	require.Error(t, err)
	assert.Len(t, g.calls, 2, "direct and the first mirror only")
}

type staleMap map[string][]byte

func (s staleMap) Stale(key string) ([]byte, bool) {
	v, ok := s[key]
	return v, ok
}

func TestRelativePath(t *testing.T) {
	f := newTestFetcher(&scriptedGetter{}, testConfig())

	tests := []struct {
		raw  string
		want string
	}{
		{baseURL + "/movie/1?language=en-US", "/movie/1?language=en-US"},
		{"https://mirror-b.example/3/tv/5", "/tv/5"},
		{"https://other.example/3/movie/1?x=1", "/3/movie/1?x=1"},
		{"https://api.example.org/30/movie", "/30/movie"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, f.relativePath(tt.raw))
		})
	}
}

func TestEncodeURIComponent(t *testing.T) {
	assert.Equal(t, "https%3A%2F%2Fa.example%2Fx%3Fq%3Da%20b%26c%3D1", encodeURIComponent("https://a.example/x?q=a b&c=1"))
}

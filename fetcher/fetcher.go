// Package fetcher wraps the catalog transport with an escalating recovery
// chain for networks that interfere with the API.
//
// A direct request is always tried first. Only when it fails in a way that
// looks like blocking, or the client is on a suspect network, does the fetcher
// walk an ordered list of strategies: mirror endpoints, CORS relay proxies,
// alternate headers and finally a delayed retry. The list is repeated with a
// growing backoff until the retry budget runs out.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/transport"
)

// Strategy names reported in Result.Strategy
const (
	StrategyDirect               = "direct"
	StrategyAlternativeEndpoints = "alternative-endpoints"
	StrategyProxy                = "proxy-relay"
	StrategyHeaders              = "header-variation"
	StrategyDelayed              = "delayed-retry"
	StrategyStale                = "stale-cache"
)

// Defaults for Config
const (
	DefaultMaxRetries    = 5
	DefaultBaseDelay     = time.Second
	DefaultStrategyDelay = 2 * time.Second
)

// DefaultMirrors are base URLs believed to serve the same catalog data
var DefaultMirrors = []string{
	"https://api.themoviedb.org/3",
	"https://api.tmdb.org/3",
	"https://tmdb-api.vercel.app/3",
}

// DefaultProxies are public relays that take a percent-encoded target URL as suffix
var DefaultProxies = []string{
	"https://cors-anywhere.herokuapp.com/",
	"https://api.allorigins.win/raw?url=",
	"https://corsproxy.io/?",
}

// Config controls the escalation chain
type Config struct {
	// BaseURL is the primary API base; it is stripped to build mirror paths
	BaseURL       string
	Mirrors       []string
	Proxies       []string
	MaxRetries    int
	BaseDelay     time.Duration
	StrategyDelay time.Duration
}

// DefaultConfig returns the stock escalation settings for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Mirrors:       DefaultMirrors,
		Proxies:       DefaultProxies,
		MaxRetries:    DefaultMaxRetries,
		BaseDelay:     DefaultBaseDelay,
		StrategyDelay: DefaultStrategyDelay,
	}
}

// StaleSource provides the last known payload for a URL, however old
type StaleSource interface {
	Stale(key string) ([]byte, bool)
}

// Result is the body of a successful fetch and how it was obtained
type Result struct {
	Body     []byte
	Strategy string
	// Stale is set when the body came from cache after every strategy failed
	Stale bool
	// Blocked is set on a stale result when the failure looked like a
	// regional block
	Blocked bool
}

// attempt is threaded through the strategies of one logical fetch
type attempt struct {
	URL           string
	Header        http.Header
	RetriesLeft   int
	StrategyIndex int
}

type strategy struct {
	name string
	run  func(ctx context.Context, a *attempt) (*transport.Response, error)
}

// Fetcher executes catalog requests with blocking-aware escalation
type Fetcher struct {
	getter   transport.Getter
	detector *blocking.Detector
	stale    StaleSource
	cfg      Config
	logger   zerolog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithStaleSource enables the stale-but-present fallback on terminal failure
func WithStaleSource(s StaleSource) Option {
	return func(f *Fetcher) {
		f.stale = s
	}
}

// New creates a Fetcher. A nil detector uses the default carrier markers.
func New(getter transport.Getter, detector *blocking.Detector, cfg Config, logger zerolog.Logger, opts ...Option) *Fetcher {
	if detector == nil {
		detector = blocking.NewDetector(nil, blocking.Hints{})
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	f := &Fetcher{
		getter:   getter,
		detector: detector,
		cfg:      cfg,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves url. A failure that does not look like blocking is returned
// unchanged without trying any other strategy.
func (f *Fetcher) Fetch(ctx context.Context, url string, header http.Header) (*Result, error) {
	resp, err := f.getter.Get(ctx, url, header)
	if err == nil {
		return &Result{Body: resp.Body, Strategy: StrategyDirect}, nil
	}

	suspect := f.detector.IsOnSuspectNetworkContext(ctx)
	if !blocking.LooksBlocked(err) && !suspect {
		return nil, err
	}

	f.logger.Warn().
		Err(err).
		Str("url", url).
		Bool("suspect_network", suspect).
		Msg("Direct fetch failed, trying workaround strategies")

	result, rounds, lastErr := f.escalate(ctx, &attempt{
		URL:         url,
		Header:      header,
		RetriesLeft: f.cfg.MaxRetries,
	})
	if lastErr == nil {
		return result, nil
	}

	blocked := blocking.LooksBlocked(lastErr) || suspect

	if f.stale != nil {
		if body, ok := f.stale.Stale(url); ok {
			f.logger.Warn().
				Err(lastErr).
				Str("url", url).
				Bool("blocked", blocked).
				Msg("All strategies failed, serving stale cached data")
			return &Result{Body: body, Strategy: StrategyStale, Stale: true, Blocked: blocked}, nil
		}
	}

	exhausted := &FetchExhaustedError{URL: url, Rounds: rounds, Last: lastErr}
	if blocked {
		return nil, blocking.Tag(exhausted)
	}
	return nil, exhausted
}

// strategies returns the escalation chain, cheapest first
func (f *Fetcher) strategies() []strategy {
	return []strategy{
		{name: StrategyAlternativeEndpoints, run: f.tryAlternativeEndpoints},
		{name: StrategyProxy, run: f.tryProxies},
		{name: StrategyHeaders, run: f.tryAlternateHeaders},
		{name: StrategyDelayed, run: f.tryDelayed},
	}
}

func (f *Fetcher) escalate(ctx context.Context, a *attempt) (*Result, int, error) {
	strategies := f.strategies()

	var lastErr error
	round := 0
	for {
		round++
		for i, s := range strategies {
			a.StrategyIndex = i

			resp, err := s.run(ctx, a)
			if err == nil {
				f.logger.Info().
					Str("strategy", s.name).
					Int("round", round).
					Str("url", a.URL).
					Msg("Workaround strategy succeeded")
				return &Result{Body: resp.Body, Strategy: s.name}, round, nil
			}
			lastErr = err

			f.logger.Debug().
				Err(err).
				Str("strategy", s.name).
				Int("round", round).
				Msg("Workaround strategy failed")

			if ctx.Err() != nil {
				return nil, round, lastErr
			}
		}

		if a.RetriesLeft <= 0 {
			return nil, round, lastErr
		}

		backoff := f.cfg.BaseDelay * time.Duration(f.cfg.MaxRetries-a.RetriesLeft+1)
		a.RetriesLeft--

		f.logger.Info().
			Int("retries_left", a.RetriesLeft).
			Dur("backoff", backoff).
			Msg("Retrying workaround strategies")

		if err := transport.Sleep(ctx, backoff); err != nil {
			return nil, round, lastErr
		}
	}
}

func (f *Fetcher) tryAlternativeEndpoints(ctx context.Context, a *attempt) (*transport.Response, error) {
	return transport.FetchAcrossEndpoints(ctx, f.logger, f.getter, f.cfg.Mirrors, f.relativePath(a.URL), a.Header)
}

func (f *Fetcher) tryProxies(ctx context.Context, a *attempt) (*transport.Response, error) {
	if len(f.cfg.Proxies) == 0 {
		return nil, errors.New("no proxies configured")
	}

	header := cloneHeader(a.Header)
	header.Set("X-Requested-With", "XMLHttpRequest")

	var lastErr error
	for _, proxy := range f.cfg.Proxies {
		resp, err := f.getter.Get(ctx, proxy+encodeURIComponent(a.URL), header)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("all proxies failed: %w", lastErr)
}

func (f *Fetcher) tryAlternateHeaders(ctx context.Context, a *attempt) (*transport.Response, error) {
	header := cloneHeader(a.Header)
	header.Set("Accept", "application/json, text/plain, */*")
	header.Set("Accept-Language", "en-US,en;q=0.9")
	header.Set("Connection", "keep-alive")
	header.Set("Sec-Fetch-Dest", "empty")
	header.Set("Sec-Fetch-Mode", "cors")
	header.Set("Sec-Fetch-Site", "cross-site")

	return f.getter.Get(ctx, a.URL, header)
}

func (f *Fetcher) tryDelayed(ctx context.Context, a *attempt) (*transport.Response, error) {
	if err := transport.Sleep(ctx, f.cfg.StrategyDelay); err != nil {
		return nil, err
	}
	return f.getter.Get(ctx, a.URL, a.Header)
}

// relativePath strips a known base URL from raw, keeping path and query
func (f *Fetcher) relativePath(raw string) string {
	bases := append([]string{f.cfg.BaseURL}, f.cfg.Mirrors...)
	for _, base := range bases {
		base = strings.TrimRight(base, "/")
		if base == "" || !strings.HasPrefix(raw, base) {
			continue
		}
		rest := raw[len(base):]
		if rest == "" || rest[0] == '/' || rest[0] == '?' {
			return rest
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.RequestURI()
}

// encodeURIComponent escapes s so it can be appended to a relay URL
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

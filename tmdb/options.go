package tmdb

import (
	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/cache"
	"github.com/s0up4200/moviemate/transport"
)

// Option configures a Client
type Option func(*Client)

// WithCache sets the response cache shared with the fetcher's stale fallback
func WithCache(c *cache.Cache) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithFetcher sets the blocking-aware fetcher used for catalog data
func WithFetcher(f Fetcher) Option {
	return func(cl *Client) {
		cl.fetcher = f
	}
}

// WithMetaGetter sets the getter used for total_pages lookups
func WithMetaGetter(g transport.Getter) Option {
	return func(cl *Client) {
		cl.meta = g
	}
}

// WithDetector sets the detector consulted by NetworkStatus
func WithDetector(d *blocking.Detector) Option {
	return func(cl *Client) {
		cl.detector = d
	}
}

// WithLanguage sets the language parameter of detail and list requests
func WithLanguage(lang string) Option {
	return func(cl *Client) {
		if lang != "" {
			cl.language = lang
		}
	}
}

// WithRandom replaces the page picker; intN must return a value in [0, n)
func WithRandom(intN func(n int) int) Option {
	return func(cl *Client) {
		if intN != nil {
			cl.intN = intN
		}
	}
}

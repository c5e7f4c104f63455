package cmd

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/cache"
	"github.com/s0up4200/moviemate/config"
	"github.com/s0up4200/moviemate/fetcher"
	"github.com/s0up4200/moviemate/tmdb"
	"github.com/s0up4200/moviemate/transport"
)

// total_pages lookups get their own, more patient transport
const (
	metaTimeout    = 10 * time.Second
	metaMaxRetries = 3
)

// newCatalog wires the cache, transport, blocking detector and fetcher into a
// catalog client
func newCatalog(cfg *config.Config, logger zerolog.Logger) (*tmdb.Client, error) {
	responses := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL)

	detector := blocking.NewDetector(cfg.Network.SuspectIndicators, blocking.Hints{
		UserAgent:      cfg.Network.UserAgentHint,
		ConnectionType: cfg.Network.ConnectionType,
	})

	getter := transport.New(logger.With().Str("component", "transport").Logger(),
		transport.WithTimeout(cfg.Network.Timeout),
	)

	f := fetcher.New(getter, detector, fetcher.Config{
		BaseURL:       cfg.TMDB.BaseURL,
		Mirrors:       cfg.TMDB.Mirrors,
		Proxies:       cfg.Network.Proxies,
		MaxRetries:    cfg.Network.MaxRetries,
		BaseDelay:     cfg.Network.BaseDelay,
		StrategyDelay: cfg.Network.StrategyDelay,
	}, logger.With().Str("component", "fetcher").Logger(), fetcher.WithStaleSource(responses))

	meta := transport.New(logger,
		transport.WithTimeout(metaTimeout),
		transport.WithMaxRetries(metaMaxRetries),
	)

	return tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.BearerToken, logger,
		tmdb.WithCache(responses),
		tmdb.WithFetcher(f),
		tmdb.WithMetaGetter(meta),
		tmdb.WithDetector(detector),
		tmdb.WithLanguage(cfg.TMDB.Language),
	)
}

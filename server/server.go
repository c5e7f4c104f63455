// Package server exposes the catalog and the recommendation session over a
// small JSON HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/s0up4200/moviemate/session"
	"github.com/s0up4200/moviemate/tmdb"
)

// DefaultRequestTimeout bounds a single API request, including any
// escalation the fetcher goes through
const DefaultRequestTimeout = 60 * time.Second

// Server holds the dependencies of the HTTP handlers
type Server struct {
	logger         zerolog.Logger
	catalog        tmdb.API
	session        *session.Session
	version        string
	requestTimeout time.Duration
}

// NewServer creates a server. A zero timeout uses DefaultRequestTimeout.
func NewServer(logger zerolog.Logger, catalog tmdb.API, sess *session.Session, version string, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Server{
		logger:         logger,
		catalog:        catalog,
		session:        sess,
		version:        version,
		requestTimeout: timeout,
	}
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))
	r.Use(networkHints)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/network", s.handleNetwork)

		r.Get("/recommendations", s.handleRecommendations)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/trending", s.handleList(s.catalog.Trending))
			r.Get("/popular", s.handleList(s.catalog.Popular))
			r.Get("/now-playing", s.handleList(s.catalog.NowPlaying))

			r.Get("/{id}", s.handleDetail(s.catalog.MovieDetails))
			r.Get("/{id}/credits", s.handleDetail(s.catalog.MovieCredits))
			r.Get("/{id}/trailer", s.handleDetail(s.catalog.MovieTrailer))
		})

		r.Get("/tv/{id}", s.handleDetail(s.catalog.TVDetails))
		r.Get("/top-rated/{kind}", s.handleTopRated)
	})

	return r
}

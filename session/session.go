// Package session keeps the active recommendation filter and refreshes its
// results once they go idle.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/moviemate/filter"
	"github.com/s0up4200/moviemate/tmdb"
)

const (
	// DefaultCheckInterval is how often Run looks for idle results
	DefaultCheckInterval = 30 * time.Second
	// DefaultIdleAfter is the age after which results are refreshed
	DefaultIdleAfter = 2 * time.Minute
)

// Recommendations is one set of discovery results
type Recommendations struct {
	Movies    []tmdb.MediaRecord  `json:"movies"`
	Shows     []tmdb.MediaRecord  `json:"shows"`
	Filter    tmdb.FilterCriteria `json:"filter"`
	Where     string              `json:"where,omitempty"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Empty reports whether neither list has results
func (r Recommendations) Empty() bool {
	return len(r.Movies) == 0 && len(r.Shows) == 0
}

// Session owns the active filter of one user
type Session struct {
	catalog       tmdb.API
	compiler      filter.Compiler
	checkInterval time.Duration
	idleAfter     time.Duration
	now           func() time.Time
	logger        zerolog.Logger

	mu        sync.Mutex
	active    *query
	lastFetch time.Time
	last      Recommendations
}

type query struct {
	criteria tmdb.FilterCriteria
	where    filter.CompiledFilter
}

// Option configures a Session
type Option func(*Session)

// WithCheckInterval sets how often Run checks for idle results
func WithCheckInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

// WithIdleAfter sets the age after which Run refreshes results
func WithIdleAfter(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.idleAfter = d
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCompiler sets the compiler used for where expressions
func WithCompiler(c filter.Compiler) Option {
	return func(s *Session) {
		if c != nil {
			s.compiler = c
		}
	}
}

// New creates a session backed by catalog
func New(catalog tmdb.API, logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		catalog:       catalog,
		compiler:      filter.NewExprCompiler(),
		checkInterval: DefaultCheckInterval,
		idleAfter:     DefaultIdleAfter,
		now:           time.Now,
		logger:        logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Recommend discovers movies and shows for f concurrently. The filter becomes
// the active one only when at least one list has results.
func (s *Session) Recommend(ctx context.Context, f tmdb.FilterCriteria) Recommendations {
	return s.recommend(ctx, &query{criteria: f})
}

// RecommendWhere is Recommend with an additional expression applied to both
// lists, such as `vote_average >= 7`
func (s *Session) RecommendWhere(ctx context.Context, f tmdb.FilterCriteria, where string) (Recommendations, error) {
	if where == "" {
		return s.Recommend(ctx, f), nil
	}

	compiled, err := s.compiler.Compile(where)
	if err != nil {
		return Recommendations{Filter: f, Where: where, Movies: []tmdb.MediaRecord{}, Shows: []tmdb.MediaRecord{}}, err
	}
	return s.recommend(ctx, &query{criteria: f, where: compiled}), nil
}

func (s *Session) recommend(ctx context.Context, q *query) Recommendations {
	var movies, shows []tmdb.MediaRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		movies = s.catalog.DiscoverMovies(gctx, q.criteria)
		return nil
	})
	g.Go(func() error {
		shows = s.catalog.DiscoverShows(gctx, q.criteria)
		return nil
	})
	_ = g.Wait()

	rec := Recommendations{
		Movies:    orEmpty(movies),
		Shows:     orEmpty(shows),
		Filter:    q.criteria,
		FetchedAt: s.now(),
	}

	if q.where != nil {
		rec.Where = q.where.Expression()
		rec.Movies = filter.Apply(q.where, rec.Movies)
		rec.Shows = filter.Apply(q.where, rec.Shows)
	}

	if rec.Empty() {
		s.logger.Info().Interface("filter", q.criteria).Msg("No recommendations found")
		return rec
	}

	s.mu.Lock()
	s.active = q
	s.lastFetch = rec.FetchedAt
	s.last = rec
	s.mu.Unlock()

	s.logger.Debug().
		Int("movies", len(rec.Movies)).
		Int("shows", len(rec.Shows)).
		Interface("filter", q.criteria).
		Msg("Fetched recommendations")

	return rec
}

// Refresh clears the catalog cache and re-runs the active filter. It reports
// false when no filter is active.
func (s *Session) Refresh(ctx context.Context) (Recommendations, bool) {
	s.mu.Lock()
	q := s.active
	s.mu.Unlock()

	if q == nil {
		return Recommendations{}, false
	}

	s.catalog.ClearCache()
	return s.recommend(ctx, q), true
}

// Active returns the active filter, if any
func (s *Session) Active() (tmdb.FilterCriteria, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return tmdb.FilterCriteria{}, false
	}
	return s.active.criteria, true
}

// Last returns the most recent non-empty recommendations
func (s *Session) Last() (Recommendations, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.active != nil
}

// idle reports whether a filter is active and its results are old enough to refresh
func (s *Session) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && s.now().Sub(s.lastFetch) >= s.idleAfter
}

// Run refreshes idle results every check interval until ctx is done, passing
// each refreshed set to onUpdate
func (s *Session) Run(ctx context.Context, onUpdate func(Recommendations)) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !s.idle() {
				continue
			}

			s.logger.Debug().Msg("Recommendations are idle, refreshing")
			rec, ok := s.Refresh(ctx)
			if ok && onUpdate != nil {
				onUpdate(rec)
			}
		}
	}
}

func orEmpty(records []tmdb.MediaRecord) []tmdb.MediaRecord {
	if records == nil {
		return []tmdb.MediaRecord{}
	}
	return records
}

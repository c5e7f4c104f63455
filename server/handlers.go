package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/tmdb"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.NetworkStatus(r.Context()))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := tmdb.FilterCriteria{
		Industry:      q.Get("industry"),
		Year:          q.Get("year"),
		Genre:         q.Get("genre"),
		ContentRating: q.Get("rating"),
	}

	rec, err := s.session.RecommendWhere(r.Context(), criteria, q.Get("where"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.session.Refresh(r.Context())
	if !ok {
		writeError(w, http.StatusConflict, "no active filter to refresh")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleList(list func(context.Context) []tmdb.MediaRecord) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, list(r.Context()))
	}
}

func (s *Server) handleDetail(detail func(context.Context, int64) tmdb.MediaRecord) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}

		rec := detail(r.Context(), id)
		if rec == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleTopRated(w http.ResponseWriter, r *http.Request) {
	kind, ok := tmdb.ParseMediaKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be movie or tv")
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	writeJSON(w, http.StatusOK, s.catalog.TopRated(r.Context(), kind, page))
}

// networkHints attaches the caller's user agent and connection type so the
// fetcher can recognise interfering carriers
func networkHints(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := blocking.Hints{
			UserAgent:      r.UserAgent(),
			ConnectionType: r.Header.Get("X-Connection-Type"),
		}
		if h != (blocking.Hints{}) {
			r = r.WithContext(blocking.WithHints(r.Context(), h))
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	event := logger.Info()
	if status >= http.StatusInternalServerError || errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		event = logger.Warn()
	}
	event.
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}

// Package httpapi serves the read-side surface: an HTML page of all
// stored thread summaries and a JSON Feed, behind an optional shared
// API key.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mmgoodnow/disco-snails/internal/metrics"
	"github.com/mmgoodnow/disco-snails/internal/store"
)

type Server struct {
	store  store.Store
	apiKey string
	logger zerolog.Logger
	router *chi.Mux
}

type Options struct {
	// APIKey gates the page and the feed when non-empty; requests must
	// carry a matching apikey query parameter.
	APIKey string
	Logger zerolog.Logger
}

func NewServer(st store.Store, opts Options) *Server {
	s := &Server{
		store:  st,
		apiKey: opts.APIKey,
		logger: opts.Logger,
		router: chi.NewRouter(),
	}
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)
	s.router.Use(countRequests)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Get("/", s.handlePage)
		r.Get("/feed.json", s.handleFeed)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.URL.Query().Get("apikey") != s.apiKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(ww.Status())).Inc()
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list records failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderPage(w, records); err != nil {
		s.logger.Error().Err(err).Msg("render page failed")
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list records failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	feed := buildJSONFeed(records, requestOrigin(r), r.URL.Query().Get("apikey"))
	w.Header().Set("Content-Type", "application/feed+json; charset=utf-8")
	if err := writeJSONFeed(w, feed); err != nil {
		s.logger.Error().Err(err).Msg("write feed failed")
	}
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}

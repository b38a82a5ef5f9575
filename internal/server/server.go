// Package server exposes the renderer over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pkt.systems/mdpdf/asset"
	"pkt.systems/mdpdf/internal/config"
)

// Server is the HTTP render service.
type Server struct {
	router   chi.Router
	resolver *asset.Resolver
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. A nil resolver gets one
// built from cfg that only fetches http(s) and data: sources.
func NewServer(resolver *asset.Resolver, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = config.Default().MaxRequestBytes
	}
	if resolver == nil {
		resolver = NewResolver(cfg, "", log)
	}
	s := &Server{
		resolver: resolver,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

// NewResolver builds an image resolver from cfg. baseDir enables relative
// file sources; empty disables them.
func NewResolver(cfg config.Config, baseDir string, log *slog.Logger) *asset.Resolver {
	return asset.NewResolver(asset.Options{
		Concurrency: cfg.FetchConcurrency,
		Logger:      log,
		Fetcher: asset.NewHTTPFetcher(asset.HTTPOptions{
			Timeout:    cfg.FetchTimeout,
			MaxBytes:   cfg.MaxImageBytes,
			MaxRetries: retries(cfg.FetchRetries),
			BaseDir:    baseDir,
			Logger:     log,
		}),
	})
}

// retries maps "no retries" onto the fetcher's negative sentinel.
func retries(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/v1/themes", s.handleThemes)
	r.Post("/v1/render", s.handleRender)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

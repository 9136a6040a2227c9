// Package server exposes the explorer over a JSON HTTP API.
//
// Routes:
//
//	GET /healthz
//	GET /metrics
//	GET /api/v1/search?q=&size=
//	GET /api/v1/package?name=
//	GET /api/v1/overview?name=
//	GET /api/v1/compare?names=a,b
//	GET /api/v1/downloads?name=&period=
//	GET /api/v1/bundle?name=&version=
//	GET /api/v1/repo/{owner}/{repo}
//	GET /api/v1/deps?name=&depth=&max_nodes=&format=
//
// Errors are answered as {"error":{"code":"...","message":"..."}} with the
// status derived from the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pkgexplorer/internal/app"
	"github.com/matzehuels/pkgexplorer/pkg/buildinfo"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

// Server serves the API for one wired App.
type Server struct {
	app    *app.App
	logger *log.Logger
	router chi.Router
	now    func() time.Time
}

// New builds the router.
func New(a *app.App, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{app: a, logger: logger, now: time.Now}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/package", s.handlePackage)
		r.Get("/overview", s.handleOverview)
		r.Get("/compare", s.handleCompare)
		r.Get("/downloads", s.handleDownloads)
		r.Get("/bundle", s.handleBundle)
		r.Get("/repo/{owner}/{repo}", s.handleRepo)
		r.Get("/deps", s.handleDeps)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.app.Config.Server
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Cache   string `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok", Version: buildinfo.Version, Cache: "ok"}
	if !store.Available(r.Context(), s.app.Store) {
		// The API keeps working without a cache, so this only degrades.
		h.Cache = "unavailable"
	}
	writeJSON(w, http.StatusOK, h)
}

// Package server serves the comparison UI over HTTP. Each visitor gets a
// session, identified by cookie, holding their own search controller and
// comparison store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/search"
	"github.com/git-pkgs/compare/view"
)

// Options configures a Server.
type Options struct {
	// Registry fetches package records. Required.
	Registry core.Registry
	// Client is the HTTP client behind Registry; its breaker states are
	// reported on /healthz. Optional.
	Client *core.Client
	Logger *logrus.Logger
	// MaxSessions bounds the number of live sessions. Default 1024.
	MaxSessions int
	// Metrics receives the server's collectors. Default a fresh registry.
	Metrics *prometheus.Registry
}

// Server is the HTTP front end.
type Server struct {
	registry core.Registry
	client   *core.Client
	logger   *logrus.Logger
	metrics  *metrics
	gatherer prometheus.Gatherer
	sessions *sessions
	router   chi.Router
}

// New creates a server. It does not listen; use Handler or ListenAndServe.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("server: registry is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1024
	}
	if opts.Metrics == nil {
		opts.Metrics = prometheus.NewRegistry()
	}

	s := &Server{
		registry: opts.Registry,
		client:   opts.Client,
		logger:   opts.Logger,
		metrics:  newMetrics(opts.Metrics),
		gatherer: opts.Metrics,
	}

	sess, err := newSessions(opts.MaxSessions, s.metrics, s.newController)
	if err != nil {
		return nil, err
	}
	s.sessions = sess
	s.router = s.routes()
	return s, nil
}

func (s *Server) newController() *search.Controller {
	return search.NewController(s.registry,
		search.WithEcosystem(s.registry.Ecosystem()),
		search.WithObserver(s.observe),
	)
}

func (s *Server) observe(ev search.Event) {
	s.metrics.observe(ev)

	entry := s.logger.WithFields(logrus.Fields{
		"package": ev.Name,
		"result":  ev.Result,
	})
	if ev.Duration > 0 {
		entry = entry.WithField("duration", ev.Duration)
	}

	var fe *core.FetchError
	switch {
	case errors.As(ev.Err, &fe):
		entry.WithError(fe.Cause()).Warn("package fetch failed")
	case ev.Err != nil:
		entry.WithError(ev.Err).Debug("search rejected")
	default:
		entry.Info("package added")
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/packages", s.handleAdd)
	r.Post("/packages/remove", s.handleRemove)
	r.Post("/dismiss", s.handleDismiss)
	r.Get("/api/packages", s.handlePackages)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (s *Server) page(ctrl *search.Controller) view.Page {
	return view.NewPage(ctrl.State(), s.registry.URLs())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.acquire(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderHTML(w, s.page(ctrl)); err != nil {
		s.logger.WithError(err).Error("render page")
	}
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.acquire(w, r)
	// The outcome, success or not, is carried by the controller's state and
	// shown on the redirected page. A client that goes away does not cancel
	// the fetch.
	err := ctrl.Submit(context.WithoutCancel(r.Context()), r.FormValue("name"))
	if errors.Is(err, search.ErrBusy) {
		s.logger.WithField("package", r.FormValue("name")).Debug("search already in progress")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.acquire(w, r)
	ctrl.Remove(r.FormValue("name"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.acquire(w, r)
	ctrl.Dismiss()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.acquire(w, r)
	writeJSON(w, http.StatusOK, s.page(ctrl))
}

type health struct {
	Status    string            `json:"status"`
	Ecosystem string            `json:"ecosystem"`
	Sessions  int               `json:"sessions"`
	Breakers  map[string]string `json:"breakers,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{
		Status:    "ok",
		Ecosystem: s.registry.Ecosystem(),
		Sessions:  s.sessions.len(),
	}
	if s.client != nil && s.client.Breakers() != nil {
		h.Breakers = s.client.Breakers().States()
	}
	writeJSON(w, http.StatusOK, h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

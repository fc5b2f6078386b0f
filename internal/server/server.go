// Package server exposes browse sessions over HTTP.
//
// A session holds one engine view. Clients create a session, then expand,
// collapse, focus, go back, select paths and map entities onto the canvas
// edges. Every mutation answers with the updated view, and the circles and
// tree endpoints answer with a layout for the requested frame:
//
//	POST   /sessions                   {"root_id": "Q729", "depth": 2}
//	GET    /sessions/{id}/circles      ?width=840&height=720
//	GET    /sessions/{id}/tree         ?width=840&height=720
//	POST   /sessions/{id}/expand       {"key": 3}
//	POST   /sessions/{id}/collapse     {"key": 3}
//	POST   /sessions/{id}/focus        {"id": "Q144"}
//	POST   /sessions/{id}/back         {"index": 0}
//	POST   /sessions/{id}/path         {"start": "Q144", "end": "Q26745"}
//	DELETE /sessions/{id}/path
//	PUT    /sessions/{id}/mapping      {"side": "left", "ids": ["Q5"]}
//	DELETE /sessions/{id}
//	GET    /paths                      ?start=Q144&end=Q26745
//	GET    /healthz
//	GET    /metrics
//
// Errors are JSON objects with a code and a message. Unknown entities,
// sessions and missing paths answer 404, invalid input 400.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/session"
)

const (
	// DefaultCleanupInterval is how often expired sessions are dropped.
	DefaultCleanupInterval = 5 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// Server serves one engine's graph to many sessions.
type Server struct {
	engine  *engine.Engine
	dataset string
	store   session.Store
	metrics *Metrics
	logger  *log.Logger

	ttl     time.Duration
	depth   int
	bounds  layout.Bounds
	cleanup time.Duration

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithStore replaces the in-memory session store.
func WithStore(s session.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithSessionTTL sets how long an idle session lives.
func WithSessionTTL(ttl time.Duration) Option {
	return func(srv *Server) {
		if ttl > 0 {
			srv.ttl = ttl
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// WithDefaults sets the depth of new sessions and the frame used when a
// layout request names none.
func WithDefaults(depth int, b layout.Bounds) Option {
	return func(srv *Server) {
		if depth > 0 {
			srv.depth = depth
		}
		if b.Width > 0 && b.Height > 0 {
			srv.bounds = b
		}
	}
}

// WithCleanupInterval sets how often expired sessions are dropped.
func WithCleanupInterval(d time.Duration) Option {
	return func(srv *Server) {
		if d > 0 {
			srv.cleanup = d
		}
	}
}

// New creates a server for eng. dataset names the graph in session records.
func New(eng *engine.Engine, dataset string, opts ...Option) *Server {
	s := &Server{
		engine:  eng,
		dataset: dataset,
		ttl:     session.DefaultTTL,
		depth:   1,
		bounds:  layout.DefaultBounds(),
		cleanup: DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = session.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/paths", s.handlePath)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/circles", s.handleLayout(layout.ModeCircles))
			r.Get("/tree", s.handleLayout(layout.ModeTree))
			r.Post("/expand", s.handleExpand)
			r.Post("/collapse", s.handleCollapse)
			r.Post("/focus", s.handleFocus)
			r.Post("/back", s.handleBack)
			r.Post("/path", s.handleSelectPath)
			r.Delete("/path", s.handleClearPath)
			r.Put("/mapping", s.handleMap)
		})
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
// Expired sessions are dropped in the background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanupLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "dataset", s.dataset)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return ctx.Err()
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep drops expired sessions and refreshes the session gauge.
func (s *Server) sweep(ctx context.Context) int {
	n, err := s.store.Cleanup(ctx)
	if err != nil {
		s.logger.Warn("session cleanup failed", "error", err)
	}
	if n > 0 {
		s.logger.Debug("expired sessions removed", "count", n)
	}
	s.observeSessions()
	return n
}

func (s *Server) observeSessions() {
	if mem, ok := s.store.(*session.MemoryStore); ok && s.metrics != nil {
		s.metrics.SetSessions(mem.Len())
	}
}

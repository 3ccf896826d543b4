// Package server exposes document sessions over HTTP for editing front ends.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
)

// Config holds server configuration.
type Config struct {
	Listen         string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// PreviewDelay is the debounce before a session recomputes its latest
	// preview. Zero uses preview.DefaultDelay.
	PreviewDelay time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:7331",
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
	}
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server logger. Sessions inherit it.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithDeployer sets the deployer used by POST /deploy and by sessions.
func WithDeployer(deployer store.Deployer) Option {
	return func(s *Server) {
		if deployer != nil {
			s.deployer = deployer
		}
	}
}

// WithChecker enables preflight checks for every session.
func WithChecker(checker *rimepatch.Checker) Option {
	return func(s *Server) { s.checker = checker }
}

// WithActivityHooks receives events from every session and from the phrase
// and deploy endpoints.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(s *Server) { s.hooks = append(s.hooks, hooks...) }
}

// WithSessionOptions appends options applied to each new session.
func WithSessionOptions(opts ...rimepatch.Option) Option {
	return func(s *Server) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// Server is the HTTP server.
type Server struct {
	config   *Config
	router   *chi.Mux
	httpSrv  *http.Server
	store    store.Store
	deployer store.Deployer
	checker  *rimepatch.Checker
	logger   zerolog.Logger
	hooks    activity.Hooks
	emitter  *activity.Emitter

	sessionOpts []rimepatch.Option
	sessions    *registry
}

// New creates a server over st. A nil cfg uses DefaultConfig.
func New(cfg *Config, st store.Store, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		store:    st,
		deployer: store.NoopDeployer{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.emitter = activity.NewEmitter(s.hooks, activity.Config{Logger: s.logger})

	sessionOpts := []rimepatch.Option{
		rimepatch.WithLogger(s.logger),
		rimepatch.WithDeployer(s.deployer),
		rimepatch.WithActivityHooks(s.hooks),
	}
	if s.checker != nil {
		sessionOpts = append(sessionOpts, rimepatch.WithPreflight(s.checker))
	}
	if cfg.PreviewDelay > 0 {
		sessionOpts = append(sessionOpts, rimepatch.WithPreviewDelay(cfg.PreviewDelay))
	}
	s.sessions = newRegistry(st, append(sessionOpts, s.sessionOpts...), s.logger)

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "If-Match", "X-Request-ID"},
			ExposedHeaders:   []string{"ETag", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// requestLogger logs each request at debug level through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.Info().Str("listen", s.config.Listen).Msg("server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes open sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.closeAll()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// MarkStale flags the open session for name, if any, as changed on disk.
// It has the signature store.NewWatcher expects.
func (s *Server) MarkStale(name string) {
	s.sessions.markStale(name)
}

// Session returns the session for name, loading it on first use.
func (s *Server) Session(ctx context.Context, name string) (*rimepatch.Session, error) {
	return s.sessions.get(ctx, name)
}

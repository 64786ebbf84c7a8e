package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"dagforge/internal/config"
	"dagforge/internal/dagconfig"
	logx "dagforge/pkg/logx"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

// Server serves the API. It is safe for concurrent use; Reload may be called
// while requests are in flight.
type Server struct {
	log     logx.Logger
	metrics *Metrics
	health  func() any

	state   atomic.Pointer[state]
	limiter atomic.Pointer[rate.Limiter]
}

type state struct {
	cfg     *config.Config
	handler http.Handler
}

type Option func(*Server)

// WithHealth adds the value returned by fn to /healthz.
func WithHealth(fn func() any) Option {
	return func(s *Server) { s.health = fn }
}

// WithMetrics shares a metrics set instead of creating a fresh one.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func New(cfg *config.Config, log logx.Logger, opts ...Option) *Server {
	s := &Server{log: log.With(logx.String("comp", "server"))}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	s.Reload(cfg)
	return s
}

func (s *Server) Metrics() *Metrics { return s.metrics }

// Reload rebuilds the handler tree for cfg. The limiter is replaced only when
// its settings change, so bursts are not refilled by unrelated edits.
func (s *Server) Reload(cfg *config.Config) {
	prev := s.state.Load()
	if prev == nil || prev.cfg.HTTP.RatePerSec != cfg.HTTP.RatePerSec || prev.cfg.HTTP.Burst != cfg.HTTP.Burst {
		s.limiter.Store(newLimiter(cfg.HTTP.RatePerSec, cfg.HTTP.Burst))
	}
	s.state.Store(&state{cfg: cfg, handler: s.routes(cfg)})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.state.Load().handler.ServeHTTP(w, r)
}

func (s *Server) builderOptions() []dagconfig.Option {
	owner := strings.TrimSpace(s.state.Load().cfg.Builder.DefaultOwner)
	if owner == "" {
		return nil
	}
	return []dagconfig.Option{dagconfig.WithDefaultOwner(owner)}
}

func (s *Server) routes(cfg *config.Config) http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/validate_cron", s.handleValidateCron).Methods(http.MethodPost)
	r.HandleFunc("/generate_config", s.handleGenerateConfig).Methods(http.MethodPost)
	r.HandleFunc("/task_templates", s.handleTaskTemplates).Methods(http.MethodGet)
	r.HandleFunc("/cron_options", s.handleCronOptions).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.MetricsPath(), promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if cfg.Pprof.Enabled {
		mountPprof(r, cfg.Pprof.PrefixOrDefault(), cfg.Pprof.Token)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	var h http.Handler = r
	h = bodyLimit(cfg.HTTP.BodyLimit())(h)
	h = s.rateLimit(h)
	h = s.recoverer(h)
	h = s.accessLog(h)
	h = requestID(h)
	return h
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.state.Load().cfg.HTTP.AddrOrDefault()
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	cfg := s.state.Load().cfg
	to, err := cfg.HTTP.Timeouts()
	if err != nil {
		_ = ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: to.Read,
		ReadTimeout:       to.Read,
		WriteTimeout:      to.Write,
		IdleTimeout:       to.Idle,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.log.Warn("http shutdown incomplete", logx.Err(err))
		}
	}()

	s.log.Info("http server started", logx.String("addr", ln.Addr().String()))
	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		s.log.Info("http server stopped")
		return nil
	}
	return err
}

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/scribe/auth"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/server/endpoint"
	"github.com/kbukum/scribe/server/middleware"
)

// Server serves a Gin engine mounted on an http.ServeMux over HTTP/1.1 and h2c.
type Server struct {
	cfg      Config
	log      *logger.Logger
	engine   *gin.Engine
	mux      *http.ServeMux
	h2       *http2.Server
	srv      *http.Server
	registry *prometheus.Registry
	metrics  *middleware.HTTPMetrics
	bound    atomic.Pointer[net.TCPAddr]
}

// New builds a Server from cfg. Call ApplyMiddleware (or ApplyDefaults)
// before registering routes.
func New(cfg Config, log *logger.Logger) *Server {
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	s := &Server{
		cfg:      cfg,
		log:      log.WithComponent("server"),
		engine:   gin.New(),
		mux:      http.NewServeMux(),
		h2:       &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: seconds(cfg.IdleTimeout)},
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = middleware.NewHTTPMetrics(s.registry)
	s.mux.Handle("/", s.engine)
	s.srv = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      h2c.NewHandler(s.mux, s.h2),
		ReadTimeout:  seconds(cfg.ReadTimeout),
		WriteTimeout: seconds(cfg.WriteTimeout),
		IdleTimeout:  seconds(cfg.IdleTimeout),
	}
	return s
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Handler is the root handler including the server-wide middleware.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Registerer is the Prometheus registry exposed at /metrics.
func (s *Server) Registerer() prometheus.Registerer { return s.registry }

// Start binds the listener and serves in the background. It returns once
// the port is bound.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.bound.Store(addr)
	}
	s.log.Info("listening", logger.Fields("addr", ln.Addr().String()))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	defer s.bound.Store(nil)
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("shutdown incomplete", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	s.log.Info("stopped")
	return nil
}

// Addr is the bound address while serving, else the configured one.
func (s *Server) Addr() string {
	if addr := s.bound.Load(); addr != nil {
		return addr.String()
	}
	return s.srv.Addr
}

func (s *Server) listening() bool { return s.bound.Load() != nil }

// ApplyMiddleware installs the server-wide chain around the mux and the
// request metrics on Gin.
func (s *Server) ApplyMiddleware() {
	wrap := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.cfg.CORS),
		middleware.BodySizeLimit(s.cfg.MaxBodySize),
		middleware.RequestLogger(s.log),
	)
	s.srv.Handler = h2c.NewHandler(wrap(s.mux), s.h2)
	s.engine.Use(middleware.Metrics(s.metrics))
}

// Group returns an API route group. A non-nil validator makes it require a
// bearer token; server.rate_limit adds a per-client limit.
func (s *Server) Group(prefix string, validator auth.TokenValidator) *gin.RouterGroup {
	g := s.engine.Group(prefix)
	if validator != nil {
		g.Use(middleware.Auth(middleware.AuthConfig{Validator: validator, SkipPaths: s.cfg.Auth.SkipPaths}))
	}
	if s.cfg.RateLimit > 0 {
		g.Use(middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: s.cfg.RateLimit}))
	}
	return g
}

// RegisterDefaultEndpoints adds the probe, build and metrics routes.
func (s *Server) RegisterDefaultEndpoints(service string, checker endpoint.HealthChecker) {
	for _, r := range []struct {
		path string
		h    gin.HandlerFunc
	}{
		{"/health", endpoint.Health(service, checker)},
		{"/alive", endpoint.Liveness(service)},
		{"/ready", endpoint.Readiness(service, checker)},
		{"/info", endpoint.Info(service)},
		{"/version", endpoint.Version()},
		{"/metrics", endpoint.Metrics(s.registry)},
	} {
		s.engine.GET(r.path, r.h)
	}
}

// ApplyDefaults is ApplyMiddleware followed by RegisterDefaultEndpoints.
func (s *Server) ApplyDefaults(service string, checker endpoint.HealthChecker) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(service, checker)
}

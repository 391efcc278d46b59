package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/muliwe/go-triangle-classifier/internal/classifier"
	"github.com/muliwe/go-triangle-classifier/internal/history"
	xlog "github.com/muliwe/go-triangle-classifier/internal/log"
	"github.com/muliwe/go-triangle-classifier/internal/logger"
	"github.com/muliwe/go-triangle-classifier/internal/metrics"
)

// Config holds server configuration
type Config struct {
	Addr            string            `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration     `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration     `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration     `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	EnableDebug     bool              `yaml:"debug" env:"DEBUG"`
	RateLimitRPM    int               `yaml:"rate_limit_rpm" env:"RATE_LIMIT_RPM"` // per client IP, 0 disables
	HistoryPath     string            `yaml:"history_path" env:"HISTORY_PATH"`     // empty disables history
	LoggerConfig    logger.Config     `yaml:"request_log"`
	ClassifierCfg   classifier.Config `yaml:"classifier"`

	// TLS is enabled when both files are set
	TLSCertFile string `yaml:"tls_cert" env:"TLS_CERT"`
	TLSKeyFile  string `yaml:"tls_key" env:"TLS_KEY"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		EnableDebug:     false,
		RateLimitRPM:    600,
		LoggerConfig:    logger.DefaultConfig(),
		ClassifierCfg:   classifier.DefaultConfig(),
	}
}

// TLSEnabled reports whether the server terminates TLS
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("server address must not be empty")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("tls_cert and tls_key must be set together")
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("rate_limit_rpm must not be negative, got %d", c.RateLimitRPM)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return c.ClassifierCfg.Validate()
}

// Server represents the HTTP server
type Server struct {
	cfg        Config
	httpServer *http.Server
	handler    *Handler
	logger     *logger.Logger
	history    *history.Store
	log        zerolog.Logger
	listener   net.Listener
	ready      chan struct{}
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	clf, err := classifier.New(cfg.ClassifierCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}

	l, err := logger.New(cfg.LoggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		logger: l,
		log:    xlog.WithComponent("server"),
		ready:  make(chan struct{}),
	}

	var store HistoryStore
	if cfg.HistoryPath != "" {
		h, err := history.Open(context.Background(), cfg.HistoryPath)
		if err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		s.history = h
		store = h
	}

	s.handler = NewHandler(clf, l, store)
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	if cfg.TLSEnabled() {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			NextProtos: []string{"h2", "http/1.1"},
		}
	}
	return s, nil
}

// routes builds the router with the middleware stack
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(metrics.Middleware())
	r.Use(xlog.Middleware())

	r.Get("/health", s.handler.HandleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitRPM > 0 {
			r.Use(RateLimit(s.cfg.RateLimitRPM, time.Minute))
		}
		r.Get("/classify", s.handler.HandleClassify)
		r.Post("/classify", s.handler.HandleClassify)
		r.Get("/history", s.handler.HandleHistory)
		r.Get("/stats", s.handler.HandleStats)
		if s.cfg.EnableDebug {
			r.Get("/debug", s.handler.HandleDebug)
		}
	})
	return r
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Ready is closed once the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address, valid after Ready
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Start runs the server until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		_ = s.closeResources()
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	close(s.ready)

	protocol := "HTTP"
	if s.cfg.TLSEnabled() {
		protocol = "HTTPS"
	}
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("protocol", protocol).
		Bool("debug", s.cfg.EnableDebug).
		Bool("history", s.history != nil).
		Str("request_log", s.logger.LogPath()).
		Msg("triangle classifier server starting")

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.TLSEnabled() {
			err = s.httpServer.ServeTLS(ln, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		} else {
			err = s.httpServer.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		_ = s.closeResources()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("server shutting down")
	if err := s.Shutdown(context.Background()); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	s.log.Info().Msg("server stopped")
	return nil
}

// Shutdown gracefully stops the server and releases its resources
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return s.closeResources()
}

func (s *Server) closeResources() error {
	var errs []error
	if s.history != nil {
		errs = append(errs, s.history.Close())
		s.history = nil
	}
	if s.logger != nil {
		errs = append(errs, s.logger.Close())
		s.logger = nil
	}
	return errors.Join(errs...)
}

package blgw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/beolink-bridge/internal/auth"
	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the HTTP server.
type Deps struct {
	Config     config.HTTPConfig
	Site       config.SiteConfig
	Gateway    backend.Gateway
	Builder    *catalog.Builder
	Translator *command.Translator
	Sessions   *auth.Store
	Logger     *logging.Logger

	// Telemetry may be nil; recording becomes a no-op.
	Telemetry *telemetry.Client
	Version   string
}

// Server is the HTTP face of the gateway.
type Server struct {
	cfg        config.HTTPConfig
	site       config.SiteConfig
	gw         backend.Gateway
	builder    *catalog.Builder
	translator *command.Translator
	sessions   *auth.Store
	telemetry  *telemetry.Client
	logger     *logging.Logger
	version    string
	server     *http.Server
}

// New creates the server. It does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("backend gateway is required")
	}
	if deps.Builder == nil {
		return nil, fmt.Errorf("catalog builder is required")
	}
	if deps.Translator == nil {
		return nil, fmt.Errorf("command translator is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	return &Server{
		cfg:        deps.Config,
		site:       deps.Site,
		gw:         deps.Gateway,
		builder:    deps.Builder,
		translator: deps.Translator,
		sessions:   deps.Sessions,
		telemetry:  deps.Telemetry,
		logger:     deps.Logger,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background
// goroutine. Stop with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("http server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("http server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting for in-flight
// requests up to gracefulShutdownTimeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("http health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("http server not started")
	}
	return nil
}

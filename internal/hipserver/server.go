package hipserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/nerrad567/beolink-bridge/internal/backend"
	"github.com/nerrad567/beolink-bridge/internal/catalog"
	"github.com/nerrad567/beolink-bridge/internal/command"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
	"github.com/nerrad567/beolink-bridge/internal/infrastructure/telemetry"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps contains everything the server needs to operate.
type Deps struct {
	Config     config.HIPConfig
	Gateway    backend.Gateway
	Builder    *catalog.Builder
	Translator *command.Translator

	// Telemetry may be nil; recording becomes a no-op.
	Telemetry *telemetry.Client

	// Logger may be nil; logging is disabled.
	Logger Logger
}

// Server accepts protocol connections and runs one session per peer.
type Server struct {
	cfg        config.HIPConfig
	gw         backend.Gateway
	builder    *catalog.Builder
	translator *command.Translator
	telemetry  *telemetry.Client
	logger     Logger

	listener net.Listener
	cancel   context.CancelFunc

	sessions map[*session]struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// New creates a server from its dependencies.
func New(deps Deps) (*Server, error) {
	if deps.Gateway == nil {
		return nil, ErrMissingGateway
	}
	if deps.Builder == nil {
		return nil, ErrMissingBuilder
	}
	if deps.Translator == nil {
		return nil, ErrMissingTranslator
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Server{
		cfg:        deps.Config,
		gw:         deps.Gateway,
		builder:    deps.Builder,
		translator: deps.Translator,
		telemetry:  deps.Telemetry,
		logger:     logger,
		sessions:   make(map[*session]struct{}),
	}, nil
}

// Start binds the listener and begins accepting connections. It
// returns once the listener is bound; sessions run until Close or ctx
// cancellation.
func (s *Server) Start(ctx context.Context) error {
	if s.listener != nil {
		return ErrAlreadyStarted
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding protocol listener: %w", err)
	}
	s.listener = listener

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info("protocol server listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(runCtx)

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		se := s.newSession(conn)
		s.mu.Lock()
		s.sessions[se] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			se.run(ctx)
			s.mu.Lock()
			delete(s.sessions, se)
			s.mu.Unlock()
		}()
	}
}

// Close stops accepting, disconnects all sessions, and waits for
// their goroutines to finish.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for se := range s.sessions {
		se.disconnect()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("protocol server stopped")
	return nil
}

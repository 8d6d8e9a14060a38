package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/uno/internal/config"
	"github.com/cory-johannsen/uno/internal/observability"
	"github.com/cory-johannsen/uno/internal/protocol"
)

// SessionHandler runs the session for one upgraded connection.
type SessionHandler interface {
	HandleSession(ctx context.Context, t protocol.Transport) error
}

// Limits bounds each connection.
type Limits struct {
	WriteTimeout  time.Duration
	MaxFrameBytes int
}

// Server upgrades HTTP requests on the configured path and runs each
// connection's session on the request goroutine.
type Server struct {
	cfg      config.WebSocketConfig
	limits   Limits
	handler  SessionHandler
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	conns    map[*Conn]struct{}
	wg       sync.WaitGroup
	ready    chan struct{}
	stopped  bool
}

// NewServer creates a WebSocket acceptor.
//
// Precondition: handler and logger must be non-nil.
// Postcondition: Returns a Server ready to be started with ListenAndServe.
func NewServer(cfg config.WebSocketConfig, limits Limits, handler SessionHandler, logger *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		limits:  limits,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[*Conn]struct{}),
		ready:   make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin admits requests without an Origin header and, when an
// allow-list is configured, only listed origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

// Handler returns the HTTP handler: the upgrade endpoint wrapped with access
// logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.serveWS)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger.Named("http"))),
		handlers.PrintRecoveryStack(true),
	)
	return handlers.CombinedLoggingHandler(
		observability.StdWriter(s.logger.Named("http"), zapcore.InfoLevel),
		recovery(mux),
	)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", observability.RemoteAddr(r.RemoteAddr), zap.Error(err))
		return
	}
	conn := NewConn(raw, s.limits.WriteTimeout, s.limits.MaxFrameBytes)
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	s.logger.Info("client connected", observability.RemoteAddr(r.RemoteAddr))
	if err := s.handler.HandleSession(s.ctx, conn); err != nil {
		s.logger.Debug("session ended",
			observability.RemoteAddr(r.RemoteAddr),
			zap.Error(err),
			observability.Duration(start),
		)
		return
	}
	s.logger.Info("session ended cleanly", observability.RemoteAddr(r.RemoteAddr), observability.Duration(start))
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}

// ListenAndServe binds the configured address and serves until Stop.
//
// Postcondition: Returns nil after Stop, or the listen/serve error.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.srv = srv
	s.listener = listener
	close(s.ready)
	s.mu.Unlock()

	s.logger.Info("websocket acceptor listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.cfg.Path),
	)
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket: %w", err)
	}
	return nil
}

// Stop closes the listener and every live connection and waits for their
// sessions to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	srv := s.srv
	live := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		live = append(live, c)
	}
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("websocket shutdown", zap.Error(err))
		}
		cancel()
	}
	for _, c := range live {
		c.Close()
	}
	s.wg.Wait()
	s.logger.Info("websocket acceptor stopped")
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or "" before ListenAndServe.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

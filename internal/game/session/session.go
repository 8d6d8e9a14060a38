// Package session tracks connected clients: their identity, their room
// presence and the serialized outbound path to their transport.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/uno/internal/observability"
	"github.com/cory-johannsen/uno/internal/protocol"
)

var (
	// ErrClosed is returned by Send after the session stopped running.
	ErrClosed = errors.New("session closed")
	// ErrAlreadyConnected is returned by Connect on a session that already has an identity.
	ErrAlreadyConnected = errors.New("already connected")
)

// Session is one client connection.
//
// Sends are serialized by the transport. A failed send marks the session not
// running and closes the transport; teardown is left to the goroutine reading
// from the transport.
type Session struct {
	id        string
	serverID  string
	transport protocol.Transport
	logger    *zap.Logger

	mu       sync.Mutex
	playerID string
	name     string
	roomID   string

	running   atomic.Bool
	closeOnce sync.Once
}

// New wraps transport in a running Session.
//
// Precondition: transport and logger must be non-nil.
// Postcondition: Returns a running Session with a fresh session id and no player identity.
func New(transport protocol.Transport, serverID string, logger *zap.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		id:        id,
		serverID:  serverID,
		transport: transport,
		logger:    logger.With(observability.SessionID(id)),
	}
	s.running.Store(true)
	return s
}

// ID returns the session identifier. It is distinct from the player id.
func (s *Session) ID() string { return s.id }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *zap.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

// RemoteAddr returns the peer address as a string.
func (s *Session) RemoteAddr() string {
	if addr := s.transport.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Connect assigns a fresh player id to the session under name.
//
// Precondition: name must already be validated by the caller.
// Postcondition: Returns the new player id, or ErrAlreadyConnected.
func (s *Session) Connect(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID != "" {
		return "", ErrAlreadyConnected
	}
	s.playerID = uuid.NewString()
	s.name = name
	s.logger = s.logger.With(observability.PlayerID(s.playerID))
	return s.playerID, nil
}

// PlayerID returns the player id, or "" before Connect.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// Name returns the display name, or "" before Connect.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Connected reports whether Connect has succeeded.
func (s *Session) Connected() bool {
	return s.PlayerID() != ""
}

// RoomID returns the id of the room the player occupies, or "".
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) setRoomID(id string) {
	s.mu.Lock()
	s.roomID = id
	s.mu.Unlock()
}

// Running reports whether the session still accepts sends.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Send encodes payload under kind, stamped with the server id, and writes it.
//
// Postcondition: On a write failure the session is closed and the error returned.
func (s *Session) Send(kind protocol.Kind, payload any) error {
	env, err := protocol.NewEnvelope(kind, s.serverID, payload)
	if err != nil {
		s.Logger().Error("encoding outbound message", observability.Kind(kind), zap.Error(err))
		return err
	}
	return s.SendEnvelope(env)
}

// SendEnvelope writes env as-is.
func (s *Session) SendEnvelope(env protocol.Envelope) error {
	if !s.running.Load() {
		return ErrClosed
	}
	if err := s.transport.WriteEnvelope(env); err != nil {
		s.Logger().Warn("send failed, closing session", observability.Kind(env.Kind), zap.Error(err))
		s.Close()
		return fmt.Errorf("sending %s: %w", env.Kind, err)
	}
	return nil
}

// SendError sends an ERROR message with text.
func (s *Session) SendError(text string) error {
	return s.Send(protocol.KindError, text)
}

// SendInfo sends an INFO message with text.
func (s *Session) SendInfo(text string) error {
	return s.Send(protocol.KindInfo, text)
}

// Close stops the session and closes its transport. Safe to call more than once.
func (s *Session) Close() {
	s.running.Store(false)
	s.closeOnce.Do(func() {
		if err := s.transport.Close(); err != nil {
			s.Logger().Debug("closing transport", zap.Error(err))
		}
	})
}

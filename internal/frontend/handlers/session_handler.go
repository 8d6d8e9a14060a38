// Package handlers runs the per-connection read loop shared by every
// acceptor: receive one envelope, dispatch it, and tear the session down
// when the transport fails.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/uno/internal/game/session"
	"github.com/cory-johannsen/uno/internal/gameserver"
	"github.com/cory-johannsen/uno/internal/observability"
	"github.com/cory-johannsen/uno/internal/protocol"
)

// SessionHandler serves connections against a room directory.
type SessionHandler struct {
	dir    *gameserver.Directory
	logger *zap.Logger
}

// NewSessionHandler creates a SessionHandler.
//
// Precondition: dir and logger must be non-nil.
func NewSessionHandler(dir *gameserver.Directory, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{dir: dir, logger: logger}
}

// HandleSession processes envelopes from t strictly in arrival order until the
// client disconnects, the transport fails, or ctx is cancelled. Teardown
// always leaves the player's room and rebroadcasts the room list when
// membership changed.
//
// Postcondition: Returns nil on a clean disconnect; t is closed.
func (h *SessionHandler) HandleSession(ctx context.Context, t protocol.Transport) error {
	start := time.Now()
	sess := h.dir.NewSession(t)
	sess.Logger().Info("session opened", observability.RemoteAddr(sess.RemoteAddr()))

	defer func() {
		if h.dir.Disconnect(sess) {
			h.dir.BroadcastRoomList()
		}
		sess.Logger().Info("session closed", observability.Duration(start))
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		env, err := t.ReadEnvelope()
		if errors.Is(err, protocol.ErrMalformed) {
			sess.Logger().Debug("malformed frame", zap.Error(err))
			_ = sess.SendError(fmt.Sprintf("request: %v", err))
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || !sess.Running() {
				return nil
			}
			return fmt.Errorf("receiving envelope: %w", err)
		}

		if h.dispatch(sess, env) {
			return nil
		}
	}
}

// dispatch shields the connection from a panic inside one request.
func (h *SessionHandler) dispatch(sess *session.Session, env protocol.Envelope) (quit bool) {
	defer func() {
		if r := recover(); r != nil {
			sess.Logger().Error("panic while dispatching",
				observability.Kind(env.Kind),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			_ = sess.SendError(fmt.Sprintf("%s: internal error", env.Kind))
			quit = false
		}
	}()
	return h.dir.Dispatch(sess, env)
}

package gameserver

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/uno/internal/game/room"
	"github.com/cory-johannsen/uno/internal/game/session"
	"github.com/cory-johannsen/uno/internal/observability"
	"github.com/cory-johannsen/uno/internal/protocol"
)

const maxChatRunes = 512

// Dispatch handles one inbound envelope for sess. Rejections are answered
// with a targeted ERROR (or CONNECT_REJECT) and never affect other sessions.
//
// Postcondition: Returns true when the client asked to disconnect.
func (d *Directory) Dispatch(sess *session.Session, env protocol.Envelope) bool {
	start := time.Now()
	req, err := protocol.DecodeRequest(env)
	if err != nil {
		d.reject(sess, env.Kind, "request", err)
		return false
	}
	if _, ok := req.(protocol.Connect); !ok && !sess.Connected() {
		if _, bye := req.(protocol.Disconnect); bye {
			return true
		}
		d.reject(sess, env.Kind, "request", ErrNotConnected)
		return false
	}

	quit := false
	switch r := req.(type) {
	case protocol.Connect:
		d.handleConnect(sess, r)
	case protocol.Disconnect:
		quit = true
	case protocol.CreateRoom:
		d.handleCreateRoom(sess, r)
	case protocol.JoinRoom:
		d.handleJoinRoom(sess, r)
	case protocol.LeaveRoom:
		d.handleLeaveRoom(sess)
	case protocol.StartGame:
		d.inRoom(sess, req, "start game", func(rm *room.Room, pid string) error {
			return rm.StartGame(pid)
		})
	case protocol.PlayCard:
		d.inRoom(sess, req, "play card", func(rm *room.Room, pid string) error {
			return rm.PlayCard(pid, r.CardIndex, r.DeclaredColor)
		})
	case protocol.DrawCard:
		d.inRoom(sess, req, "draw card", func(rm *room.Room, pid string) error {
			return rm.DrawCard(pid)
		})
	case protocol.EndTurn:
		d.inRoom(sess, req, "end turn", func(rm *room.Room, pid string) error {
			return rm.EndTurn(pid)
		})
	case protocol.CallUno:
		d.inRoom(sess, req, "call uno", func(rm *room.Room, pid string) error {
			return rm.CallUno(pid)
		})
	case protocol.Challenge:
		d.inRoom(sess, req, "challenge", func(rm *room.Room, pid string) error {
			return rm.Challenge(pid, r.ChallengedID)
		})
	case protocol.CatchUno:
		d.inRoom(sess, req, "catch uno", func(rm *room.Room, pid string) error {
			return rm.CatchUno(pid, r.TargetID)
		})
	case protocol.Chat:
		d.handleChat(sess, r)
	default:
		d.reject(sess, env.Kind, "request", fmt.Errorf("%w: %q", protocol.ErrUnknownKind, string(env.Kind)))
	}

	sess.Logger().Debug("dispatched", observability.Kind(env.Kind), observability.Duration(start))
	return quit
}

func (d *Directory) handleConnect(sess *session.Session, req protocol.Connect) {
	id, err := d.Connect(sess, req.Name)
	switch {
	case errors.Is(err, ErrInvalidName):
		sess.Logger().Debug("connect rejected", zap.Error(err))
		_ = sess.Send(protocol.KindConnectReject, err.Error())
		return
	case err != nil:
		d.reject(sess, protocol.KindConnect, "connect", err)
		return
	}
	if err := sess.Send(protocol.KindConnectAccept, id); err != nil {
		return
	}
	_ = sess.Send(protocol.KindRoomList, d.RoomList())
}

func (d *Directory) handleCreateRoom(sess *session.Session, req protocol.CreateRoom) {
	if _, err := d.CreateRoom(sess, req.Name); err != nil {
		d.reject(sess, req.Kind(), "create room", err)
		return
	}
	d.BroadcastRoomList()
}

func (d *Directory) handleJoinRoom(sess *session.Session, req protocol.JoinRoom) {
	if _, err := d.JoinRoom(sess, req.RoomID); err != nil {
		d.reject(sess, req.Kind(), "join room", err)
		return
	}
	d.BroadcastRoomList()
}

func (d *Directory) handleLeaveRoom(sess *session.Session) {
	if err := d.LeaveRoom(sess); err != nil {
		d.reject(sess, protocol.KindLeaveRoom, "leave room", err)
		return
	}
	d.BroadcastRoomList()
}

func (d *Directory) handleChat(sess *session.Session, req protocol.Chat) {
	text := strings.TrimSpace(req.Text)
	switch {
	case text == "":
		d.reject(sess, req.Kind(), "chat", ErrEmptyMessage)
		return
	case utf8.RuneCountInString(text) > maxChatRunes:
		d.reject(sess, req.Kind(), "chat", ErrMessageTooLong)
		return
	}
	d.inRoom(sess, req, "chat", func(rm *room.Room, pid string) error {
		return rm.Chat(pid, text)
	})
}

// inRoom runs op against sess's current room. A change of game state
// (started, finished) is reflected in a fresh ROOM_LIST.
func (d *Directory) inRoom(sess *session.Session, req protocol.Request, action string, op func(*room.Room, string) error) {
	pid := sess.PlayerID()
	rm, err := d.RoomOf(pid)
	if err != nil {
		d.reject(sess, req.Kind(), action, err)
		return
	}
	before := rm.State()
	if err := op(rm, pid); err != nil {
		d.reject(sess, req.Kind(), action, err)
		return
	}
	if rm.State() != before {
		d.BroadcastRoomList()
	}
}

// reject answers sess with an ERROR naming the failed action.
func (d *Directory) reject(sess *session.Session, kind protocol.Kind, action string, err error) {
	sess.Logger().Debug("request rejected", observability.Kind(kind), zap.String("action", action), zap.Error(err))
	_ = sess.SendError(fmt.Sprintf("%s: %v", action, err))
}

// Package gameserver is the room directory: it registers player identities,
// keeps the room registry and the player to room index, and routes each
// decoded client request to the right room.
package gameserver

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/uno/internal/config"
	"github.com/cory-johannsen/uno/internal/game/random"
	"github.com/cory-johannsen/uno/internal/game/room"
	"github.com/cory-johannsen/uno/internal/game/session"
	"github.com/cory-johannsen/uno/internal/observability"
	"github.com/cory-johannsen/uno/internal/protocol"
)

// Directory owns every room. Lock order is Directory, then Room; rooms never
// call back into the Directory.
type Directory struct {
	serverID string
	cfg      config.GameConfig
	sessions *session.Manager
	src      random.Source
	logger   *zap.Logger

	mu    sync.Mutex
	rooms map[string]*room.Room
	order []string // room ids in creation order
}

// NewDirectory creates an empty Directory.
//
// Precondition: sessions, src and logger must be non-nil; cfg must be validated.
func NewDirectory(serverID string, cfg config.GameConfig, sessions *session.Manager, src random.Source, logger *zap.Logger) *Directory {
	return &Directory{
		serverID: serverID,
		cfg:      cfg,
		sessions: sessions,
		src:      src,
		logger:   logger,
		rooms:    make(map[string]*room.Room),
	}
}

// ServerID is the sender id stamped on server messages.
func (d *Directory) ServerID() string { return d.serverID }

// Sessions returns the live session registry.
func (d *Directory) Sessions() *session.Manager { return d.sessions }

// NewSession wraps a freshly accepted transport.
func (d *Directory) NewSession(t protocol.Transport) *session.Session {
	return session.New(t, d.serverID, d.logger)
}

// validName trims s and checks it against the configured length bound.
func (d *Directory) validName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: must not be empty", ErrInvalidName)
	}
	if n := utf8.RuneCountInString(s); n > d.cfg.MaxNameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, d.cfg.MaxNameLength)
	}
	return s, nil
}

// Connect gives sess a player identity and registers it.
//
// Postcondition: Returns the new player id; ErrInvalidName for a bad name;
// session.ErrAlreadyConnected on a second call.
func (d *Directory) Connect(sess *session.Session, name string) (string, error) {
	name, err := d.validName(name)
	if err != nil {
		return "", err
	}
	id, err := sess.Connect(name)
	if err != nil {
		return "", err
	}
	if err := d.sessions.Add(sess); err != nil {
		return "", err
	}
	sess.Logger().Info("player connected", zap.String("name", name))
	return id, nil
}

// CreateRoom opens a room hosted by sess's player. An empty name becomes
// "<player>'s room".
//
// Precondition: sess has completed Connect.
// Postcondition: The host is seated and has received ROOM_UPDATE.
func (d *Directory) CreateRoom(sess *session.Session, name string) (*room.Room, error) {
	pid := sess.PlayerID()
	if !sess.Running() {
		return nil, ErrNoSession
	}
	if live, ok := d.sessions.Get(pid); !ok || live != sess {
		return nil, ErrNoSession
	}
	if strings.TrimSpace(name) == "" {
		name = sess.Name() + "'s room"
	}
	name, err := d.validName(name)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if sess.RoomID() != "" {
		return nil, ErrAlreadyInRoom
	}
	r := room.New(name, d.src, d.logger,
		room.WithMaxPlayers(d.cfg.MaxPlayers),
		room.WithHandSize(d.cfg.HandSize),
	)
	if err := r.AddPlayer(pid, sess.Name(), sess); err != nil {
		return nil, err
	}
	if _, err := d.sessions.MovePlayer(pid, r.ID()); err != nil {
		return nil, err
	}
	d.rooms[r.ID()] = r
	d.order = append(d.order, r.ID())

	d.logger.Info("room created", observability.RoomID(r.ID()), zap.String("name", name), observability.PlayerID(pid))
	return r, nil
}

// JoinRoom seats sess's player in roomID.
//
// Postcondition: Every member, including the joiner, has received ROOM_UPDATE.
func (d *Directory) JoinRoom(sess *session.Session, roomID string) (*room.Room, error) {
	pid := sess.PlayerID()

	d.mu.Lock()
	defer d.mu.Unlock()

	if sess.RoomID() != "" {
		return nil, ErrAlreadyInRoom
	}
	r, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := r.AddPlayer(pid, sess.Name(), sess); err != nil {
		return nil, err
	}
	if _, err := d.sessions.MovePlayer(pid, r.ID()); err != nil {
		return nil, err
	}
	return r, nil
}

// LeaveRoom removes sess's player from their room, deleting the room when it
// becomes empty.
//
// Postcondition: Remaining members have received ROOM_UPDATE.
func (d *Directory) LeaveRoom(sess *session.Session) error {
	pid := sess.PlayerID()

	d.mu.Lock()
	defer d.mu.Unlock()

	roomID := sess.RoomID()
	r, ok := d.rooms[roomID]
	if !ok {
		return ErrNotInRoom
	}
	remaining, err := r.RemovePlayer(pid)
	if err != nil {
		return err
	}
	if _, err := d.sessions.MovePlayer(pid, ""); err != nil {
		d.logger.Warn("clearing room presence", observability.PlayerID(pid), zap.Error(err))
	}
	if remaining == 0 {
		d.removeRoomLocked(roomID)
	}
	return nil
}

// Disconnect tears down sess: it closes the transport, leaves any room and
// deregisters the player. Failures are logged, never returned.
//
// The transport is closed first so a broadcast blocked writing to this
// session fails instead of holding the room lock LeaveRoom needs.
//
// Postcondition: Returns true when room membership changed.
func (d *Directory) Disconnect(sess *session.Session) bool {
	sess.Close()
	changed := false
	if pid := sess.PlayerID(); pid != "" {
		if sess.RoomID() != "" {
			if err := d.LeaveRoom(sess); err != nil {
				sess.Logger().Warn("leaving room on disconnect", zap.Error(err))
			} else {
				changed = true
			}
		}
		if err := d.sessions.Remove(pid); err != nil {
			sess.Logger().Debug("deregistering player", zap.Error(err))
		}
	}
	return changed
}

// RemoveRoom deletes a room from the registry. Players still seated in it are
// returned to the lobby and told why.
//
// Postcondition: Returns false if no such room existed.
func (d *Directory) RemoveRoom(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeRoomLocked(roomID)
}

func (d *Directory) removeRoomLocked(roomID string) bool {
	r, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	for _, pid := range d.sessions.PlayerIDsInRoom(roomID) {
		if _, err := d.sessions.MovePlayer(pid, ""); err != nil {
			d.logger.Warn("evicting player", observability.PlayerID(pid), zap.Error(err))
			continue
		}
		if sess, ok := d.sessions.Get(pid); ok {
			_ = sess.SendInfo(fmt.Sprintf("room %q was closed", r.Name()))
		}
	}
	delete(d.rooms, roomID)
	for i, id := range d.order {
		if id == roomID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.logger.Info("room removed", observability.RoomID(roomID))
	return true
}

// Room returns the room with the given id.
func (d *Directory) Room(roomID string) (*room.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[roomID]
	return r, ok
}

// RoomOf returns the room playerID currently occupies.
//
// Postcondition: Returns ErrNotInRoom when the player is unknown or in no room.
func (d *Directory) RoomOf(playerID string) (*room.Room, error) {
	sess, ok := d.sessions.Get(playerID)
	if !ok {
		return nil, ErrNotInRoom
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[sess.RoomID()]
	if !ok {
		return nil, ErrNotInRoom
	}
	return r, nil
}

// RoomList summarizes every room in creation order.
//
// Postcondition: Returns a non-nil slice.
func (d *Directory) RoomList() []protocol.RoomSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := make([]protocol.RoomSummary, 0, len(d.order))
	for _, id := range d.order {
		list = append(list, d.rooms[id].Summary())
	}
	return list
}

// BroadcastRoomList sends ROOM_LIST to every connected session.
func (d *Directory) BroadcastRoomList() {
	list := d.RoomList()
	for _, sess := range d.sessions.Sessions() {
		if err := sess.Send(protocol.KindRoomList, list); err != nil {
			sess.Logger().Debug("room list not delivered", zap.Error(err))
		}
	}
}

// Package room coordinates one match: it owns the roster, the host, the
// authoritative game, and the per-viewer fanout of game state.
package room

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/uno/internal/game/random"
	"github.com/cory-johannsen/uno/internal/game/uno"
	"github.com/cory-johannsen/uno/internal/observability"
	"github.com/cory-johannsen/uno/internal/protocol"
)

// Sender is the capability a room holds for each member's connection.
type Sender interface {
	Send(kind protocol.Kind, payload any) error
}

type member struct {
	id     string
	name   string
	sender Sender
}

// Option configures a Room.
type Option func(*Room)

// WithMaxPlayers caps the roster. Values outside 1..uno.MaxPlayers are ignored.
func WithMaxPlayers(n int) Option {
	return func(r *Room) {
		if n >= 1 && n <= uno.MaxPlayers {
			r.maxPlayers = n
		}
	}
}

// WithHandSize sets the number of cards dealt per player.
func WithHandSize(n int) Option {
	return func(r *Room) {
		if n > 0 {
			r.handSize = n
		}
	}
}

// Room is one lobby/match container. All methods are safe for concurrent use;
// every state-changing operation and the broadcast it triggers run under one lock.
type Room struct {
	id         string
	name       string
	src        random.Source
	logger     *zap.Logger
	maxPlayers int
	handSize   int

	mu      sync.Mutex
	hostID  string
	members []*member
	game    *uno.Game
}

// New creates an empty room with a fresh id and an unstarted game.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a Room with no members.
func New(name string, src random.Source, logger *zap.Logger, opts ...Option) *Room {
	r := &Room{
		id:         uuid.NewString(),
		name:       name,
		src:        src,
		maxPlayers: uno.MaxPlayers,
		handSize:   uno.DefaultHandSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.With(observability.RoomID(r.id))
	r.game = uno.NewGame(src, uno.WithHandSize(r.handSize))
	return r
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Name returns the display name.
func (r *Room) Name() string { return r.name }

// HostID returns the current host's player id, or "" when empty.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// Size returns the number of members.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// HasMember reports whether playerID is in the room.
func (r *Room) HasMember(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memberLocked(playerID) != nil
}

// State returns the state of the current game.
func (r *Room) State() uno.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.State()
}

// Summary returns the room-list entry for this room.
func (r *Room) Summary() protocol.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaryLocked()
}

// Snapshot returns the ROOM_UPDATE payload for this room.
func (r *Room) Snapshot() protocol.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// PlayerView returns a freshly built GameState for viewerID.
//
// Postcondition: Only the viewer's own hand is populated.
func (r *Room) PlayerView(viewerID string) (protocol.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.memberLocked(viewerID) == nil {
		return protocol.GameState{}, ErrNotMember
	}
	return r.gameStateLocked(viewerID), nil
}

// AddPlayer seats a new member and broadcasts ROOM_UPDATE to the whole room.
// The first member becomes host. Joining a room whose game is over resets it
// to an unstarted game with the current roster.
//
// Precondition: sender must be non-nil.
// Postcondition: On error the room is unchanged.
func (r *Room) AddPlayer(playerID, name string, sender Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memberLocked(playerID) != nil {
		return ErrAlreadyMember
	}
	if r.game.State() == uno.StateInProgress {
		return ErrGameInProgress
	}
	if len(r.members) >= r.maxPlayers {
		return ErrRoomFull
	}
	if r.game.Over() {
		r.resetLocked()
	}
	if err := r.game.AddPlayer(uno.NewPlayer(playerID, name)); err != nil {
		return err
	}
	r.members = append(r.members, &member{id: playerID, name: name, sender: sender})
	if r.hostID == "" {
		r.hostID = playerID
	}

	r.logger.Info("player joined", observability.PlayerID(playerID), zap.Int("members", len(r.members)))
	r.broadcastLocked(protocol.KindRoomUpdate, r.snapshotLocked())
	return nil
}

// RemovePlayer removes a member from the roster and the game. When the host
// leaves, the longest-present remaining member becomes host. Remaining members
// receive ROOM_UPDATE, and GAME_UPDATE or GAME_OVER if a game was running.
//
// Postcondition: Returns the number of members left, or ErrNotMember.
func (r *Room) RemovePlayer(playerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(playerID)
	if idx < 0 {
		return len(r.members), ErrNotMember
	}
	leaving := r.members[idx]
	inProgress := r.game.State() == uno.StateInProgress

	if err := r.game.RemovePlayer(playerID); err != nil {
		r.logger.Error("removing player from game", observability.PlayerID(playerID), zap.Error(err))
	}
	r.members = slices.Delete(r.members, idx, idx+1)
	r.logger.Info("player left", observability.PlayerID(playerID), zap.Int("members", len(r.members)))

	if len(r.members) == 0 {
		r.hostID = ""
		return 0, nil
	}

	if r.hostID == playerID {
		r.hostID = r.members[0].id
		r.broadcastLocked(protocol.KindInfo, fmt.Sprintf("%s is now the host", r.members[0].name))
	}
	r.broadcastLocked(protocol.KindRoomUpdate, r.snapshotLocked())

	if inProgress {
		r.broadcastLocked(protocol.KindInfo, fmt.Sprintf("%s left the game", leaving.name))
		r.broadcastStateLocked(protocol.KindGameUpdate)
		r.announceWinnerLocked()
	}
	return len(r.members), nil
}

// StartGame deals a new game. Only the current host may start, and a room
// whose game is over starts a rematch with a fresh deck.
//
// Postcondition: Each member receives START_GAME carrying their own view.
func (r *Room) StartGame(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memberLocked(requesterID) == nil {
		return ErrNotMember
	}
	if requesterID != r.hostID {
		return ErrNotHost
	}
	if r.game.Over() {
		if len(r.members) < uno.MinPlayers {
			return uno.ErrNotEnoughPlayers
		}
		r.resetLocked()
	}
	if err := r.game.Start(); err != nil {
		return err
	}

	r.logger.Info("game started", zap.Int("players", len(r.members)))
	r.broadcastStateLocked(protocol.KindStartGame)
	return nil
}

// PlayCard plays the card at index from playerID's hand. declaredColor is
// required for wild cards and ignored otherwise, even when it is not a color.
//
// Postcondition: On success every member receives GAME_UPDATE, then GAME_OVER if the play won.
func (r *Room) PlayCard(playerID string, index int, declaredColor string) error {
	declared := uno.ColorWild
	var parseErr error
	if declaredColor != "" {
		declared, parseErr = uno.ParseColor(declaredColor)
		if parseErr != nil {
			declared = uno.ColorWild
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memberLocked(playerID) == nil {
		return ErrNotMember
	}
	card, err := r.game.PlayCard(playerID, index, declared)
	if err != nil {
		if parseErr != nil && errors.Is(err, uno.ErrInvalidColor) {
			return parseErr
		}
		return err
	}
	r.logger.Debug("card played", observability.PlayerID(playerID), zap.Stringer("card", card))
	r.broadcastStateLocked(protocol.KindGameUpdate)
	r.announceWinnerLocked()
	return nil
}

// DrawCard draws one card for playerID. Only the drawing player is sent the new state.
func (r *Room) DrawCard(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.memberLocked(playerID)
	if m == nil {
		return ErrNotMember
	}
	if _, err := r.game.DrawCard(playerID); err != nil {
		return err
	}
	r.sendLocked(m, protocol.KindGameUpdate, r.gameStateLocked(m.id))
	return nil
}

// EndTurn passes playerID's turn and broadcasts GAME_UPDATE.
func (r *Room) EndTurn(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memberLocked(playerID) == nil {
		return ErrNotMember
	}
	if err := r.game.EndTurn(playerID); err != nil {
		return err
	}
	r.broadcastStateLocked(protocol.KindGameUpdate)
	return nil
}

// CallUno declares uno for playerID and broadcasts CALL_UNO with the player's
// name, followed by GAME_UPDATE.
func (r *Room) CallUno(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.memberLocked(playerID)
	if m == nil {
		return ErrNotMember
	}
	if err := r.game.CallUno(playerID); err != nil {
		return err
	}
	r.broadcastLocked(protocol.KindCallUno, m.name)
	r.broadcastStateLocked(protocol.KindGameUpdate)
	return nil
}

// CatchUno penalizes targetID for holding one card without calling uno.
func (r *Room) CatchUno(accuserID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accuser := r.memberLocked(accuserID)
	if accuser == nil {
		return ErrNotMember
	}
	if err := r.game.PenalizeMissedUno(accuserID, targetID); err != nil {
		return err
	}
	target := r.memberLocked(targetID)
	r.broadcastLocked(protocol.KindInfo,
		fmt.Sprintf("%s caught %s without calling UNO: %s draws 2", accuser.name, target.name, target.name))
	r.broadcastStateLocked(protocol.KindGameUpdate)
	return nil
}

// Challenge disputes the wild draw four challengedID just played. The
// outcome depends on whether the challenged player held a card of the color
// the wild was played over.
//
// Postcondition: On success every member receives an INFO notice and GAME_UPDATE.
func (r *Room) Challenge(challengerID, challengedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	challenger := r.memberLocked(challengerID)
	if challenger == nil {
		return ErrNotMember
	}
	res, err := r.game.Challenge(challengerID, challengedID)
	if err != nil {
		return err
	}
	challenged := r.memberLocked(challengedID)

	var notice string
	if res.Upheld {
		notice = fmt.Sprintf("%s challenged %s and won: %s could have played %s and draws %d",
			challenger.name, challenged.name, challenged.name, res.PriorColor, res.Drawn)
	} else {
		notice = fmt.Sprintf("%s challenged %s and lost: %s draws %d",
			challenger.name, challenged.name, challenger.name, res.Drawn)
	}
	r.logger.Info("challenge resolved", zap.Bool("upheld", res.Upheld), observability.PlayerID(res.Penalized.ID))
	r.broadcastLocked(protocol.KindInfo, notice)
	r.broadcastStateLocked(protocol.KindGameUpdate)
	return nil
}

// Chat relays text from playerID to every member as "name: text".
func (r *Room) Chat(playerID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.memberLocked(playerID)
	if m == nil {
		return ErrNotMember
	}
	r.broadcastLocked(protocol.KindChatMessage, m.name+": "+text)
	return nil
}

// Broadcast sends the same payload to every member.
func (r *Room) Broadcast(kind protocol.Kind, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(kind, payload)
}

func (r *Room) broadcastLocked(kind protocol.Kind, payload any) {
	for _, m := range r.members {
		r.sendLocked(m, kind, payload)
	}
}

// broadcastStateLocked sends each member a view built for them.
func (r *Room) broadcastStateLocked(kind protocol.Kind) {
	for _, m := range r.members {
		r.sendLocked(m, kind, r.gameStateLocked(m.id))
	}
}

// sendLocked delivers to one member. A failed send has already closed the
// member's session; its read loop removes it from the room.
func (r *Room) sendLocked(m *member, kind protocol.Kind, payload any) {
	if err := m.sender.Send(kind, payload); err != nil {
		r.logger.Debug("send to member failed", observability.PlayerID(m.id), observability.Kind(kind), zap.Error(err))
	}
}

func (r *Room) announceWinnerLocked() {
	w := r.game.Winner()
	if !r.game.Over() || w == nil {
		return
	}
	r.logger.Info("game over", zap.String("winner_id", w.ID))
	r.broadcastLocked(protocol.KindGameOver, protocol.Winner{ID: w.ID, Name: w.Name})
}

// resetLocked replaces the game with an unstarted one seating the roster.
func (r *Room) resetLocked() {
	r.game = uno.NewGame(r.src, uno.WithHandSize(r.handSize))
	for _, m := range r.members {
		if err := r.game.AddPlayer(uno.NewPlayer(m.id, m.name)); err != nil {
			r.logger.Error("reseating player", observability.PlayerID(m.id), zap.Error(err))
		}
	}
}

func (r *Room) memberLocked(playerID string) *member {
	if i := r.indexLocked(playerID); i >= 0 {
		return r.members[i]
	}
	return nil
}

func (r *Room) indexLocked(playerID string) int {
	return slices.IndexFunc(r.members, func(m *member) bool { return m.id == playerID })
}

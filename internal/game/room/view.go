package room

import (
	"github.com/cory-johannsen/uno/internal/game/uno"
	"github.com/cory-johannsen/uno/internal/protocol"
)

func cardView(c uno.Card) protocol.Card {
	return protocol.Card{Color: c.Color.String(), Kind: c.Kind.String(), Number: c.Number}
}

// gameStateLocked projects the game for viewerID. Every call builds new values.
//
// Precondition: r.mu is held.
func (r *Room) gameStateLocked(viewerID string) protocol.GameState {
	g := r.game
	state := protocol.GameState{
		ViewerID:     viewerID,
		Clockwise:    g.Clockwise(),
		DrawPileSize: g.DrawPileSize(),
		Started:      g.Started(),
		GameOver:     g.Over(),
	}

	players := g.Players()
	state.Players = make([]protocol.PlayerInfo, 0, len(players))
	for _, p := range players {
		info := protocol.PlayerInfo{
			ID:        p.ID,
			Name:      p.Name,
			HandSize:  p.HandSize(),
			CalledUno: p.CalledUno(),
		}
		if p.ID == viewerID {
			hand := p.Hand()
			info.Hand = make([]protocol.Card, len(hand))
			for i, c := range hand {
				info.Hand[i] = cardView(c)
			}
		}
		state.Players = append(state.Players, info)
	}

	if top, ok := g.TopCard(); ok {
		v := cardView(top)
		state.TopCard = &v
	}
	if cur := g.CurrentPlayer(); cur != nil {
		state.CurrentPlayerID = cur.ID
	}
	if w := g.Winner(); w != nil {
		state.WinnerID = w.ID
	}
	return state
}

// summaryLocked builds the room-list entry.
//
// Precondition: r.mu is held.
func (r *Room) summaryLocked() protocol.RoomSummary {
	return protocol.RoomSummary{
		ID:          r.id,
		Name:        r.name,
		HostName:    r.hostNameLocked(),
		PlayerCount: len(r.members),
		GameStarted: r.game.State() == uno.StateInProgress,
	}
}

// snapshotLocked builds the ROOM_UPDATE payload.
//
// Precondition: r.mu is held.
func (r *Room) snapshotLocked() protocol.RoomSnapshot {
	snap := protocol.RoomSnapshot{
		ID:          r.id,
		Name:        r.name,
		HostID:      r.hostID,
		HostName:    r.hostNameLocked(),
		Members:     make([]protocol.Member, 0, len(r.members)),
		MaxPlayers:  r.maxPlayers,
		GameStarted: r.game.Started(),
		GameOver:    r.game.Over(),
	}
	for _, m := range r.members {
		snap.Members = append(snap.Members, protocol.Member{ID: m.id, Name: m.name})
	}
	return snap
}

func (r *Room) hostNameLocked() string {
	if m := r.memberLocked(r.hostID); m != nil {
		return m.name
	}
	return ""
}

package session

import (
	"fmt"
	"sync"
)

// Manager tracks all identified sessions and room occupancy.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	players  map[string]*Session        // playerID → session
	roomSets map[string]map[string]bool // roomID → set of playerIDs
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		players:  make(map[string]*Session),
		roomSets: make(map[string]map[string]bool),
	}
}

// Add registers a connected session in the lobby.
//
// Precondition: sess must have completed Connect.
// Postcondition: Returns an error if the session has no player id or the id is already registered.
func (m *Manager) Add(sess *Session) error {
	uid := sess.PlayerID()
	if uid == "" {
		return fmt.Errorf("session %s has no player identity", sess.ID())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.players[uid]; exists {
		return fmt.Errorf("player %q already connected", uid)
	}
	m.players[uid] = sess
	return nil
}

// Remove unregisters a player and clears any room occupancy.
//
// Postcondition: The player is removed from all tracking. Returns an error if not found.
func (m *Manager) Remove(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[uid]
	if !exists {
		return fmt.Errorf("player %q not found", uid)
	}
	m.leaveRoomLocked(uid, sess.RoomID())
	sess.setRoomID("")
	delete(m.players, uid)
	return nil
}

// MovePlayer moves a player into roomID, or back to the lobby when roomID is "".
//
// Postcondition: Returns the previous room id, or an error if the player is not found.
func (m *Manager) MovePlayer(uid, roomID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[uid]
	if !exists {
		return "", fmt.Errorf("player %q not found", uid)
	}

	old := sess.RoomID()
	m.leaveRoomLocked(uid, old)
	sess.setRoomID(roomID)
	if roomID != "" {
		if m.roomSets[roomID] == nil {
			m.roomSets[roomID] = make(map[string]bool)
		}
		m.roomSets[roomID][uid] = true
	}
	return old, nil
}

func (m *Manager) leaveRoomLocked(uid, roomID string) {
	if rs, ok := m.roomSets[roomID]; ok {
		delete(rs, uid)
		if len(rs) == 0 {
			delete(m.roomSets, roomID)
		}
	}
}

// PlayerIDsInRoom returns the ids of all players in the given room.
//
// Postcondition: Returns a slice of ids (may be empty).
func (m *Manager) PlayerIDsInRoom(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uids, ok := m.roomSets[roomID]
	if !ok {
		return nil
	}
	result := make([]string, 0, len(uids))
	for uid := range uids {
		result = append(result, uid)
	}
	return result
}

// Get returns the session for the given player id.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(uid string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.players[uid]
	return sess, ok
}

// Sessions returns a snapshot of every registered session.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.players))
	for _, sess := range m.players {
		out = append(out, sess)
	}
	return out
}

// PlayerCount returns the total number of identified players.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

package protocol

// Card is the wire view of a single card.
type Card struct {
	Color  string `json:"color"`
	Kind   string `json:"kind"`
	Number int    `json:"number"`
}

// PlayerInfo describes one seated player as seen by a particular viewer.
// Hand is populated only for the viewer's own entry.
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	HandSize  int    `json:"handSize"`
	Hand      []Card `json:"hand,omitempty"`
	CalledUno bool   `json:"calledUno"`
}

// GameState is a per-viewer projection of a room's game.
type GameState struct {
	ViewerID        string       `json:"viewerId"`
	Players         []PlayerInfo `json:"players"`
	TopCard         *Card        `json:"topCard,omitempty"`
	CurrentPlayerID string       `json:"currentPlayerId,omitempty"`
	Clockwise       bool         `json:"clockwise"`
	DrawPileSize    int          `json:"drawPileSize"`
	Started         bool         `json:"started"`
	GameOver        bool         `json:"gameOver"`
	WinnerID        string       `json:"winnerId,omitempty"`
}

// RoomSummary is one entry of a ROOM_LIST payload.
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HostName    string `json:"hostName"`
	PlayerCount int    `json:"playerCount"`
	GameStarted bool   `json:"gameStarted"`
}

// Member is a room occupant in a RoomSnapshot.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomSnapshot is the ROOM_UPDATE payload.
type RoomSnapshot struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	HostID      string   `json:"hostId"`
	HostName    string   `json:"hostName"`
	Members     []Member `json:"members"`
	MaxPlayers  int      `json:"maxPlayers"`
	GameStarted bool     `json:"gameStarted"`
	GameOver    bool     `json:"gameOver"`
}

// Winner is the GAME_OVER payload.
type Winner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayCardPayload is the PLAY_CARD payload. DeclaredColor is required only for wild cards.
type PlayCardPayload struct {
	CardIndex     int    `json:"cardIndex"`
	DeclaredColor string `json:"declaredColor,omitempty"`
}

// Package protocol defines the wire format exchanged between clients and the
// server: a typed envelope carrying a message kind, a kind-dependent payload
// and a sender identifier. Framing is left to the transport.
package protocol

// Kind names a message type on the wire.
type Kind string

// Client to server kinds.
const (
	KindConnect     Kind = "CONNECT"
	KindDisconnect  Kind = "DISCONNECT"
	KindCreateRoom  Kind = "CREATE_ROOM"
	KindJoinRoom    Kind = "JOIN_ROOM"
	KindLeaveRoom   Kind = "LEAVE_ROOM"
	KindStartGame   Kind = "START_GAME"
	KindPlayCard    Kind = "PLAY_CARD"
	KindDrawCard    Kind = "DRAW_CARD"
	KindEndTurn     Kind = "END_TURN"
	KindCallUno     Kind = "CALL_UNO"
	KindChallenge   Kind = "CHALLENGE"
	KindCatchUno    Kind = "CATCH_UNO"
	KindChatMessage Kind = "CHAT_MESSAGE"
)

// Server to client kinds. START_GAME, CALL_UNO and CHAT_MESSAGE travel both ways.
const (
	KindConnectAccept Kind = "CONNECT_ACCEPT"
	KindConnectReject Kind = "CONNECT_REJECT"
	KindRoomList      Kind = "ROOM_LIST"
	KindRoomUpdate    Kind = "ROOM_UPDATE"
	KindGameUpdate    Kind = "GAME_UPDATE"
	KindGameOver      Kind = "GAME_OVER"
	KindError         Kind = "ERROR"
	KindInfo          Kind = "INFO"
)

var knownKinds = map[Kind]bool{
	KindConnect: true, KindDisconnect: true, KindCreateRoom: true, KindJoinRoom: true,
	KindLeaveRoom: true, KindStartGame: true, KindPlayCard: true, KindDrawCard: true,
	KindEndTurn: true, KindCallUno: true, KindChallenge: true, KindCatchUno: true,
	KindChatMessage: true, KindConnectAccept: true, KindConnectReject: true,
	KindRoomList: true, KindRoomUpdate: true, KindGameUpdate: true, KindGameOver: true,
	KindError: true, KindInfo: true,
}

// Known reports whether k is part of the protocol.
func (k Kind) Known() bool {
	return knownKinds[k]
}

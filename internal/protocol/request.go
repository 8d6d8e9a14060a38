package protocol

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by DecodeRequest for a kind clients may not send.
var ErrUnknownKind = errors.New("unknown message kind")

// Request is a decoded client-to-server message. The concrete type identifies the kind.
type Request interface {
	Kind() Kind
}

type (
	// Connect claims a display name.
	Connect struct{ Name string }
	// Disconnect asks the server to end the session.
	Disconnect struct{}
	// CreateRoom opens a room hosted by the sender. An empty Name is allowed.
	CreateRoom struct{ Name string }
	// JoinRoom enters an existing room.
	JoinRoom struct{ RoomID string }
	// LeaveRoom exits the sender's room.
	LeaveRoom struct{}
	// StartGame starts, or restarts after game over, the sender's room.
	StartGame struct{}
	// PlayCard plays the card at CardIndex of the sender's hand.
	PlayCard struct {
		CardIndex     int
		DeclaredColor string
	}
	// DrawCard draws one card.
	DrawCard struct{}
	// EndTurn passes the turn.
	EndTurn struct{}
	// CallUno declares uno.
	CallUno struct{}
	// Challenge disputes the last wild draw four played by ChallengedID.
	Challenge struct{ ChallengedID string }
	// CatchUno accuses TargetID of holding one card without calling uno.
	CatchUno struct{ TargetID string }
	// Chat relays Text to the sender's room.
	Chat struct{ Text string }
)

func (Connect) Kind() Kind    { return KindConnect }
func (Disconnect) Kind() Kind { return KindDisconnect }
func (CreateRoom) Kind() Kind { return KindCreateRoom }
func (JoinRoom) Kind() Kind   { return KindJoinRoom }
func (LeaveRoom) Kind() Kind  { return KindLeaveRoom }
func (StartGame) Kind() Kind  { return KindStartGame }
func (PlayCard) Kind() Kind   { return KindPlayCard }
func (DrawCard) Kind() Kind   { return KindDrawCard }
func (EndTurn) Kind() Kind    { return KindEndTurn }
func (CallUno) Kind() Kind    { return KindCallUno }
func (Challenge) Kind() Kind  { return KindChallenge }
func (CatchUno) Kind() Kind   { return KindCatchUno }
func (Chat) Kind() Kind       { return KindChatMessage }

// DecodeRequest maps an inbound envelope to its typed request.
//
// Postcondition: Returns an error wrapping ErrUnknownKind for kinds clients
// may not send, or ErrMalformed when the payload does not fit the kind.
func DecodeRequest(e Envelope) (Request, error) {
	switch e.Kind {
	case KindConnect:
		var name string
		if err := decodeOptional(e, &name); err != nil {
			return nil, err
		}
		return Connect{Name: name}, nil
	case KindDisconnect:
		return Disconnect{}, nil
	case KindCreateRoom:
		var name string
		if err := decodeOptional(e, &name); err != nil {
			return nil, err
		}
		return CreateRoom{Name: name}, nil
	case KindJoinRoom:
		var id string
		if err := decodeRequired(e, &id); err != nil {
			return nil, err
		}
		return JoinRoom{RoomID: id}, nil
	case KindLeaveRoom:
		return LeaveRoom{}, nil
	case KindStartGame:
		return StartGame{}, nil
	case KindPlayCard:
		var p PlayCardPayload
		if err := decodeRequired(e, &p); err != nil {
			return nil, err
		}
		return PlayCard{CardIndex: p.CardIndex, DeclaredColor: p.DeclaredColor}, nil
	case KindDrawCard:
		return DrawCard{}, nil
	case KindEndTurn:
		return EndTurn{}, nil
	case KindCallUno:
		return CallUno{}, nil
	case KindChallenge:
		var id string
		if err := decodeRequired(e, &id); err != nil {
			return nil, err
		}
		return Challenge{ChallengedID: id}, nil
	case KindCatchUno:
		var id string
		if err := decodeRequired(e, &id); err != nil {
			return nil, err
		}
		return CatchUno{TargetID: id}, nil
	case KindChatMessage:
		var text string
		if err := decodeRequired(e, &text); err != nil {
			return nil, err
		}
		return Chat{Text: text}, nil
	default:
		if e.Kind.Known() {
			return nil, fmt.Errorf("%w: %q is sent by the server only", ErrUnknownKind, string(e.Kind))
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(e.Kind))
	}
}

func decodeRequired(e Envelope, v any) error {
	if err := e.DecodePayload(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func decodeOptional(e Envelope, v any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return decodeRequired(e, v)
}

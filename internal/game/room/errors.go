package room

import "errors"

var (
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game in progress")
	ErrAlreadyMember  = errors.New("already in this room")
	ErrNotMember      = errors.New("not in this room")
	ErrNotHost        = errors.New("only the host can start the game")
)

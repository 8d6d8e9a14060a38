package gameserver

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotInRoom      = errors.New("not in a room")
	ErrAlreadyInRoom  = errors.New("already in a room")
	ErrNotConnected   = errors.New("send CONNECT first")
	ErrInvalidName    = errors.New("invalid name")
	ErrNoSession      = errors.New("no live session")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message too long")
)

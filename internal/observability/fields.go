package observability

import (
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys used across the server.
const (
	KeyService    = "service"
	KeyServerID   = "server_id"
	KeyRemoteAddr = "remote_addr"
	KeySessionID  = "session_id"
	KeyPlayerID   = "player_id"
	KeyRoomID     = "room_id"
	KeyKind       = "kind"
	KeyDuration   = "duration"
)

// RemoteAddr tags a log entry with the peer address.
func RemoteAddr(addr string) zap.Field { return zap.String(KeyRemoteAddr, addr) }

// SessionID tags a log entry with a session id.
func SessionID(id string) zap.Field { return zap.String(KeySessionID, id) }

// PlayerID tags a log entry with a player id.
func PlayerID(id string) zap.Field { return zap.String(KeyPlayerID, id) }

// RoomID tags a log entry with a room id.
func RoomID(id string) zap.Field { return zap.String(KeyRoomID, id) }

// Kind tags a log entry with a message kind.
func Kind[K ~string](kind K) zap.Field { return zap.String(KeyKind, string(kind)) }

// Duration tags a log entry with the time elapsed since start.
func Duration(start time.Time) zap.Field { return zap.Duration(KeyDuration, time.Since(start)) }

// StdWriter adapts logger for APIs that want an io.Writer, such as HTTP access logs.
// Each write becomes one entry at level.
//
// Postcondition: Returns a non-nil writer, falling back to info when level is invalid.
func StdWriter(logger *zap.Logger, level zapcore.Level) io.Writer {
	std, err := zap.NewStdLogAt(logger, level)
	if err != nil {
		std = zap.NewStdLog(logger)
	}
	return std.Writer()
}

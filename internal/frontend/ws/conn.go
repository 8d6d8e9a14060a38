// Package ws carries protocol envelopes over WebSocket, one envelope per
// text message.
package ws

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cory-johannsen/uno/internal/protocol"
)

// closeGracePeriod bounds how long Close waits to queue the close frame.
const closeGracePeriod = 250 * time.Millisecond

// Conn adapts a WebSocket connection to protocol.Transport. Writes are
// serialized; gorilla connections support one concurrent writer.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps ws. Messages larger than maxFrame bytes fail the connection.
//
// Precondition: ws must be an open, upgraded connection.
func NewConn(ws *websocket.Conn, writeTimeout time.Duration, maxFrame int) *Conn {
	if maxFrame > 0 {
		ws.SetReadLimit(int64(maxFrame))
	}
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// ReadEnvelope reads the next message and decodes it.
//
// Postcondition: Binary messages and undecodable text yield an error wrapping
// protocol.ErrMalformed; a clean close frame yields io.EOF.
func (c *Conn) ReadEnvelope() (protocol.Envelope, error) {
	mt, data, err := c.ws.ReadMessage()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return protocol.Envelope{}, io.EOF
	}
	if err != nil {
		return protocol.Envelope{}, err
	}
	if mt != websocket.TextMessage {
		return protocol.Envelope{}, fmt.Errorf("%w: expected a text message", protocol.ErrMalformed)
	}
	return protocol.Unmarshal(data)
}

// WriteEnvelope sends env as one text message.
func (c *Conn) WriteEnvelope(env protocol.Envelope) error {
	data, err := protocol.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a best-effort close frame and closes the connection. It does
// not wait for an in-flight WriteEnvelope; closing the socket fails it.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the client's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

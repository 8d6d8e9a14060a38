package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/uno/internal/protocol"
)

// upgradedPair returns the server side of a fresh WebSocket connection and
// the client that dialed it.
func upgradedPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	serverSide := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- raw
	}))
	t.Cleanup(ts.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case raw := <-serverSide:
		return raw, client
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade did not complete")
		return nil, nil
	}
}

func TestConnCloseDoesNotWaitForStalledWrite(t *testing.T) {
	raw, _ := upgradedPair(t) // the client never reads
	c := NewConn(raw, 0, 0)

	env, err := protocol.NewEnvelope(protocol.KindInfo, "srv", strings.Repeat("x", 60*1024))
	require.NoError(t, err)

	writeErr := make(chan error, 1)
	go func() {
		for {
			if err := c.WriteEnvelope(env); err != nil {
				writeErr <- err
				return
			}
		}
	}()
	// Give the writer time to fill the socket buffers and block.
	time.Sleep(300 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked behind a stalled write")
	}

	select {
	case err := <-writeErr:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("closing the connection did not release the stalled write")
	}
}

func TestConnWriteTimeoutReleasesStalledWrite(t *testing.T) {
	raw, _ := upgradedPair(t)
	c := NewConn(raw, 100*time.Millisecond, 0)
	t.Cleanup(func() { c.Close() })

	env, err := protocol.NewEnvelope(protocol.KindInfo, "srv", strings.Repeat("x", 60*1024))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		for {
			if err := c.WriteEnvelope(env); err != nil {
				done <- err
				return
			}
		}
	}()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("write deadline never fired for a peer that does not read")
	}
}

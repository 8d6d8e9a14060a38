// Package testutil provides in-memory and network test clients for exercising
// the server without a real game client.
package testutil

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/cory-johannsen/uno/internal/protocol"
)

// LineClient is a newline-delimited JSON test client for integration testing.
type LineClient struct {
	conn   net.Conn
	reader *bufio.Reader
	t      *testing.T
}

// NewLineClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected LineClient or fails the test.
func NewLineClient(t *testing.T, addr string) *LineClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}

	t.Cleanup(func() {
		conn.Close()
	})

	client := &LineClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
		t:      t,
	}

	t.Logf("line client connected to %s [%s]", addr, time.Since(start))
	return client
}

// Send encodes payload under kind and writes it as one line.
//
// Postcondition: The envelope plus '\n' is written to the connection, or the test fails.
func (c *LineClient) Send(kind protocol.Kind, payload any) {
	c.t.Helper()
	env, err := protocol.NewEnvelope(kind, "", payload)
	if err != nil {
		c.t.Fatalf("encoding %s: %v", kind, err)
	}
	data, err := protocol.Marshal(env)
	if err != nil {
		c.t.Fatalf("encoding %s: %v", kind, err)
	}
	c.SendRaw(string(data))
}

// SendRaw writes text followed by '\n'.
func (c *LineClient) SendRaw(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write([]byte(text + "\n")); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Read returns the next envelope from the server.
//
// Postcondition: Returns the decoded envelope, or fails the test on timeout or decode error.
func (c *LineClient) Read(timeout time.Duration) protocol.Envelope {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		c.t.Fatalf("reading envelope: got %q, error: %v", line, err)
	}
	env, err := protocol.Unmarshal(line)
	if err != nil {
		c.t.Fatalf("decoding %q: %v", line, err)
	}
	return env
}

// ReadUntil discards envelopes until one of kind arrives and returns it.
func (c *LineClient) ReadUntil(kind protocol.Kind, timeout time.Duration) protocol.Envelope {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("timed out waiting for %s", kind)
		}
		env := c.Read(remaining)
		if env.Kind == kind {
			return env
		}
	}
}

// ReadPayload reads until kind and decodes its payload into v.
func (c *LineClient) ReadPayload(kind protocol.Kind, v any, timeout time.Duration) {
	c.t.Helper()
	env := c.ReadUntil(kind, timeout)
	if err := json.Unmarshal(env.Payload, v); err != nil {
		c.t.Fatalf("decoding %s payload %s: %v", kind, env.Payload, err)
	}
}

// Close closes the underlying connection.
func (c *LineClient) Close() {
	c.conn.Close()
}

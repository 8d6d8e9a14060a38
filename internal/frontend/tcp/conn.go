// Package tcp carries protocol envelopes over plain TCP, one JSON document
// per line.
package tcp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cory-johannsen/uno/internal/protocol"
)

// ErrFrameTooLarge is returned (wrapping protocol.ErrMalformed) for a line
// longer than the configured maximum. The rest of the line is discarded and
// the connection remains usable.
var ErrFrameTooLarge = fmt.Errorf("%w: frame too large", protocol.ErrMalformed)

const minFrameBytes = 64

// Conn is a newline-delimited JSON connection. Writes are serialized so that
// concurrent senders never interleave frames.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader

	mu           sync.Mutex
	readTimeout  time.Duration
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// NewConn wraps a raw TCP connection.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn that rejects lines longer than maxFrame bytes.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration, maxFrame int) *Conn {
	if maxFrame < minFrameBytes {
		maxFrame = minFrameBytes
	}
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, maxFrame),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ReadEnvelope reads the next non-blank line and decodes it.
//
// Postcondition: Returns an envelope; an error wrapping protocol.ErrMalformed
// for a bad line; or the underlying IO error (including io.EOF).
func (c *Conn) ReadEnvelope() (protocol.Envelope, error) {
	for {
		if c.readTimeout > 0 {
			_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		line, err := c.reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if err := c.discardLine(); err != nil {
				return protocol.Envelope{}, err
			}
			return protocol.Envelope{}, ErrFrameTooLarge
		}
		if err != nil {
			return protocol.Envelope{}, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return protocol.Unmarshal(line)
	}
}

func (c *Conn) discardLine() error {
	for {
		_, err := c.reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return err
	}
}

// WriteEnvelope encodes env and writes it followed by '\n'.
//
// Postcondition: The whole frame is written, or an error is returned.
func (c *Conn) WriteEnvelope(env protocol.Envelope) error {
	data, err := protocol.Marshal(env)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err = c.raw.Write(data)
	return err
}

// Close closes the underlying connection. Later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the client's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

package testutil

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cory-johannsen/uno/internal/protocol"
)

// ErrWriteFailed is returned by a Transport configured to fail writes.
var ErrWriteFailed = errors.New("write failed")

// Transport is an in-memory protocol.Transport. Pushed envelopes are returned
// by ReadEnvelope; written envelopes are queued for Next.
type Transport struct {
	in     chan protocol.Envelope
	out    chan protocol.Envelope
	closed chan struct{}

	mu          sync.Mutex
	isClosed    bool
	failWrites  bool
	stallWrites bool
}

// NewTransport returns an open Transport with generous buffers.
func NewTransport() *Transport {
	return &Transport{
		in:     make(chan protocol.Envelope, 64),
		out:    make(chan protocol.Envelope, 1024),
		closed: make(chan struct{}),
	}
}

// ReadEnvelope blocks until an envelope is pushed or the transport closes.
func (tr *Transport) ReadEnvelope() (protocol.Envelope, error) {
	select {
	case env := <-tr.in:
		return env, nil
	case <-tr.closed:
		return protocol.Envelope{}, io.EOF
	}
}

// WriteEnvelope records env, or fails when closed or configured to fail. A
// stalled transport blocks until Close, like a socket whose peer stopped reading.
func (tr *Transport) WriteEnvelope(env protocol.Envelope) error {
	tr.mu.Lock()
	if tr.isClosed {
		tr.mu.Unlock()
		return net.ErrClosed
	}
	if tr.failWrites {
		tr.mu.Unlock()
		return ErrWriteFailed
	}
	if tr.stallWrites {
		tr.mu.Unlock()
		<-tr.closed
		return net.ErrClosed
	}
	defer tr.mu.Unlock()
	tr.out <- env
	return nil
}

// Close closes the transport. Safe to call more than once.
func (tr *Transport) Close() error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if !tr.isClosed {
		tr.isClosed = true
		close(tr.closed)
	}
	return nil
}

// RemoteAddr returns a fixed loopback address.
func (tr *Transport) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

// Push queues env for the next ReadEnvelope.
func (tr *Transport) Push(env protocol.Envelope) {
	tr.in <- env
}

// FailWrites makes every later write fail.
func (tr *Transport) FailWrites() {
	tr.mu.Lock()
	tr.failWrites = true
	tr.mu.Unlock()
}

// StallWrites makes every later write block until Close.
func (tr *Transport) StallWrites() {
	tr.mu.Lock()
	tr.stallWrites = true
	tr.mu.Unlock()
}

// Closed reports whether Close has been called.
func (tr *Transport) Closed() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.isClosed
}

// Next returns the next written envelope or fails the test after timeout.
func (tr *Transport) Next(t testing.TB, timeout time.Duration) protocol.Envelope {
	t.Helper()
	select {
	case env := <-tr.out:
		return env
	case <-time.After(timeout):
		t.Fatalf("no envelope written within %s", timeout)
		return protocol.Envelope{}
	}
}

// NextOf discards written envelopes until one of kind and returns it.
func (tr *Transport) NextOf(t testing.TB, kind protocol.Kind, timeout time.Duration) protocol.Envelope {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("no %s written within %s", kind, timeout)
		}
		if env := tr.Next(t, remaining); env.Kind == kind {
			return env
		}
	}
}

// Drain returns every envelope written so far without blocking.
func (tr *Transport) Drain() []protocol.Envelope {
	var out []protocol.Envelope
	for {
		select {
		case env := <-tr.out:
			out = append(out, env)
		default:
			return out
		}
	}
}

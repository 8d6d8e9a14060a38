package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// ErrMalformed marks a frame that could not be decoded into an Envelope.
// Transports return it wrapped; the connection remains usable.
var ErrMalformed = errors.New("malformed envelope")

// Envelope is the unit of exchange.
//
// Payload is encoded once per envelope from the value handed to NewEnvelope,
// so two envelopes built from the same mutable value at different times carry
// different bytes.
type Envelope struct {
	Kind     Kind            `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	SenderID string          `json:"senderId"`
}

// NewEnvelope encodes payload and wraps it in an Envelope. A nil payload is omitted.
//
// Postcondition: Returns an Envelope whose Payload is the JSON encoding of payload, or an error.
func NewEnvelope(kind Kind, senderID string, payload any) (Envelope, error) {
	env := Envelope{Kind: kind, SenderID: senderID}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	env.Payload = data
	return env, nil
}

// DecodePayload decodes the envelope payload into v.
func (e Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", e.Kind)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: decoding payload: %w", e.Kind, err)
	}
	return nil
}

// Marshal encodes an envelope as a single JSON document without a trailing newline.
func Marshal(e Envelope) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}

// Unmarshal decodes one JSON document into an Envelope.
//
// Postcondition: Returns an error wrapping ErrMalformed when data is not an envelope.
func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if e.Kind == "" {
		return Envelope{}, fmt.Errorf("%w: missing kind", ErrMalformed)
	}
	return e, nil
}

// Transport is one framed, bidirectional client connection.
//
// WriteEnvelope must be safe for concurrent use; ReadEnvelope is called from a
// single goroutine.
type Transport interface {
	ReadEnvelope() (Envelope, error)
	WriteEnvelope(Envelope) error
	Close() error
	RemoteAddr() net.Addr
}

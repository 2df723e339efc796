// Package wire defines the boundary between the binding core and its two
// external collaborators: the channel transport and the payload codec.
//
// The core never touches payload bytes directly. It parses and emits message
// headers (see header.go) and delegates everything between the header and the
// end of the message to a Codec implementation.
package wire

import (
	"context"
	"errors"
)

// ErrWouldBlock is returned by Channel.Read when no message is queued.
// Callers retry the read after Readiness.AwaitReady signals the channel.
// It never surfaces to application code.
var ErrWouldBlock = errors.New("wire: read would block")

// ErrPeerClosed is returned by Channel.Read when the remote end of the
// channel has gone away and no queued messages remain. It marks a clean end
// of the message stream, not a failure.
var ErrPeerClosed = errors.New("wire: peer closed")

// HandleDisposition describes one handle transferred alongside a message.
// The core treats these as opaque; only the codec and transport interpret
// the fields.
type HandleDisposition struct {
	Operation uint32
	Handle    uint32
	Type      uint32
	Rights    uint32
	Result    uint32
}

// Frame is one complete message as read from or written to a channel:
// header plus payload bytes, and any handles travelling with it.
type Frame struct {
	Bytes   []byte
	Handles []HandleDisposition
}

// Channel is the transport for one connection. Read is non-blocking: it
// returns ErrWouldBlock when no message is queued and ErrPeerClosed when the
// remote end is gone. Implementations must tolerate Close being called more
// than once.
type Channel interface {
	Read() (Frame, error)
	Write(Frame) error
	Close() error
}

// Readiness is the notification primitive paired with a Channel. AwaitReady
// blocks until the channel has a message queued (or the context is
// cancelled). A spurious wakeup is permitted; callers must re-issue the read
// and be prepared for another ErrWouldBlock.
type Readiness interface {
	AwaitReady(ctx context.Context, ch Channel) error
}

// Codec encodes and decodes message payloads. The type name identifies the
// payload declaration (a raw qualified identifier such as
// "example.echo/EchoSayRequest"); an empty type name means an empty payload.
//
// Decode and Encode results are dynamic values from the bind package; the
// concrete value representation is an agreement between the codec and the
// compiled declarations, which is why the parameter types here are any.
type Codec interface {
	// DecodeRequest decodes the payload portion of a frame into a value
	// shaped by the named declaration.
	DecodeRequest(library, typeName string, payload []byte, handles []HandleDisposition) (any, error)

	// EncodeMessage produces a full frame (header included) for the given
	// header and payload value. A nil value with an empty type name encodes
	// an empty payload.
	EncodeMessage(hdr Header, library, typeName string, value any) (Frame, error)

	// EncodeObject encodes a standalone value without a message header,
	// returning payload bytes and any handle transfers.
	EncodeObject(library, typeName string, value any) ([]byte, []HandleDisposition, error)
}

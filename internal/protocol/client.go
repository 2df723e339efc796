package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/irdoc"
	"github.com/roach88/irbind/internal/wire"
)

// Client is the calling role of a protocol bound to one channel. Two-way
// calls allocate a transaction id and block until the matching reply
// arrives; one-way calls return as soon as the message is written. Event
// frames that arrive while a reply is pending are queued for NextEvent.
//
// A Client is not safe for concurrent calls on the same channel.
type Client struct {
	proto *Protocol
	ch    wire.Channel
	ready wire.Readiness
	codec wire.Codec

	txid   uint32
	events []Event
}

// Event is one decoded event received by a client.
type Event struct {
	Method MethodInfo
	Value  bind.Value
}

// NewClient binds the client role of proto to ch.
func NewClient(proto *Protocol, ch wire.Channel, ready wire.Readiness, codec wire.Codec) *Client {
	return &Client{proto: proto, ch: ch, ready: ready, codec: codec}
}

// Protocol returns the compiled protocol this client speaks.
func (c *Client) Protocol() *Protocol { return c.proto }

// Channel returns the bound channel.
func (c *Client) Channel() wire.Channel { return c.ch }

// Close closes the underlying channel.
func (c *Client) Close() error { return c.ch.Close() }

// Call invokes method with the given named arguments. For two-way methods
// the decoded reply payload is returned, with result unions already
// unwrapped; one-way methods return (nil, nil) once the message is sent.
func (c *Client) Call(ctx context.Context, method string, args bind.Args) (bind.Value, error) {
	info, ok := c.proto.MethodByName(method)
	if !ok {
		return nil, fmt.Errorf("call %s: no such method on %s", method, c.proto.name)
	}
	if _, isEvent := c.proto.events[info.Ordinal]; isEvent {
		return nil, fmt.Errorf("call %s: %s is an event, not a callable method", method, info.RawName)
	}

	shape, _ := c.proto.Shape(method)
	payload, err := shape.BuildPayload(method, args)
	if err != nil {
		return nil, err
	}

	hdr := wire.Header{Ordinal: info.Ordinal}
	if info.RequiresResponse || info.EmptyResponse {
		hdr.Txid = c.allocTxid()
	}
	frame, err := c.codec.EncodeMessage(hdr, c.proto.library, info.RequestIdent, payload)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if err := c.ch.Write(frame); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if hdr.Txid == 0 {
		return nil, nil
	}
	return c.awaitReply(ctx, info, hdr.Txid)
}

func (c *Client) awaitReply(ctx context.Context, info MethodInfo, txid uint32) (bind.Value, error) {
	for {
		frame, err := c.readFrame(ctx)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", info.Name, err)
		}
		hdr, err := wire.ParseHeader(frame.Bytes)
		if err != nil {
			return nil, &ContractError{Protocol: c.proto.name, Reason: err.Error()}
		}
		if hdr.Txid == 0 {
			ev, err := c.decodeEvent(hdr, frame)
			if err != nil {
				return nil, err
			}
			c.events = append(c.events, ev)
			continue
		}
		if hdr.Txid != txid {
			return nil, &ContractError{
				Protocol: c.proto.name,
				Reason:   fmt.Sprintf("reply txid %d does not match pending call txid %d", hdr.Txid, txid),
			}
		}
		if hdr.Ordinal != info.Ordinal {
			return nil, &ContractError{
				Protocol: c.proto.name,
				Reason:   fmt.Sprintf("reply ordinal %d does not match call ordinal %d", hdr.Ordinal, info.Ordinal),
			}
		}
		return c.decodeReply(info, frame)
	}
}

func (c *Client) decodeReply(info MethodInfo, frame wire.Frame) (bind.Value, error) {
	if info.EmptyResponse {
		return nil, nil
	}
	name := irdoc.NormalizeIdentifier(info.ResponseIdent)
	raw, err := c.codec.DecodeRequest(c.proto.library, name, frame.Bytes[wire.HeaderSize:], frame.Handles)
	if err != nil {
		return nil, &ContractError{Protocol: c.proto.name, Reason: err.Error()}
	}
	value, ok := raw.(bind.Value)
	if !ok {
		return nil, &ContractError{Protocol: c.proto.name, Reason: fmt.Sprintf("codec decoded %T, not a value", raw)}
	}
	if info.HasResult {
		union, ok := value.(bind.UnionValue)
		if !ok {
			return nil, &ContractError{Protocol: c.proto.name, Reason: fmt.Sprintf("reply to %s is not a result union", info.Name)}
		}
		// The wire form does not carry result semantics; the method
		// declaration does.
		union.Result = true
		return union.Unwrap()
	}
	return value, nil
}

// NextEvent returns the next event received on the channel, reading more
// frames if none is queued. It returns wire.ErrPeerClosed once the server
// side has closed.
func (c *Client) NextEvent(ctx context.Context) (Event, error) {
	if len(c.events) > 0 {
		ev := c.events[0]
		c.events = c.events[1:]
		return ev, nil
	}
	for {
		frame, err := c.readFrame(ctx)
		if err != nil {
			return Event{}, err
		}
		hdr, err := wire.ParseHeader(frame.Bytes)
		if err != nil {
			return Event{}, &ContractError{Protocol: c.proto.name, Reason: err.Error()}
		}
		if hdr.Txid != 0 {
			return Event{}, &ContractError{
				Protocol: c.proto.name,
				Reason:   fmt.Sprintf("unsolicited reply with txid %d", hdr.Txid),
			}
		}
		return c.decodeEvent(hdr, frame)
	}
}

func (c *Client) decodeEvent(hdr wire.Header, frame wire.Frame) (Event, error) {
	info, ok := c.proto.events[hdr.Ordinal]
	if !ok {
		return Event{}, &ContractError{
			Protocol: c.proto.name,
			Reason:   fmt.Sprintf("unknown event ordinal %d", hdr.Ordinal),
		}
	}
	if info.RequestIdent == "" {
		return Event{Method: info}, nil
	}
	raw, err := c.codec.DecodeRequest(c.proto.library, info.RequestIdent, frame.Bytes[wire.HeaderSize:], frame.Handles)
	if err != nil {
		return Event{}, &ContractError{Protocol: c.proto.name, Reason: err.Error()}
	}
	value, ok := raw.(bind.Value)
	if !ok {
		return Event{}, &ContractError{Protocol: c.proto.name, Reason: fmt.Sprintf("codec decoded %T, not a value", raw)}
	}
	return Event{Method: info, Value: value}, nil
}

func (c *Client) readFrame(ctx context.Context) (wire.Frame, error) {
	for {
		frame, err := c.ch.Read()
		if err == nil {
			return frame, nil
		}
		if !errors.Is(err, wire.ErrWouldBlock) {
			return wire.Frame{}, err
		}
		if err := c.ready.AwaitReady(ctx, c.ch); err != nil {
			return wire.Frame{}, err
		}
	}
}

func (c *Client) allocTxid() uint32 {
	for {
		if id := atomic.AddUint32(&c.txid, 1); id != 0 {
			return id
		}
	}
}

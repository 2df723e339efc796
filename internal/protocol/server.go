package protocol

import (
	"context"
	"fmt"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/wire"
)

// Handler processes one decoded request payload and returns the reply
// payload, or nil for methods that reply without one. Returning
// ErrStopServer ends the serving loop cleanly; returning a DomainError or
// FrameworkError on a result-bearing method folds the failure into the
// result union.
type Handler func(ctx context.Context, req bind.Value) (bind.Value, error)

// Binding is one protocol role bound to a channel, as the dispatch engine
// sees it: a routing table keyed by ordinal and the handler invocation.
type Binding interface {
	Protocol() *Protocol
	Channel() wire.Channel
	Lookup(ordinal uint64) (MethodInfo, bool)
	Dispatch(ctx context.Context, method MethodInfo, req bind.Value) (bind.Value, error)
}

// Server is the serving role of a protocol bound to one channel. Handlers
// are registered by binding method name; a request for an unregistered
// method fails with NotImplementedError rather than tearing the channel
// down, which lets partial implementations serve the methods they have.
type Server struct {
	proto    *Protocol
	ch       wire.Channel
	codec    wire.Codec
	handlers map[string]Handler
}

// NewServer binds the serving role of proto to ch.
func NewServer(proto *Protocol, ch wire.Channel, codec wire.Codec) *Server {
	return &Server{proto: proto, ch: ch, codec: codec, handlers: make(map[string]Handler)}
}

// Protocol returns the compiled protocol this server speaks.
func (s *Server) Protocol() *Protocol { return s.proto }

// Channel returns the bound channel.
func (s *Server) Channel() wire.Channel { return s.ch }

// Handle registers fn for the named method. The name must be a
// request-bearing method of the protocol.
func (s *Server) Handle(method string, fn Handler) error {
	info, ok := s.proto.MethodByName(method)
	if !ok {
		return fmt.Errorf("handle %s: no such method on %s", method, s.proto.name)
	}
	if _, ok := s.proto.server[info.Ordinal]; !ok {
		return fmt.Errorf("handle %s: %s is an event, register it on an event handler", method, info.RawName)
	}
	s.handlers[method] = fn
	return nil
}

// Lookup resolves an inbound ordinal against the request dispatch table.
func (s *Server) Lookup(ordinal uint64) (MethodInfo, bool) {
	info, ok := s.proto.server[ordinal]
	return info, ok
}

// Dispatch invokes the handler registered for method.
func (s *Server) Dispatch(ctx context.Context, method MethodInfo, req bind.Value) (bind.Value, error) {
	fn, ok := s.handlers[method.Name]
	if !ok {
		return nil, &NotImplementedError{Protocol: s.proto.name, Method: method.Name}
	}
	return fn(ctx, req)
}

// SendEvent emits the named event with the given arguments. Events carry
// transaction id zero and expect no reply.
func (s *Server) SendEvent(method string, args bind.Args) error {
	info, ok := s.proto.MethodByName(method)
	if !ok {
		return fmt.Errorf("send event %s: no such method on %s", method, s.proto.name)
	}
	if _, ok := s.proto.events[info.Ordinal]; !ok {
		return fmt.Errorf("send event %s: %s is not an event", method, info.RawName)
	}
	shape, _ := s.proto.Shape(method)
	payload, err := shape.BuildPayload(method, args)
	if err != nil {
		return err
	}
	frame, err := s.codec.EncodeMessage(wire.Header{Ordinal: info.Ordinal}, s.proto.library, info.RequestIdent, payload)
	if err != nil {
		return fmt.Errorf("send event %s: %w", method, err)
	}
	if err := s.ch.Write(frame); err != nil {
		return fmt.Errorf("send event %s: %w", method, err)
	}
	return nil
}

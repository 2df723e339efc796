package protocol

import (
	"context"
	"fmt"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/wire"
)

// EventHandler is the event-receiving role of a protocol bound to the
// client end of a channel. It routes by the event dispatch table and never
// replies; returning ErrStopEventHandler from a handler ends the loop.
type EventHandler struct {
	proto    *Protocol
	ch       wire.Channel
	handlers map[string]Handler
}

// NewEventHandler binds the event-handling role of proto to ch.
func NewEventHandler(proto *Protocol, ch wire.Channel) *EventHandler {
	return &EventHandler{proto: proto, ch: ch, handlers: make(map[string]Handler)}
}

// Protocol returns the compiled protocol this handler speaks.
func (h *EventHandler) Protocol() *Protocol { return h.proto }

// Channel returns the bound channel.
func (h *EventHandler) Channel() wire.Channel { return h.ch }

// Handle registers fn for the named event.
func (h *EventHandler) Handle(method string, fn Handler) error {
	info, ok := h.proto.MethodByName(method)
	if !ok {
		return fmt.Errorf("handle %s: no such method on %s", method, h.proto.name)
	}
	if _, ok := h.proto.events[info.Ordinal]; !ok {
		return fmt.Errorf("handle %s: %s is not an event", method, info.RawName)
	}
	h.handlers[method] = fn
	return nil
}

// Lookup resolves an inbound ordinal against the event dispatch table.
func (h *EventHandler) Lookup(ordinal uint64) (MethodInfo, bool) {
	info, ok := h.proto.events[ordinal]
	return info, ok
}

// Dispatch invokes the handler registered for the event. The returned value
// is always nil; events have no reply direction.
func (h *EventHandler) Dispatch(ctx context.Context, method MethodInfo, req bind.Value) (bind.Value, error) {
	fn, ok := h.handlers[method.Name]
	if !ok {
		return nil, &NotImplementedError{Protocol: h.proto.name, Method: method.Name}
	}
	_, err := fn(ctx, req)
	return nil, err
}

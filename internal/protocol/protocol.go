// Package protocol compiles protocol declarations into their three roles
// (Client, Server, EventHandler) and the immutable per-protocol dispatch
// table the server engine routes by.
package protocol

import (
	"fmt"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/irdoc"
)

// MethodInfo is the dispatch metadata for one method. Built once per
// protocol and shared by every server bound to it; nothing mutates it after
// compilation.
type MethodInfo struct {
	// Name is the snake_case binding name handlers are registered under.
	Name string

	// RawName is the method name exactly as declared.
	RawName string

	Ordinal uint64

	// RequestIdent is the normalized identifier of the inbound payload
	// declaration, or "" when the message carries no payload. For events
	// this is the response payload identifier, since the IR's
	// direction-based terminology puts an event's payload in the response
	// fields.
	RequestIdent string

	// RequiresResponse is set when the method declares a response with a
	// payload; EmptyResponse when it declares a response without one.
	RequiresResponse bool
	EmptyResponse    bool

	// HasResult is set when the response is wrapped in a result union.
	HasResult bool

	// ResponseIdent is the raw identifier of the response payload
	// declaration, or "".
	ResponseIdent string
}

// Protocol is one compiled protocol declaration.
type Protocol struct {
	name    string
	raw     string
	doc     string
	marker  string
	library string

	methods []MethodInfo
	server  map[uint64]MethodInfo // request-bearing methods
	events  map[uint64]MethodInfo // events (no request direction)
	shapes  map[string]ArgShape   // by binding method name
}

// Compile builds the protocol's roles and dispatch table from its IR
// declaration. Ordinals must be pairwise distinct within the protocol; a
// collision is a fatal definition error.
func Compile(node irdoc.Node, doc *irdoc.Document, r *bind.Resolver) (*Protocol, error) {
	p := &Protocol{
		name:    node.Name(),
		raw:     node.RawName(),
		doc:     node.Doc(),
		marker:  irdoc.Marker(node.RawName()),
		library: doc.Name(),
		server:  make(map[uint64]MethodInfo),
		events:  make(map[uint64]MethodInfo),
		shapes:  make(map[string]ArgShape),
	}

	seen := make(map[uint64]string)
	for _, m := range irdoc.Methods(node) {
		ordinal := m.Ordinal()
		if prev, dup := seen[ordinal]; dup {
			return nil, &bind.CompileError{
				Library:     doc.Name(),
				Declaration: p.name,
				Message:     fmt.Sprintf("duplicate ordinal %d on methods %s and %s", ordinal, prev, m.RawName()),
			}
		}
		seen[ordinal] = m.RawName()

		info := MethodInfo{
			Name:    irdoc.NormalizeMember(m.RawName()),
			RawName: m.RawName(),
			Ordinal: ordinal,
		}

		if !m.HasRequest() {
			// An event: server to client, no reply expected.
			if payload := m.ResponsePayload(); payload != nil {
				info.RequestIdent = payload.Identifier()
			}
			shape, err := compileShape(m.ResponsePayload(), doc, r)
			if err != nil {
				return nil, fmt.Errorf("event %s of %s: %w", m.RawName(), node.Name(), err)
			}
			p.events[ordinal] = info
			p.shapes[info.Name] = shape
			p.methods = append(p.methods, info)
			continue
		}

		if req := m.RequestPayload(); req != nil {
			info.RequestIdent = m.RequestPayloadIdentifier()
		}
		info.RequiresResponse = m.HasResponse() && m.ResponsePayload() != nil
		info.EmptyResponse = m.HasResponse() && m.ResponsePayload() == nil
		info.HasResult = m.HasResult()
		info.ResponseIdent = m.ResponsePayloadRawIdentifier()

		shape, err := compileShape(m.RequestPayload(), doc, r)
		if err != nil {
			return nil, fmt.Errorf("method %s of %s: %w", m.RawName(), node.Name(), err)
		}
		p.server[ordinal] = info
		p.shapes[info.Name] = shape
		p.methods = append(p.methods, info)
	}
	return p, nil
}

// Name returns the normalized qualified protocol name.
func (p *Protocol) Name() string { return p.name }

// RawName returns the protocol name exactly as declared.
func (p *Protocol) RawName() string { return p.raw }

// Doc returns the protocol's documentation string.
func (p *Protocol) Doc() string { return p.doc }

// Marker returns the discovery marker, e.g. "example.echo.Echo".
func (p *Protocol) Marker() string { return p.marker }

// Library returns the owning library name.
func (p *Protocol) Library() string { return p.library }

// Methods returns every method's dispatch metadata in declaration order.
func (p *Protocol) Methods() []MethodInfo { return p.methods }

// ServerMethods returns the dispatch table for request-bearing methods:
// ordinal to metadata. Shared, immutable.
func (p *Protocol) ServerMethods() map[uint64]MethodInfo { return p.server }

// EventMethods returns the dispatch table for events.
func (p *Protocol) EventMethods() map[uint64]MethodInfo { return p.events }

// MethodByName returns the metadata for a binding method name.
func (p *Protocol) MethodByName(name string) (MethodInfo, bool) {
	for _, m := range p.methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodInfo{}, false
}

// Shape returns the call-argument shape for a binding method name.
func (p *Protocol) Shape(name string) (ArgShape, bool) {
	s, ok := p.shapes[name]
	return s, ok
}

package irdoc

// Method is a view over one protocol method record.
//
// The IR uses direction-based terminology: an event is a method with
// has_request false and has_response true (server to client). The payload of
// an event therefore lives in the response fields even though it is the
// initiating message of the exchange.
type Method struct {
	Node
}

// Ordinal returns the method's protocol-unique non-zero ordinal.
func (m Method) Ordinal() uint64 {
	return m.Uint64("ordinal")
}

// HasRequest reports whether the method has a request direction.
func (m Method) HasRequest() bool {
	return m.Bool("has_request")
}

// HasResponse reports whether the method has a response direction.
func (m Method) HasResponse() bool {
	return m.Bool("has_response")
}

// Strict reports whether the method is strict (as opposed to flexible).
func (m Method) Strict() bool {
	return m.Bool("strict")
}

// HasError reports whether the method declares a domain error.
func (m Method) HasError() bool {
	return m.Bool("has_error")
}

// HasResult reports whether the method's response is wrapped in a result
// union. This is broader than HasError: flexible two-way methods also wrap
// their response so a framework error can be carried.
func (m Method) HasResult() bool {
	return m.HasError() || (!m.Strict() && m.HasResponse())
}

// RequestPayload returns the method's request payload type node, or nil when
// the request carries no payload.
func (m Method) RequestPayload() Node {
	return m.Node.Node("maybe_request_payload")
}

// ResponsePayload returns the method's response payload type node, or nil
// when the response carries no payload.
func (m Method) ResponsePayload() Node {
	return m.Node.Node("maybe_response_payload")
}

// RequestPayloadIdentifier returns the normalized identifier of the request
// payload declaration, or "" when there is none.
func (m Method) RequestPayloadIdentifier() string {
	p := m.RequestPayload()
	if p == nil {
		return ""
	}
	return p.Identifier()
}

// ResponsePayloadRawIdentifier returns the exact identifier of the response
// payload declaration, or "" when there is none. The raw spelling is what
// the codec keys payload layouts by.
func (m Method) ResponsePayloadRawIdentifier() string {
	p := m.ResponsePayload()
	if p == nil {
		return ""
	}
	return p.RawIdentifier()
}

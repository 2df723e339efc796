package testutil

import (
	"fmt"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/wire"
)

// JSONCodec carries payloads as canonical JSON after the frame header. It
// never transfers handles; handle-typed fields travel inline as tagged
// numbers.
type JSONCodec struct{}

// DecodeRequest decodes a JSON payload into a value. An empty payload
// decodes to nil.
func (JSONCodec) DecodeRequest(_, _ string, payload []byte, _ []wire.HandleDisposition) (any, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	return bind.ValueFromJSON(payload)
}

// EncodeMessage builds a frame: header bytes followed by the JSON payload.
// A nil value yields a header-only frame.
func (JSONCodec) EncodeMessage(hdr wire.Header, _, _ string, value any) (wire.Frame, error) {
	buf := wire.AppendHeader(nil, hdr)
	if value != nil {
		data, err := marshal(value)
		if err != nil {
			return wire.Frame{}, err
		}
		buf = append(buf, data...)
	}
	return wire.Frame{Bytes: buf}, nil
}

// EncodeObject encodes a bare value without a header.
func (JSONCodec) EncodeObject(_, _ string, value any) ([]byte, []wire.HandleDisposition, error) {
	if value == nil {
		return nil, nil, nil
	}
	data, err := marshal(value)
	if err != nil {
		return nil, nil, err
	}
	return data, nil, nil
}

func marshal(value any) ([]byte, error) {
	v, ok := value.(bind.Value)
	if !ok {
		return nil, fmt.Errorf("JSON codec cannot encode %T", value)
	}
	return bind.MarshalValue(v)
}

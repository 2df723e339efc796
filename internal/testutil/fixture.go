package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/irbind/internal/irdoc"
	"github.com/roach88/irbind/internal/registry"
)

// EchoIR is a small but complete IR document tests compile against. The
// Echo protocol covers the four method shapes: a plain two-way call, a
// two-way call with a domain error, a one-way call and an event.
const EchoIR = `{
  "name": "example.echo",
  "declarations": {
    "example.echo/Echo": "protocol",
    "example.echo/Mood": "enum",
    "example.echo/Caps": "bits",
    "example.echo/GREETING": "const",
    "example.echo/Note": "alias",
    "example.echo/EchoEchoStringRequest": "struct",
    "example.echo/EchoEchoStringResponse": "struct",
    "example.echo/EchoPostRequest": "struct",
    "example.echo/EchoOnPongRequest": "table",
    "example.echo/Echo_Check_Response": "struct",
    "example.echo/Echo_Check_Result": "union"
  },
  "declaration_order": [
    "example.echo/Mood",
    "example.echo/Caps",
    "example.echo/GREETING",
    "example.echo/Note",
    "example.echo/EchoEchoStringRequest",
    "example.echo/EchoEchoStringResponse",
    "example.echo/EchoPostRequest",
    "example.echo/EchoOnPongRequest",
    "example.echo/Echo_Check_Response",
    "example.echo/Echo_Check_Result",
    "example.echo/Echo"
  ],
  "enum_declarations": [
    {
      "name": "example.echo/Mood",
      "type": "int32",
      "strict": true,
      "members": [
        {"name": "CALM", "value": {"value": "1"}},
        {"name": "LOUD", "value": {"value": "2"}}
      ]
    }
  ],
  "bits_declarations": [
    {
      "name": "example.echo/Caps",
      "strict": true,
      "members": [
        {"name": "READ", "value": {"value": "1"}},
        {"name": "WRITE", "value": {"value": "2"}}
      ]
    }
  ],
  "const_declarations": [
    {
      "name": "example.echo/GREETING",
      "type": {"kind_v2": "string"},
      "value": {"kind": "literal", "value": "hello"}
    }
  ],
  "alias_declarations": [
    {
      "name": "example.echo/Note",
      "partial_type_ctor": {"name": "string"}
    }
  ],
  "struct_declarations": [
    {
      "name": "example.echo/EchoEchoStringRequest",
      "members": [
        {"name": "value", "type": {"kind_v2": "string", "nullable": false}}
      ]
    },
    {
      "name": "example.echo/EchoEchoStringResponse",
      "members": [
        {"name": "response", "type": {"kind_v2": "string", "nullable": false}}
      ]
    },
    {
      "name": "example.echo/EchoPostRequest",
      "members": [
        {"name": "note", "type": {"kind_v2": "string", "nullable": false}}
      ]
    },
    {
      "name": "example.echo/Echo_Check_Response",
      "members": [
        {"name": "ok", "type": {"kind_v2": "primitive", "subtype": "bool"}}
      ]
    }
  ],
  "table_declarations": [
    {
      "name": "example.echo/EchoOnPongRequest",
      "members": [
        {"name": "count", "type": {"kind_v2": "primitive", "subtype": "uint32"}}
      ]
    }
  ],
  "union_declarations": [
    {
      "name": "example.echo/Echo_Check_Result",
      "is_result": true,
      "strict": true,
      "members": [
        {"name": "response", "type": {"kind_v2": "identifier", "identifier": "example.echo/Echo_Check_Response"}},
        {"name": "err", "type": {"kind_v2": "primitive", "subtype": "int32"}},
        {"name": "framework_err", "type": {"kind_v2": "internal", "subtype": "framework_error"}}
      ]
    }
  ],
  "protocol_declarations": [
    {
      "name": "example.echo/Echo",
      "methods": [
        {
          "name": "EchoString",
          "ordinal": 1001,
          "has_request": true,
          "has_response": true,
          "strict": true,
          "has_error": false,
          "maybe_request_payload": {"kind_v2": "identifier", "identifier": "example.echo/EchoEchoStringRequest"},
          "maybe_response_payload": {"kind_v2": "identifier", "identifier": "example.echo/EchoEchoStringResponse"}
        },
        {
          "name": "Check",
          "ordinal": 1002,
          "has_request": true,
          "has_response": true,
          "strict": true,
          "has_error": true,
          "maybe_response_payload": {"kind_v2": "identifier", "identifier": "example.echo/Echo_Check_Result"}
        },
        {
          "name": "Post",
          "ordinal": 1003,
          "has_request": true,
          "has_response": false,
          "strict": true,
          "has_error": false,
          "maybe_request_payload": {"kind_v2": "identifier", "identifier": "example.echo/EchoPostRequest"}
        },
        {
          "name": "OnPong",
          "ordinal": 1004,
          "has_request": false,
          "has_response": true,
          "strict": true,
          "has_error": false,
          "maybe_response_payload": {"kind_v2": "identifier", "identifier": "example.echo/EchoOnPongRequest"}
        }
      ]
    }
  ]
}`

// EchoDocument parses the echo fixture.
func EchoDocument(t *testing.T) *irdoc.Document {
	t.Helper()
	doc, err := irdoc.Parse("example.echo.fidl.json", []byte(EchoIR))
	require.NoError(t, err)
	return doc
}

// EchoRegistry returns a registry pre-seeded with the echo fixture.
func EchoRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New()
	require.NoError(t, err)
	require.NoError(t, reg.Register(EchoDocument(t)))
	return reg
}

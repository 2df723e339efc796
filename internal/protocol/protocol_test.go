package protocol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/irdoc"
	"github.com/roach88/irbind/internal/protocol"
	"github.com/roach88/irbind/internal/testutil"
)

func compileEcho(t *testing.T) *protocol.Protocol {
	t.Helper()
	doc := testutil.EchoDocument(t)
	node, ok := doc.Lookup(irdoc.KindProtocol, "example.echo/Echo")
	require.True(t, ok)
	p, err := protocol.Compile(node, doc, bind.NewResolver(nil))
	require.NoError(t, err)
	return p
}

func TestCompileSplitsRequestAndEventTables(t *testing.T) {
	p := compileEcho(t)

	assert.Equal(t, "example.echo/Echo", p.Name())
	assert.Equal(t, "example.echo.Echo", p.Marker())
	assert.Equal(t, "example.echo", p.Library())
	assert.Len(t, p.Methods(), 4)

	server := p.ServerMethods()
	assert.Len(t, server, 3)
	events := p.EventMethods()
	assert.Len(t, events, 1)

	seen := make(map[uint64]bool)
	for _, m := range p.Methods() {
		assert.False(t, seen[m.Ordinal], "ordinal %d appears twice", m.Ordinal)
		seen[m.Ordinal] = true
	}
}

func TestCompileMethodMetadata(t *testing.T) {
	p := compileEcho(t)

	echo, ok := p.MethodByName("echo_string")
	require.True(t, ok)
	assert.Equal(t, uint64(1001), echo.Ordinal)
	assert.Equal(t, "EchoString", echo.RawName)
	assert.Equal(t, "example.echo/EchoEchoStringRequest", echo.RequestIdent)
	assert.Equal(t, "example.echo/EchoEchoStringResponse", echo.ResponseIdent)
	assert.True(t, echo.RequiresResponse)
	assert.False(t, echo.EmptyResponse)
	assert.False(t, echo.HasResult)

	check, ok := p.MethodByName("check")
	require.True(t, ok)
	assert.Empty(t, check.RequestIdent)
	assert.True(t, check.HasResult)
	assert.Equal(t, "example.echo/Echo_Check_Result", check.ResponseIdent)

	post, ok := p.MethodByName("post")
	require.True(t, ok)
	assert.False(t, post.RequiresResponse)
	assert.False(t, post.EmptyResponse)

	pong, ok := p.MethodByName("on_pong")
	require.True(t, ok)
	assert.Equal(t, "example.echo/EchoOnPongRequest", pong.RequestIdent)
	_, isEvent := p.EventMethods()[pong.Ordinal]
	assert.True(t, isEvent)
}

func TestCompileRejectsDuplicateOrdinals(t *testing.T) {
	data := `{
	  "name": "dup.lib",
	  "declarations": {"dup.lib/P": "protocol"},
	  "declaration_order": ["dup.lib/P"],
	  "protocol_declarations": [{
	    "name": "dup.lib/P",
	    "methods": [
	      {"name": "A", "ordinal": 7, "has_request": true, "has_response": false, "strict": true},
	      {"name": "B", "ordinal": 7, "has_request": true, "has_response": false, "strict": true}
	    ]
	  }]
	}`
	doc, err := irdoc.Parse("dup.lib.fidl.json", []byte(data))
	require.NoError(t, err)
	node, ok := doc.Lookup(irdoc.KindProtocol, "dup.lib/P")
	require.True(t, ok)

	_, err = protocol.Compile(node, doc, bind.NewResolver(nil))
	assert.ErrorContains(t, err, "duplicate ordinal 7")
}

func TestShapeBuildPayload(t *testing.T) {
	p := compileEcho(t)

	shape, ok := p.Shape("echo_string")
	require.True(t, ok)
	params := shape.Params()
	require.Len(t, params, 1)
	assert.Equal(t, "value", params[0].Name)
	assert.True(t, params[0].Required)

	payload, err := shape.BuildPayload("echo_string", bind.Args{"value": bind.Str("hi")})
	require.NoError(t, err)
	assert.Equal(t, bind.Record{"value": bind.Str("hi")}, payload)

	_, err = shape.BuildPayload("echo_string", nil)
	assert.ErrorContains(t, err, "missing required field")

	// Table payloads make every argument optional.
	pong, ok := p.Shape("on_pong")
	require.True(t, ok)
	payload, err = pong.BuildPayload("on_pong", nil)
	require.NoError(t, err)
	assert.Equal(t, bind.Record{}, payload)

	// A method without a payload admits no arguments.
	check, ok := p.Shape("check")
	require.True(t, ok)
	payload, err = check.BuildPayload("check", nil)
	require.NoError(t, err)
	assert.Nil(t, payload)
	_, err = check.BuildPayload("check", bind.Args{"x": bind.Int(1)})
	assert.ErrorContains(t, err, "takes no arguments")
}

func TestServerHandleRegistration(t *testing.T) {
	p := compileEcho(t)
	serverEnd, _ := testutil.NewPipe()
	srv := protocol.NewServer(p, serverEnd, testutil.JSONCodec{})

	require.NoError(t, srv.Handle("echo_string", func(ctx context.Context, req bind.Value) (bind.Value, error) {
		return nil, nil
	}))

	err := srv.Handle("bogus", nil)
	assert.ErrorContains(t, err, "no such method")

	err = srv.Handle("on_pong", nil)
	assert.ErrorContains(t, err, "register it on an event handler")
}

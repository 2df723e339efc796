package protocol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/protocol"
	"github.com/roach88/irbind/internal/testutil"
	"github.com/roach88/irbind/internal/wire"
)

func TestSendEventFramesCarryZeroTxid(t *testing.T) {
	p := compileEcho(t)
	serverEnd, clientEnd := testutil.NewPipe()
	srv := protocol.NewServer(p, serverEnd, testutil.JSONCodec{})

	require.NoError(t, srv.SendEvent("on_pong", bind.Args{"count": bind.Int(3)}))

	frame, err := clientEnd.Read()
	require.NoError(t, err)
	hdr, err := wire.ParseHeader(frame.Bytes)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), hdr.Txid)
	assert.Equal(t, uint64(1004), hdr.Ordinal)
	assert.JSONEq(t, `{"count":3}`, string(frame.Bytes[wire.HeaderSize:]))
}

func TestSendEventRejectsNonEvents(t *testing.T) {
	p := compileEcho(t)
	serverEnd, _ := testutil.NewPipe()
	srv := protocol.NewServer(p, serverEnd, testutil.JSONCodec{})

	err := srv.SendEvent("echo_string", nil)
	assert.ErrorContains(t, err, "is not an event")
}

func TestClientRejectsBadCalls(t *testing.T) {
	p := compileEcho(t)
	_, clientEnd := testutil.NewPipe()
	client := protocol.NewClient(p, clientEnd, clientEnd, testutil.JSONCodec{})

	_, err := client.Call(context.Background(), "bogus", nil)
	assert.ErrorContains(t, err, "no such method")

	_, err = client.Call(context.Background(), "on_pong", nil)
	assert.ErrorContains(t, err, "is an event")
}

func TestClientOneWayCallReturnsImmediately(t *testing.T) {
	p := compileEcho(t)
	serverEnd, clientEnd := testutil.NewPipe()
	client := protocol.NewClient(p, clientEnd, clientEnd, testutil.JSONCodec{})

	value, err := client.Call(context.Background(), "post", bind.Args{"note": bind.Str("fire and forget")})
	require.NoError(t, err)
	assert.Nil(t, value)

	frame, err := serverEnd.Read()
	require.NoError(t, err)
	hdr, err := wire.ParseHeader(frame.Bytes)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), hdr.Txid, "one-way calls carry txid zero")
	assert.Equal(t, uint64(1003), hdr.Ordinal)
}

func TestClientNextEvent(t *testing.T) {
	p := compileEcho(t)
	serverEnd, clientEnd := testutil.NewPipe()
	srv := protocol.NewServer(p, serverEnd, testutil.JSONCodec{})
	client := protocol.NewClient(p, clientEnd, clientEnd, testutil.JSONCodec{})

	require.NoError(t, srv.SendEvent("on_pong", bind.Args{"count": bind.Int(1)}))

	ev, err := client.NextEvent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "on_pong", ev.Method.Name)
	assert.Equal(t, bind.Record{"count": bind.Int(1)}, ev.Value)

	// Peer closing surfaces as a clean stop, not a contract violation.
	require.NoError(t, serverEnd.Close())
	_, err = client.NextEvent(context.Background())
	assert.ErrorIs(t, err, wire.ErrPeerClosed)
}

func TestEventHandlerRoutesEventsOnly(t *testing.T) {
	p := compileEcho(t)
	_, clientEnd := testutil.NewPipe()
	h := protocol.NewEventHandler(p, clientEnd)

	err := h.Handle("echo_string", nil)
	assert.ErrorContains(t, err, "is not an event")

	var got bind.Value
	require.NoError(t, h.Handle("on_pong", func(ctx context.Context, req bind.Value) (bind.Value, error) {
		got = req
		return nil, nil
	}))

	info, ok := h.Lookup(1004)
	require.True(t, ok)
	reply, err := h.Dispatch(context.Background(), info, bind.Record{"count": bind.Int(2)})
	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Equal(t, bind.Record{"count": bind.Int(2)}, got)

	_, ok = h.Lookup(1001)
	assert.False(t, ok, "request ordinals stay out of the event table")
}

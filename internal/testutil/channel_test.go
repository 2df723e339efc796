package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irbind/internal/wire"
)

func TestPipeDeliversInOrder(t *testing.T) {
	a, b := NewPipe()

	require.NoError(t, a.Write(wire.Frame{Bytes: []byte("one")}))
	require.NoError(t, a.Write(wire.Frame{Bytes: []byte("two")}))

	f, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, "one", string(f.Bytes))
	f, err = b.Read()
	require.NoError(t, err)
	assert.Equal(t, "two", string(f.Bytes))

	_, err = b.Read()
	assert.ErrorIs(t, err, wire.ErrWouldBlock)
}

func TestPipeDrainsBeforeReportingClose(t *testing.T) {
	a, b := NewPipe()

	require.NoError(t, a.Write(wire.Frame{Bytes: []byte("last")}))
	require.NoError(t, a.Close())

	f, err := b.Read()
	require.NoError(t, err, "queued frames stay readable after the peer closes")
	assert.Equal(t, "last", string(f.Bytes))

	_, err = b.Read()
	assert.ErrorIs(t, err, wire.ErrPeerClosed)

	err = b.Write(wire.Frame{Bytes: []byte("into the void")})
	assert.ErrorIs(t, err, wire.ErrPeerClosed)
}

func TestAwaitReadyWakesOnWrite(t *testing.T) {
	a, b := NewPipe()

	done := make(chan error, 1)
	go func() { done <- b.AwaitReady(context.Background(), b) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, a.Write(wire.Frame{Bytes: []byte("x")}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("AwaitReady did not wake after a write")
	}

	_, err := b.Read()
	assert.NoError(t, err)
}

func TestAwaitReadyHonorsContext(t *testing.T) {
	_, b := NewPipe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.AwaitReady(ctx, b)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

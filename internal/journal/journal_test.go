package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err, "reopening an existing journal reapplies the schema")
	require.NoError(t, j.Close())
}

func TestWriteAndReadExchanges(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	writes := []Exchange{
		{ID: "ex-2", ConnID: "conn-a", Seq: 1, Direction: "send",
			Protocol: "example.echo/Echo", Method: "echo_string",
			Ordinal: 1001, Txid: 1, Payload: `{"response":"hi"}`, At: at},
		{ID: "ex-1", ConnID: "conn-a", Seq: 1, Direction: "recv",
			Protocol: "example.echo/Echo", Method: "echo_string",
			Ordinal: 1001, Txid: 1, Payload: `{"value":"hi"}`, At: at},
		{ID: "ex-3", ConnID: "conn-b", Seq: 1, Direction: "recv",
			Protocol: "example.echo/Echo", Method: "post",
			Ordinal: 1003, Txid: 0, Payload: `{"note":"n"}`, At: at},
	}
	for _, ex := range writes {
		require.NoError(t, j.WriteExchange(ctx, ex))
	}

	got, err := j.Exchanges(ctx, "conn-a")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Same seq orders recv before send.
	assert.Equal(t, "recv", got[0].Direction)
	assert.Equal(t, "send", got[1].Direction)
	assert.Equal(t, "ex-1", got[0].ID)
	assert.Equal(t, uint64(1001), got[0].Ordinal)
	assert.Equal(t, uint32(1), got[0].Txid)
	assert.Equal(t, `{"value":"hi"}`, got[0].Payload)
	assert.True(t, got[0].At.Equal(at))

	other, err := j.Exchanges(ctx, "conn-b")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "post", other[0].Method)
}

func TestWriteExchangeIgnoresDuplicateIDs(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	ex := Exchange{ID: "ex-1", ConnID: "conn-a", Seq: 1, Direction: "recv",
		Protocol: "p", Method: "m", Ordinal: 1, Txid: 1, At: time.Now()}
	require.NoError(t, j.WriteExchange(ctx, ex))

	ex.Payload = "changed"
	require.NoError(t, j.WriteExchange(ctx, ex), "retried writes are idempotent")

	got, err := j.Exchanges(ctx, "conn-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Payload, "the duplicate write must not clobber the original row")
}

func TestConnectionsListsOldestFirst(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i, conn := range []string{"conn-b", "conn-a", "conn-b"} {
		require.NoError(t, j.WriteExchange(ctx, Exchange{
			ID: string(rune('a' + i)), ConnID: conn, Seq: int64(i),
			Direction: "recv", Protocol: "p", Method: "m", At: time.Now(),
		}))
	}

	conns, err := j.Connections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-b", "conn-a"}, conns)
}

func TestExchangesMissingConnection(t *testing.T) {
	j := openTestJournal(t)

	got, err := j.Exchanges(context.Background(), "no-such-conn")
	require.NoError(t, err)
	assert.Empty(t, got)
}

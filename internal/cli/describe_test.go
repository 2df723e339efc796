package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeLibraryListsExports(t *testing.T) {
	dir, _ := writeEchoIR(t)

	out, _, err := runCommand(t, "--ir-path", dir, "describe", "example.echo")
	require.NoError(t, err)
	assert.Contains(t, out, "library example.echo")
	assert.Contains(t, out, "Echo")
	assert.Contains(t, out, "protocol")
	assert.Contains(t, out, "Mood")
	assert.Contains(t, out, "enum")
}

func TestDescribeProtocolShowsMethods(t *testing.T) {
	dir, _ := writeEchoIR(t)

	out, _, err := runCommand(t, "--ir-path", dir, "describe", "example.echo", "Echo")
	require.NoError(t, err)
	assert.Contains(t, out, "protocol example.echo.Echo")
	assert.Contains(t, out, "ordinal=1001 two-way")
	assert.Contains(t, out, "ordinal=1002 two-way")
	assert.Contains(t, out, "ordinal=1003 one-way")
	assert.Contains(t, out, "ordinal=1004 event")
}

func TestDescribeEnumJSON(t *testing.T) {
	dir, _ := writeEchoIR(t)

	out, _, err := runCommand(t, "--ir-path", dir, "--format", "json", "describe", "example.echo", "Mood")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var desc DeclDescription
	require.NoError(t, json.Unmarshal(data, &desc))
	assert.Equal(t, "enum", desc.Kind)
	assert.Equal(t, "Mood", desc.Name)
	require.Len(t, desc.Members, 3)
	assert.Equal(t, "CALM", desc.Members[0].Name)
	assert.Equal(t, int64(1), desc.Members[0].Value)
	// Mood declares no zero member, so a zero default is synthesized.
	assert.Equal(t, "EMPTY", desc.Members[2].Name)
	assert.Equal(t, int64(0), desc.Members[2].Value)
}

func TestDescribeStructShowsFieldTypes(t *testing.T) {
	dir, _ := writeEchoIR(t)

	out, _, err := runCommand(t, "--ir-path", dir, "describe", "example.echo", "EchoEchoStringRequest")
	require.NoError(t, err)
	assert.Contains(t, out, "struct example.echo.EchoEchoStringRequest")
	assert.Contains(t, out, "value")
	assert.Contains(t, out, "string")
}

func TestDescribeUnknownDeclaration(t *testing.T) {
	dir, _ := writeEchoIR(t)

	out, _, err := runCommand(t, "--ir-path", dir, "describe", "example.echo", "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "is not declared in example.echo")
}

func TestDescribeUnknownLibrary(t *testing.T) {
	out, _, err := runCommand(t, "--ir-path", t.TempDir(), "describe", "example.missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOTFOUND]")
}

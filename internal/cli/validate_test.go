package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	_, file := writeEchoIR(t)

	out, _, err := runCommand(t, "validate", file)
	require.NoError(t, err)
	assert.Equal(t, "1 document(s) valid\n", out)
}

func TestValidateJSONReportsLibrary(t *testing.T) {
	_, file := writeEchoIR(t)

	out, _, err := runCommand(t, "--format", "json", "validate", file)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ValidationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.Valid)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "example.echo", result.Files[0].Library)
}

func TestValidateRejectsMalformedDocument(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.fidl.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": ""}`), 0o644))

	out, _, err := runCommand(t, "validate", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_PARSE]")
}

func TestValidateMixedFilesStillFails(t *testing.T) {
	_, good := writeEchoIR(t)
	bad := filepath.Join(t.TempDir(), "bad.fidl.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))

	_, _, err := runCommand(t, "validate", good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateUnreadableFileIsCommandError(t *testing.T) {
	_, _, err := runCommand(t, "validate", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateRequiresArguments(t *testing.T) {
	_, _, err := runCommand(t, "validate")
	require.Error(t, err)
}

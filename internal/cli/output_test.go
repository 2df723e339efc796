package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(&ExitError{Code: ExitCommandError, Message: "bad flag"}))

	wrapped := fmt.Errorf("outer: %w", &ExitError{Code: ExitFailure, Message: "inner"})
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	e := &ExitError{Code: ExitFailure, Message: "validation failed"}
	assert.Equal(t, "validation failed", e.Error())

	cause := errors.New("no such file")
	e = &ExitError{Code: ExitCommandError, Message: "unreadable IR document", Err: cause}
	assert.Equal(t, "unreadable IR document: no such file", e.Error())
	assert.ErrorIs(t, e, cause)
}

func TestFormatterJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]any{"library": "example.echo"}))
	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)

	buf.Reset()
	require.NoError(t, f.Error(ErrCodeNotFound, "nope", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "nope", resp.Error.Message)
}

func TestFormatterTextOutput(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Successf(nil, "%d document(s) valid", 3))
	assert.Equal(t, "3 document(s) valid\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Error(ErrCodeParse, "broken", nil))
	assert.Equal(t, "Error [E_PARSE]: broken\n", buf.String())
}

func TestFormatterVerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}

	f.VerboseLog("hidden %s", "line")
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("shown %s", "line")
	assert.Equal(t, "shown line\n", errOut.String())
	assert.Empty(t, out.String(), "diagnostics stay off stdout")
}

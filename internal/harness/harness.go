// Package harness runs scenario-driven conformance tests: a scenario file
// describes the client-side traffic against a served protocol, the harness
// wires a channel pair, serves the binding on one end and drives the other,
// and the resulting trace is compared against expectations or goldens.
package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/dispatch"
	"github.com/roach88/irbind/internal/protocol"
	"github.com/roach88/irbind/internal/registry"
	"github.com/roach88/irbind/internal/testutil"
)

// StepResult is the observed outcome of one scenario step.
type StepResult struct {
	Call     string          `json:"call"`
	Args     map[string]any  `json:"args,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Result is the trace of one scenario run.
type Result struct {
	Scenario string       `json:"scenario"`
	Protocol string       `json:"protocol"`
	Steps    []StepResult `json:"steps"`
}

// Run executes a scenario against the given handlers and validates each
// step's expectations. The serving loop runs on a second goroutine and must
// stop cleanly when the client closes its end.
func Run(t *testing.T, reg *registry.Registry, sc *Scenario, handlers map[string]protocol.Handler) *Result {
	t.Helper()

	proto, err := reg.Protocol(sc.Protocol)
	require.NoError(t, err)

	serverEnd, clientEnd := testutil.NewPipe()
	codec := testutil.JSONCodec{}
	srv := protocol.NewServer(proto, serverEnd, codec)
	for name, fn := range handlers {
		require.NoError(t, srv.Handle(name, fn))
	}

	eng := dispatch.New(srv, codec, serverEnd, reg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- eng.Serve(ctx) }()

	client := protocol.NewClient(proto, clientEnd, clientEnd, codec)
	result := &Result{Scenario: sc.Name, Protocol: proto.Name()}
	for _, step := range sc.Steps {
		args, err := argsFromMap(step.Args)
		require.NoError(t, err, "step %s", step.Call)

		sr := StepResult{Call: step.Call, Args: step.Args}
		value, err := client.Call(ctx, step.Call, args)
		if err != nil {
			sr.Error = err.Error()
		} else if value != nil {
			data, merr := bind.MarshalValue(value)
			require.NoError(t, merr, "step %s", step.Call)
			sr.Response = data
		}
		checkExpect(t, step, sr)
		result.Steps = append(result.Steps, sr)
	}

	require.NoError(t, client.Close())
	require.NoError(t, <-done, "serving loop must stop cleanly")
	return result
}

func checkExpect(t *testing.T, step Step, sr StepResult) {
	t.Helper()
	if step.Expect == nil {
		require.Empty(t, sr.Error, "step %s must succeed", step.Call)
		return
	}
	if step.Expect.Error != "" {
		require.Contains(t, sr.Error, step.Expect.Error, "step %s", step.Call)
		return
	}
	require.Empty(t, sr.Error, "step %s must succeed", step.Call)
	if step.Expect.Value != nil {
		expected, err := argsFromMap(step.Expect.Value)
		require.NoError(t, err, "step %s expectation", step.Call)
		data, err := bind.MarshalValue(bind.Record(expected))
		require.NoError(t, err)
		require.JSONEq(t, string(data), string(sr.Response), "step %s", step.Call)
	}
}

package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irbind/internal/protocol"
	"github.com/roach88/irbind/internal/registry"
)

// RunWithGolden executes a scenario and compares its trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, reg *registry.Registry, sc *Scenario, handlers map[string]protocol.Handler) {
	t.Helper()

	result := Run(t, reg, sc, handlers)
	data, err := json.MarshalIndent(result, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, append(data, '\n'))
}

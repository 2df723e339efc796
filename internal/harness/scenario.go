package harness

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/irbind/internal/bind"
)

// Scenario defines a conformance test for one served protocol: a sequence
// of client calls with expected outcomes. Handlers stay in Go; the
// scenario file describes only the traffic.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Protocol is the raw qualified protocol identifier to bind, e.g.
	// "example.echo/Echo".
	Protocol string `yaml:"protocol"`

	// Steps is the client-side flow, executed in order.
	Steps []Step `yaml:"steps"`
}

// Step is one client call.
type Step struct {
	// Call is the binding method name to invoke.
	Call string `yaml:"call"`

	// Args contains the call arguments as a map.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect specifies the expected outcome. If nil the call is only
	// required to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a call.
type ExpectClause struct {
	// Value is the expected reply payload, compared after canonical JSON
	// round-tripping.
	Value map[string]any `yaml:"value,omitempty"`

	// Error is a substring the call error must contain.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s has no name", path)
	}
	if sc.Protocol == "" {
		return nil, fmt.Errorf("scenario %s names no protocol", path)
	}
	return &sc, nil
}

// argsFromMap converts a scenario argument map into call arguments by
// round-tripping through canonical JSON.
func argsFromMap(m map[string]any) (bind.Args, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	v, err := bind.ValueFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("convert args: %w", err)
	}
	rec, ok := v.(bind.Record)
	if !ok {
		return nil, fmt.Errorf("args must be a mapping, got %T", v)
	}
	return bind.Args(rec), nil
}

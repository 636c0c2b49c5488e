package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pushorder/internal/artifact"
)

// Snapshot is the deterministic outcome of a scenario used for golden
// comparison.
type Snapshot struct {
	ScenarioName string
	Policy       string
	FinalOrder   []string
	Layers       map[string]int
	Priority     *artifact.PriorityOrder
	Error        string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
func (s *Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario_name": s.ScenarioName,
		"policy":        s.Policy,
	}
	if s.Error != "" {
		m["error"] = s.Error
		return m
	}
	if s.Priority != nil {
		buckets := make(map[string][]string)
		for _, b := range s.Priority.Entries() {
			buckets[b.Name] = b.IDs
		}
		m["priority"] = buckets
		return m
	}

	m["final_order"] = s.FinalOrder
	layers := make(map[string]any, len(s.Layers))
	for id, l := range s.Layers {
		layers[id] = l
	}
	m["layers"] = layers
	return m
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(scenario *Scenario, result *Result) *Snapshot {
	return &Snapshot{
		ScenarioName: scenario.Name,
		Policy:       scenario.Policy,
		FinalOrder:   result.FinalOrder,
		Layers:       result.Layers,
		Priority:     result.Priority,
		Error:        ErrorKind(result.Err),
	}
}

// Marshal returns the snapshot's canonical JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return artifact.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. A snapshot mismatch
// fails the test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	data, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}

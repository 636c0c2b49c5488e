package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"linear_chain", "static_priority", "dependency_cycle"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenarioDir(), name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir(), "propagation.yaml"))
	require.NoError(t, err)

	var prev []byte
	for i := 0; i < 5; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)

		data, err := NewSnapshot(scenario, result).Marshal()
		require.NoError(t, err)
		if prev != nil {
			assert.Equal(t, string(prev), string(data), "run %d differs", i)
		}
		prev = data
	}
}

func TestSnapshot_ErrorOmitsOrder(t *testing.T) {
	s := &Snapshot{
		ScenarioName: "broken",
		Policy:       PolicyDependency,
		FinalOrder:   []string{"index.html"},
		Error:        KindGraphCycle,
	}
	data, err := s.Marshal()
	require.NoError(t, err)
	assert.Equal(t, `{"error":"graph_cycle","policy":"dependency","scenario_name":"broken"}`, string(data))
}

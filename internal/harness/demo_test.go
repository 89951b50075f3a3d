package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/ir"
)

// TestDemoScenarios runs every scenario under testdata/scenarios. They
// serve as end-to-end checks of the runtime and as reference examples
// of the scenario format.
func TestDemoScenarios(t *testing.T) {
	paths, err := filepath.Glob("../../testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no demo scenarios found")

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err, "failed to load scenario from %s", path)
			assert.NotEmpty(t, scenario.Description, "scenario should have description")

			result, err := Run(scenario)
			require.NoError(t, err)

			for _, msg := range result.Errors {
				t.Log(msg)
			}
			assert.True(t, result.Pass, "scenario %s should pass", scenario.Name)
			assert.NotEmpty(t, result.Trace, "scenario should produce a trace")
		})
	}
}

func mustCanonical(t *testing.T, v ir.IRValue) []byte {
	t.Helper()
	b, err := ir.MarshalCanonical(v)
	require.NoError(t, err)
	return b
}

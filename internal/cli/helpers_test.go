package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const counterYAML = `
name: counter
description: "Counts increments and logs each one"
core:
  init:
    model: 0
  update:
    - on: inc
      add: 1
      effects:
        - type: console
          config: { type: log, config: { message: tick } }
  view: '<p id="count">{{model}}</p>'
steps:
  - deliver: inc
  - deliver: inc
assertions:
  - type: final_model
    expect: 2
  - type: console
    expect: [tick, tick]
`

const failingYAML = `
name: failing
description: "Expects the wrong model"
core:
  init:
    model: 0
assertions:
  - type: final_model
    expect: 1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

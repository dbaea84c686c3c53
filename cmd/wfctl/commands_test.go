package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokenWorkflow = `[
  {"id": "m1", "type": "EMMOMatter", "attributes": {"name": "Steel"},
   "relationships": [{"rel_type": "IS_MANUFACTURING_INPUT", "connection": ["m1", "f1"]}]},
  {"id": "f1", "type": "EMMOManufacturing", "attributes": {},
   "relationships": [{"rel_type": "X", "connection": ["f1", "f1"]}]}
]`

const cleanWorkflow = `[
  {"id": "m1", "type": "EMMOMatter", "attributes": {"name": "Aluminium"}, "relationships": []},
  {"id": "q1", "type": "EMMOMeasurement", "attributes": {"name": "XRD"}, "relationships": []}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		want    string
	}{
		{"clean", cleanWorkflow, nil, "0 errors"},
		{"dropped relationship", brokenWorkflow, errInvalid, "1 errors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, "validate", writeFile(t, "wf.json", tt.content))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out, "2 nodes")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidate_JSON(t *testing.T) {
	out, _, err := run(t, "validate", "--json", writeFile(t, "wf.json", cleanWorkflow))
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, 2, result["nodes"])
}

func TestValidate_Errors(t *testing.T) {
	_, _, err := run(t, "validate", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, _, err = run(t, "validate", writeFile(t, "wf.json", "not json"))
	assert.Error(t, err)

	_, _, err = run(t, "validate")
	assert.Error(t, err)
}

func TestLayout(t *testing.T) {
	path := writeFile(t, "wf.json", cleanWorkflow)

	out, _, err := run(t, "layout", "--algorithm", "grid", path)
	require.NoError(t, err)
	assert.Contains(t, out, "m1\tmatter")
	assert.Contains(t, out, "q1\tmeasurement")

	target := filepath.Join(t.TempDir(), "out.json")
	_, _, err = run(t, "layout", "-a", "hierarchical", "-o", target, path)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	_, _, err = run(t, "layout", "--algorithm", "spiral", path)
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	a := writeFile(t, "a.json", brokenWorkflow)
	b := writeFile(t, "b.json", cleanWorkflow)

	out, _, err := run(t, "diff", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "node_added\tq1")
	assert.Contains(t, out, "node_removed\tf1")

	out, _, err = run(t, "diff", b, b)
	require.NoError(t, err)
	assert.Equal(t, "no changes\n", out)
}

func TestNormalize(t *testing.T) {
	out, stderr, err := run(t, "normalize", writeFile(t, "wf.json", brokenWorkflow))
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, stderr, "dropped f1 -> f1")
}

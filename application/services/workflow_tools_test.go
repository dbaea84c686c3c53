package services

import (
	"context"
	"testing"

	"matflow/domain/core/validators"
	domainservices "matflow/domain/services"
	"matflow/domain/versioning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workflowA = `[
  {"id": "m1", "type": "EMMOMatter", "attributes": {"name": "Steel"},
   "relationships": [{"rel_type": "IS_MANUFACTURING_INPUT", "connection": ["m1", "f1"]}]},
  {"id": "f1", "type": "EMMOManufacturing", "attributes": {},
   "relationships": [{"rel_type": "X", "connection": ["f1", "f1"]}]}
]`

const workflowB = `[
  {"id": "m1", "type": "EMMOMatter", "attributes": {"name": "Aluminium"}, "relationships": []},
  {"id": "q1", "type": "EMMOMeasurement", "attributes": {"name": "XRD"}, "relationships": []}
]`

func TestWorkflowTools_Validate(t *testing.T) {
	tools := NewWorkflowTools(nil, nil)

	result, err := tools.Validate([]byte(workflowA))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Nodes)
	assert.Equal(t, 1, result.Relationships)
	require.Len(t, result.Report.DroppedRelationships, 1)
	assert.Equal(t, domainservices.DropSelf, result.Report.DroppedRelationships[0].Reason)
	assert.NotEmpty(t, result.Issues)
	assert.NotZero(t, validators.CountBySeverity(result.Issues)[validators.SeverityWarning])
}

func TestWorkflowTools_Layout(t *testing.T) {
	tools := NewWorkflowTools(nil, nil)

	for _, algorithm := range []string{"force", "hierarchical", "grid"} {
		t.Run(algorithm, func(t *testing.T) {
			result, err := tools.Layout(context.Background(), []byte(workflowA), algorithm)
			require.NoError(t, err)
			require.Len(t, result.Positions, 2)
			assert.NotEmpty(t, result.Workflow)
			for _, p := range result.Positions {
				assert.GreaterOrEqual(t, p.X, 0.0)
				assert.GreaterOrEqual(t, p.Y, 0.0)
			}
		})
	}

	_, err := tools.Layout(context.Background(), []byte(workflowA), "spiral")
	assert.Error(t, err)
}

func TestWorkflowTools_Diff(t *testing.T) {
	tools := NewWorkflowTools(nil, nil)

	diff, err := tools.Diff([]byte(workflowA), []byte(workflowB))
	require.NoError(t, err)

	assert.Equal(t, 1, diff.Count(versioning.ChangeTypeNodeAdded))
	assert.Equal(t, 1, diff.Count(versioning.ChangeTypeNodeRemoved))
	assert.Equal(t, 1, diff.Count(versioning.ChangeTypeNodeUpdated))
	assert.Equal(t, 1, diff.Count(versioning.ChangeTypeRelationRemoved))

	same, err := tools.Diff([]byte(workflowA), []byte(workflowA))
	require.NoError(t, err)
	assert.True(t, same.Empty())

	_, err = tools.Diff([]byte("nope"), []byte(workflowA))
	assert.Error(t, err)
}

func TestWorkflowTools_Normalize(t *testing.T) {
	tools := NewWorkflowTools(nil, nil)

	out, report, err := tools.Normalize([]byte(workflowA))
	require.NoError(t, err)
	assert.Len(t, report.DroppedRelationships, 1)

	again, report, err := tools.Normalize(out)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, string(out), string(again))
}

package validation_test

import (
	"testing"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/dukex/flowbuilder/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invariants(violations []validation.Violation) []validation.Invariant {
	out := make([]validation.Invariant, len(violations))
	for i, v := range violations {
		out[i] = v.Invariant
	}

	return out
}

func TestValidate_ValidWorkflow(t *testing.T) {
	workflow := &models.Workflow{
		Name: "Daily digest",
		Nodes: []models.Node{
			testutil.CreateTestNode(testutil.WithID("t1"), testutil.WithTriggerNode()),
			testutil.CreateTestNode(testutil.WithID("a1")),
		},
		Edges: []models.Edge{{ID: "e1", Source: "t1", Target: "a1"}},
	}

	violations := validation.Validate(workflow)

	assert.NotNil(t, violations)
	assert.Empty(t, violations)
}

func TestValidate_EmptyWorkflow(t *testing.T) {
	workflow := &models.Workflow{Name: "", Nodes: []models.Node{}, Edges: []models.Edge{}}

	violations := validation.Validate(workflow)

	require.Len(t, violations, 3)
	assert.Equal(t, []validation.Invariant{
		validation.InvariantNameRequired,
		validation.InvariantTriggerRequired,
		validation.InvariantActionRequired,
	}, invariants(violations))
	assert.Equal(t, "Workflow name is required", violations[0].Message)
	assert.Equal(t, "Workflow must have at least one trigger node", violations[1].Message)
	assert.Equal(t, "Workflow must have at least one action node", violations[2].Message)
}

func TestValidate_NilWorkflow(t *testing.T) {
	violations := validation.Validate(nil)

	assert.Len(t, violations, 3)
}

func TestValidate_WhitespaceName(t *testing.T) {
	workflow := testutil.CreateTestWorkflow(func(w *models.Workflow) {
		w.Name = "   \t"
	})

	violations := validation.Validate(workflow)

	require.Len(t, violations, 1)
	assert.Equal(t, validation.InvariantNameRequired, violations[0].Invariant)
}

func TestValidate_ReportsBothMissingTriggerAndAction(t *testing.T) {
	workflow := &models.Workflow{
		Name: "Only a condition",
		Nodes: []models.Node{
			testutil.CreateTestNode(testutil.WithID("c1"), testutil.WithConditionNode()),
		},
	}

	violations := validation.Validate(workflow)

	assert.Equal(t, []validation.Invariant{
		validation.InvariantTriggerRequired,
		validation.InvariantActionRequired,
	}, invariants(violations))
}

func TestValidate_DanglingEdges(t *testing.T) {
	workflow := testutil.CreateTestWorkflow(func(w *models.Workflow) {
		w.Edges = append(w.Edges,
			models.Edge{ID: "e-bad-source", Source: "ghost", Target: "a1"},
			models.Edge{ID: "e-bad-target", Source: "t1", Target: "ghost"},
			models.Edge{ID: "e-bad-both", Source: "x", Target: "y"},
		)
	})

	violations := validation.Validate(workflow)

	require.Len(t, violations, 3)

	for i, edgeID := range []string{"e-bad-source", "e-bad-target", "e-bad-both"} {
		assert.Equal(t, validation.InvariantEdgeEndpoint, violations[i].Invariant)
		assert.Equal(t, edgeID, violations[i].EdgeID)
		assert.Contains(t, violations[i].Message, edgeID)
	}

	assert.Contains(t, violations[0].Message, `source node "ghost"`)
	assert.Contains(t, violations[1].Message, `target node "ghost"`)
	assert.Contains(t, violations[2].Message, `source node "x" and target node "y"`)
}

func TestValidate_DuplicateIDs(t *testing.T) {
	workflow := testutil.CreateTestWorkflow(func(w *models.Workflow) {
		w.Nodes = append(w.Nodes,
			testutil.CreateTestNode(testutil.WithID("a1")),
			testutil.CreateTestNode(testutil.WithID("a1")),
			testutil.CreateTestNode(testutil.WithID("t1"), testutil.WithTriggerNode()),
		)
		w.Edges = append(w.Edges, models.Edge{ID: "e1", Source: "t1", Target: "a1"})
	})

	violations := validation.Validate(workflow)

	require.Len(t, violations, 3)
	assert.Equal(t, validation.InvariantDuplicateNodeID, violations[0].Invariant)
	assert.Equal(t, "t1", violations[0].NodeID)
	assert.Equal(t, validation.InvariantDuplicateNodeID, violations[1].Invariant)
	assert.Equal(t, "a1", violations[1].NodeID)
	assert.Equal(t, validation.InvariantDuplicateEdgeID, violations[2].Invariant)
	assert.Equal(t, "e1", violations[2].EdgeID)
}

func TestValidate_FullOrdering(t *testing.T) {
	workflow := &models.Workflow{
		Name: " ",
		Nodes: []models.Node{
			testutil.CreateTestNode(testutil.WithID("c1"), testutil.WithConditionNode()),
			testutil.CreateTestNode(testutil.WithID("c1"), testutil.WithConditionNode()),
		},
		Edges: []models.Edge{
			{ID: "e1", Source: "c1", Target: "missing"},
			{ID: "e1", Source: "c1", Target: "c1"},
		},
	}

	violations := validation.Validate(workflow)

	assert.Equal(t, []validation.Invariant{
		validation.InvariantNameRequired,
		validation.InvariantTriggerRequired,
		validation.InvariantActionRequired,
		validation.InvariantEdgeEndpoint,
		validation.InvariantDuplicateNodeID,
		validation.InvariantDuplicateEdgeID,
	}, invariants(violations))
}

func TestValidate_DoesNotMutate(t *testing.T) {
	workflow := testutil.CreateTestWorkflow(func(w *models.Workflow) {
		w.Name = "  padded  "
		w.Edges = append(w.Edges, models.Edge{ID: "e2", Source: "ghost", Target: "a1"})
	})
	before := workflow.Clone()

	_ = validation.Validate(workflow)

	assert.Equal(t, before, workflow)
}

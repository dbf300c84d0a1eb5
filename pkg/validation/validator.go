// Package validation checks workflow documents for structural well-formedness.
package validation

import (
	"fmt"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Invariant names a structural rule a stored workflow must satisfy.
type Invariant string

const (
	InvariantNameRequired    Invariant = "name_required"
	InvariantTriggerRequired Invariant = "trigger_required"
	InvariantActionRequired  Invariant = "action_required"
	InvariantEdgeEndpoint    Invariant = "edge_endpoint_missing"
	InvariantDuplicateNodeID Invariant = "duplicate_node_id"
	InvariantDuplicateEdgeID Invariant = "duplicate_edge_id"
)

// Violation describes one broken invariant.
type Violation struct {
	Invariant Invariant `json:"invariant"`
	Message   string    `json:"message"`
	NodeID    string    `json:"nodeId,omitempty"`
	EdgeID    string    `json:"edgeId,omitempty"`
}

// Validate returns every violated invariant of the workflow, or an empty slice.
//
// The order is stable: name, trigger, action, dangling edges in edge order,
// then duplicated node ids and duplicated edge ids in first-seen order.
// The workflow is never modified.
func Validate(workflow *models.Workflow) []Violation {
	violations := make([]Violation, 0)

	if workflow == nil {
		return append(violations,
			Violation{Invariant: InvariantNameRequired, Message: "Workflow name is required"},
			Violation{Invariant: InvariantTriggerRequired, Message: "Workflow must have at least one trigger node"},
			Violation{Invariant: InvariantActionRequired, Message: "Workflow must have at least one action node"},
		)
	}

	if strings.TrimSpace(workflow.Name) == "" {
		violations = append(violations, Violation{
			Invariant: InvariantNameRequired,
			Message:   "Workflow name is required",
		})
	}

	if !workflow.HasNodeOfType(models.NodeTypeTrigger) {
		violations = append(violations, Violation{
			Invariant: InvariantTriggerRequired,
			Message:   "Workflow must have at least one trigger node",
		})
	}

	if !workflow.HasNodeOfType(models.NodeTypeAction) {
		violations = append(violations, Violation{
			Invariant: InvariantActionRequired,
			Message:   "Workflow must have at least one action node",
		})
	}

	violations = append(violations, danglingEdges(workflow)...)
	violations = append(violations, duplicateNodeIDs(workflow.Nodes)...)
	violations = append(violations, duplicateEdgeIDs(workflow.Edges)...)

	return violations
}

func danglingEdges(workflow *models.Workflow) []Violation {
	nodeIDs := make(map[string]struct{}, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		nodeIDs[node.ID] = struct{}{}
	}

	var violations []Violation

	for _, edge := range workflow.Edges {
		_, sourceOK := nodeIDs[edge.Source]
		_, targetOK := nodeIDs[edge.Target]

		var missing []string

		if !sourceOK {
			missing = append(missing, fmt.Sprintf("source node %q", edge.Source))
		}

		if !targetOK {
			missing = append(missing, fmt.Sprintf("target node %q", edge.Target))
		}

		if len(missing) == 0 {
			continue
		}

		violations = append(violations, Violation{
			Invariant: InvariantEdgeEndpoint,
			Message:   fmt.Sprintf("Edge %q references unknown %s", edge.ID, strings.Join(missing, " and ")),
			EdgeID:    edge.ID,
		})
	}

	return violations
}

func duplicateNodeIDs(nodes []models.Node) []Violation {
	ids := make([]string, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID
	}

	var violations []Violation

	for _, id := range duplicates(ids) {
		violations = append(violations, Violation{
			Invariant: InvariantDuplicateNodeID,
			Message:   fmt.Sprintf("Node id %q is used more than once", id),
			NodeID:    id,
		})
	}

	return violations
}

func duplicateEdgeIDs(edges []models.Edge) []Violation {
	ids := make([]string, len(edges))
	for i, edge := range edges {
		ids[i] = edge.ID
	}

	var violations []Violation

	for _, id := range duplicates(ids) {
		violations = append(violations, Violation{
			Invariant: InvariantDuplicateEdgeID,
			Message:   fmt.Sprintf("Edge id %q is used more than once", id),
			EdgeID:    id,
		})
	}

	return violations
}

// duplicates returns each repeated id once, in the order of its first occurrence.
func duplicates(ids []string) []string {
	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}

	var out []string

	reported := make(map[string]bool)

	for _, id := range ids {
		if counts[id] > 1 && !reported[id] {
			reported[id] = true

			out = append(out, id)
		}
	}

	return out
}

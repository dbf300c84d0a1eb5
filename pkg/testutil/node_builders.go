// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates an action node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) models.Node {
	node := models.Node{
		ID:       "action-" + uuid.New().String(),
		Type:     models.NodeTypeAction,
		Position: models.Position{X: 100, Y: 200},
		Data: models.NodeData{
			Label:  "send_email",
			Config: &models.ActionConfig{ActionType: "send_email", To: "test@example.com", Subject: "Test"},
		},
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithTriggerNode configures the node as a new-email trigger.
func WithTriggerNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Type = models.NodeTypeTrigger
		n.Data.Config = &models.TriggerConfig{Event: "new_email"}
		n.Data.Label = "new_email"
	}
}

// WithConditionNode configures the node as a contains condition.
func WithConditionNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Type = models.NodeTypeCondition
		n.Data.Config = &models.ConditionConfig{ConditionType: "contains", Value: "invoice"}
		n.Data.Label = "contains"
	}
}

// WithConfig sets the node configuration and refreshes its label.
func WithConfig(config models.NodeConfig) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Config = config
		n.RefreshLabel()
	}
}

// WithGmailAuth attaches a Gmail identity to the node config.
func WithGmailAuth(email string) func(*models.Node) {
	return func(n *models.Node) {
		n.Config().SetGmail(&models.GmailAuth{Email: email, IsAuthenticated: true})
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// CreateTestWorkflow creates a valid workflow: trigger t1 wired to action a1 by edge e1.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		Nodes: []models.Node{
			CreateTestNode(WithID("t1"), WithTriggerNode()),
			CreateTestNode(WithID("a1"), WithPosition(300, 200)),
		},
		Edges: []models.Edge{CreateTestEdge("e1", "t1", "a1")},
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// CreateInvalidWorkflow creates a workflow missing its name, trigger and action.
func CreateInvalidWorkflow() *models.Workflow {
	return &models.Workflow{Name: "", Nodes: []models.Node{}, Edges: []models.Edge{}}
}

// CreateTestEdge creates an animated edge between two nodes.
func CreateTestEdge(id, source, target string) models.Edge {
	return models.Edge{ID: id, Source: source, Target: target, Animated: true}
}

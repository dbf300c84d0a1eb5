// Package models defines the workflow document edited on the builder canvas.
package models

import (
	"slices"
	"time"
)

// DefaultWorkflowName is the name given to a fresh editor draft.
const DefaultWorkflowName = "Untitled Workflow"

// Workflow is the canonical workflow document: metadata plus the node/edge graph.
type Workflow struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	IsActive    bool      `json:"isActive"`
	OwnerID     string    `json:"ownerId,omitempty"` // Weak reference to an external user identity
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Edge connects two nodes of the same workflow.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"` // Condition nodes expose "true" and "false" handles
	TargetHandle string `json:"targetHandle,omitempty"`
	Animated     bool   `json:"animated"`
}

// Condition node output handles.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// Clone returns a deep copy of the workflow so stores never share slices or configs with callers.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	clone := *w

	clone.Nodes = make([]Node, len(w.Nodes))
	for i, node := range w.Nodes {
		clone.Nodes[i] = node.Clone()
	}

	clone.Edges = slices.Clone(w.Edges)
	if clone.Edges == nil {
		clone.Edges = []Edge{}
	}

	return &clone
}

// NodeByID returns the node with the given id and its index, or -1 when absent.
func (w *Workflow) NodeByID(id string) (*Node, int) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i], i
		}
	}

	return nil, -1
}

// HasNodeOfType reports whether any node carries the given type.
func (w *Workflow) HasNodeOfType(nodeType NodeType) bool {
	return slices.ContainsFunc(w.Nodes, func(n Node) bool {
		return n.Type == nodeType
	})
}

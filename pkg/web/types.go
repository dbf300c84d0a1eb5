// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/dukex/flowbuilder/pkg/models"

// CreateWorkflowRequest is the body of POST /workflows. Graph invariants such as
// a non-empty name are checked by the workflow validator, not by these tags.
type CreateWorkflowRequest struct {
	Name        string        `json:"name"        validate:"max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Nodes       []models.Node `json:"nodes"       validate:"max=500"`
	Edges       []models.Edge `json:"edges"       validate:"max=2000"`
	IsActive    bool          `json:"isActive"`
	OwnerID     string        `json:"ownerId"     validate:"max=320"`
}

// Workflow converts the request into a candidate document.
func (r CreateWorkflowRequest) Workflow() *models.Workflow {
	return &models.Workflow{
		Name:        r.Name,
		Description: r.Description,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
		IsActive:    r.IsActive,
		OwnerID:     r.OwnerID,
	}
}

// UpdateWorkflowRequest is the body of PUT /workflows/:id. Absent fields keep
// their stored value.
type UpdateWorkflowRequest struct {
	Name        *string       `json:"name,omitempty"        validate:"omitempty,max=200"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=2000"`
	Nodes       []models.Node `json:"nodes,omitempty"       validate:"omitempty,max=500"`
	Edges       []models.Edge `json:"edges,omitempty"       validate:"omitempty,max=2000"`
	IsActive    *bool         `json:"isActive,omitempty"`
	OwnerID     *string       `json:"ownerId,omitempty"     validate:"omitempty,max=320"`
}

// Merge applies the provided fields to a copy of existing.
func (r UpdateWorkflowRequest) Merge(existing *models.Workflow) *models.Workflow {
	merged := existing.Clone()

	if r.Name != nil {
		merged.Name = *r.Name
	}

	if r.Description != nil {
		merged.Description = *r.Description
	}

	if r.Nodes != nil {
		merged.Nodes = r.Nodes
	}

	if r.Edges != nil {
		merged.Edges = r.Edges
	}

	if r.IsActive != nil {
		merged.IsActive = *r.IsActive
	}

	if r.OwnerID != nil {
		merged.OwnerID = *r.OwnerID
	}

	return merged
}

// MessageResponse carries a confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// AddNodeRequest is the body of POST /drafts/:key/nodes.
type AddNodeRequest struct {
	Type     models.NodeType `json:"type"     validate:"required"`
	Position models.Position `json:"position"`
}

// GmailAuthRequest is the body of PUT /drafts/:key/nodes/:nodeId/gmail-auth.
// When email is omitted the signed-in session identity is used.
type GmailAuthRequest struct {
	Email       string `json:"email"       validate:"omitempty,email"`
	AccessToken string `json:"accessToken"`
}

// ConnectRequest is the body of POST /drafts/:key/edges.
type ConnectRequest struct {
	Source       string `json:"source"       validate:"required"`
	Target       string `json:"target"       validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// RenameDraftRequest is the body of PATCH /drafts/:key.
type RenameDraftRequest struct {
	Name        string `json:"name"        validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "flowbuilder.workflows"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent     EventType = "workflow.created"
	WorkflowUpdatedEvent     EventType = "workflow.updated"
	WorkflowDeletedEvent     EventType = "workflow.deleted"
	WorkflowActivatedEvent   EventType = "workflow.activated"
	WorkflowDeactivatedEvent EventType = "workflow.deactivated"
)

// LifecycleEventTypes lists every event the workflow service publishes.
var LifecycleEventTypes = []EventType{
	WorkflowCreatedEvent,
	WorkflowUpdatedEvent,
	WorkflowDeletedEvent,
	WorkflowActivatedEvent,
	WorkflowDeactivatedEvent,
}

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	OwnerID    string         `json:"owner_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent fills the common fields from a stored workflow.
func NewBaseEvent(id string, eventType EventType, workflow *models.Workflow) BaseEvent {
	return BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflow.ID,
		OwnerID:    workflow.OwnerID,
	}
}

// GraphSummary describes the size of a workflow graph without carrying its configs.
type GraphSummary struct {
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// SummarizeGraph builds the summary of a workflow.
func SummarizeGraph(workflow *models.Workflow) GraphSummary {
	return GraphSummary{
		Name:      workflow.Name,
		NodeCount: len(workflow.Nodes),
		EdgeCount: len(workflow.Edges),
	}
}

type WorkflowCreated struct {
	BaseEvent
	GraphSummary
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent
	GraphSummary
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

type WorkflowActivated struct {
	BaseEvent
}

func (w WorkflowActivated) GetType() EventType {
	return WorkflowActivatedEvent
}

type WorkflowDeactivated struct {
	BaseEvent
}

func (w WorkflowDeactivated) GetType() EventType {
	return WorkflowDeactivatedEvent
}

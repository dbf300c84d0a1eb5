package events

import (
	"testing"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	workflow := &models.Workflow{ID: "wf-1", OwnerID: "me@example.com"}

	event := NewBaseEvent("evt-1", WorkflowActivatedEvent, workflow)

	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, WorkflowActivatedEvent, event.Type)
	assert.Equal(t, "wf-1", event.WorkflowID)
	assert.Equal(t, "me@example.com", event.OwnerID)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Minute)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
}

func TestSummarizeGraph(t *testing.T) {
	workflow := &models.Workflow{
		Name:  "Digest",
		Nodes: []models.Node{{ID: "t1"}, {ID: "a1"}, {ID: "a2"}},
		Edges: []models.Edge{{ID: "e1"}},
	}

	assert.Equal(t, GraphSummary{Name: "Digest", NodeCount: 3, EdgeCount: 1}, SummarizeGraph(workflow))
}

func TestEventTypes(t *testing.T) {
	cases := map[EventType]interface{ GetType() EventType }{
		WorkflowCreatedEvent:     WorkflowCreated{},
		WorkflowUpdatedEvent:     WorkflowUpdated{},
		WorkflowDeletedEvent:     WorkflowDeleted{},
		WorkflowActivatedEvent:   WorkflowActivated{},
		WorkflowDeactivatedEvent: WorkflowDeactivated{},
	}

	for expected, event := range cases {
		assert.Equal(t, expected, event.GetType())
	}

	assert.Len(t, LifecycleEventTypes, len(cases))
}

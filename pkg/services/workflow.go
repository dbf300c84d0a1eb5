package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Toggle confirmation messages.
const (
	MessageActivated   = "Workflow activated successfully"
	MessageDeactivated = "Workflow deactivated successfully"
)

// Workflow orchestrates the workflow lifecycle: validate, persist, notify.
type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures the workflow service.
type Option func(*Workflow)

// WithEventPublisher publishes lifecycle events after each successful mutation.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(w *Workflow) {
		w.tracer = tracer
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...Option) *Workflow {
	w := &Workflow{
		persistence: persistence,
		logger:      slog.Default(),
		tracer:      otelhelper.GlobalTracer("flowbuilder/services"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	OwnerID  string
	IsActive *bool
}

// List returns workflows ordered by updatedAt descending.
func (w *Workflow) List(ctx context.Context, req ListWorkflowsRequest) ([]*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.list",
		attribute.String(otelhelper.OwnerIDKey, req.OwnerID))
	defer span.End()

	workflows, err := w.persistence.WorkflowRepository().Query(ctx, persistence.QueryOptions{
		OwnerID:  req.OwnerID,
		IsActive: req.IsActive,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID returns a stored workflow or ErrWorkflowNotFound.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.fetch",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch workflow: %w", err)
	}

	return workflow, nil
}

// Create validates a candidate and stores it. Invalid candidates never reach the store.
func (w *Workflow) Create(ctx context.Context, candidate *models.Workflow) (*models.Workflow, error) {
	if candidate == nil {
		return nil, NewRequestError("create", "workflow_nil", "workflow cannot be nil")
	}

	doc := normalize(candidate)

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create", graphAttributes(doc)...)
	defer span.End()

	if violations := validation.Validate(doc); len(violations) > 0 {
		span.SetAttributes(attribute.Int(otelhelper.ViolationsKey, len(violations)))

		return nil, &ValidationError{Op: "create", Violations: violations}
	}

	stored, err := w.persistence.WorkflowRepository().Insert(ctx, doc)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, stored.ID))
	w.logger.InfoContext(ctx, "workflow created", "workflow_id", stored.ID, "name", stored.Name)

	w.publish(ctx, stored.ID, events.WorkflowCreated{
		BaseEvent:    w.baseEvent(events.WorkflowCreatedEvent, stored),
		GraphSummary: events.SummarizeGraph(stored),
	})

	return stored, nil
}

// Update validates a candidate and replaces the stored workflow. On violation the
// stored record is left untouched.
func (w *Workflow) Update(ctx context.Context, id string, candidate *models.Workflow) (*models.Workflow, error) {
	if candidate == nil {
		return nil, NewRequestError("update", "workflow_nil", "workflow cannot be nil")
	}

	doc := normalize(candidate)

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.update",
		append(graphAttributes(doc), attribute.String(otelhelper.WorkflowIDKey, id))...)
	defer span.End()

	if violations := validation.Validate(doc); len(violations) > 0 {
		span.SetAttributes(attribute.Int(otelhelper.ViolationsKey, len(violations)))

		return nil, &ValidationError{Op: "update", Violations: violations}
	}

	stored, err := w.persistence.WorkflowRepository().Replace(ctx, id, doc)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow updated", "workflow_id", stored.ID)

	w.publish(ctx, stored.ID, events.WorkflowUpdated{
		BaseEvent:    w.baseEvent(events.WorkflowUpdatedEvent, stored),
		GraphSummary: events.SummarizeGraph(stored),
	})

	return stored, nil
}

// Delete removes a workflow. Deleting an absent id is ErrWorkflowNotFound, never success.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.delete",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	err := w.persistence.WorkflowRepository().Delete(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow deleted", "workflow_id", id)

	w.publish(ctx, id, events.WorkflowDeleted{
		BaseEvent: w.baseEvent(events.WorkflowDeletedEvent, &models.Workflow{ID: id}),
	})

	return nil
}

// ToggleResult is the outcome of ToggleActive.
type ToggleResult struct {
	IsActive bool             `json:"isActive"`
	Message  string           `json:"message"`
	Workflow *models.Workflow `json:"-"`
}

// ToggleActive flips isActive without re-validating the document.
// Concurrent toggles of the same id race between the read and the write.
func (w *Workflow) ToggleActive(ctx context.Context, id string) (*ToggleResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.toggle",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	repo := w.persistence.WorkflowRepository()

	existing, err := repo.GetByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to toggle workflow: %w", err)
	}

	existing.IsActive = !existing.IsActive

	stored, err := repo.Replace(ctx, id, existing)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to toggle workflow: %w", err)
	}

	result := &ToggleResult{IsActive: stored.IsActive, Message: MessageDeactivated, Workflow: stored}

	var event eventbus.Event = events.WorkflowDeactivated{
		BaseEvent: w.baseEvent(events.WorkflowDeactivatedEvent, stored),
	}

	if stored.IsActive {
		result.Message = MessageActivated
		event = events.WorkflowActivated{
			BaseEvent: w.baseEvent(events.WorkflowActivatedEvent, stored),
		}
	}

	w.logger.InfoContext(ctx, "workflow toggled", "workflow_id", id, "is_active", stored.IsActive)
	w.publish(ctx, id, event)

	return result, nil
}

func (w *Workflow) baseEvent(eventType events.EventType, workflow *models.Workflow) events.BaseEvent {
	id := ""
	if w.publisher != nil {
		id = w.publisher.GenerateID()
	}

	return events.NewBaseEvent(id, eventType, workflow)
}

// publish sends a lifecycle event. Failures are logged; the stored change stands.
func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.Publish(ctx, key, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to publish workflow event",
			"workflow_id", key,
			"event_type", event.GetType(),
			"error", err,
		)
	}
}

func normalize(candidate *models.Workflow) *models.Workflow {
	doc := candidate.Clone()
	doc.Name = strings.TrimSpace(doc.Name)

	return doc
}

func graphAttributes(workflow *models.Workflow) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.Int(otelhelper.NodeCountKey, len(workflow.Nodes)),
		attribute.Int(otelhelper.EdgeCountKey, len(workflow.Edges)),
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
)

// subscribeAuditLog logs every workflow lifecycle event delivered by the bus.
func subscribeAuditLog(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	handler := auditHandler(logger)

	for _, eventType := range events.LifecycleEventTypes {
		if err := bus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register audit handler for %s: %w", eventType, err)
		}
	}

	return bus.Subscribe(ctx)
}

func auditHandler(logger *slog.Logger) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		var (
			base    events.BaseEvent
			summary *events.GraphSummary
		)

		switch e := event.(type) {
		case *events.WorkflowCreated:
			base, summary = e.BaseEvent, &e.GraphSummary
		case *events.WorkflowUpdated:
			base, summary = e.BaseEvent, &e.GraphSummary
		case *events.WorkflowDeleted:
			base = e.BaseEvent
		case *events.WorkflowActivated:
			base = e.BaseEvent
		case *events.WorkflowDeactivated:
			base = e.BaseEvent
		default:
			return fmt.Errorf("unexpected lifecycle event %T", event)
		}

		attrs := []any{
			"event_id", base.ID,
			"event_type", base.Type,
			"workflow_id", base.WorkflowID,
			"owner_id", base.OwnerID,
		}

		if summary != nil {
			attrs = append(attrs, "name", summary.Name, "nodes", summary.NodeCount, "edges", summary.EdgeCount)
		}

		logger.InfoContext(ctx, "workflow lifecycle event", attrs...)

		return nil
	}
}

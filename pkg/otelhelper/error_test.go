package otelhelper_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetError_RecordsStatusAndException(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	err := fmt.Errorf("failed to fetch workflow: %w",
		persistence.NewWorkflowError("GetByID", "wf-1", persistence.ErrWorkflowNotFound))

	_, span := otelhelper.StartSpan(context.Background(), tracer, "workflow.fetch",
		attribute.String(otelhelper.WorkflowNameKey, "Daily digest"))
	otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowIDKey, "wf-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, err.Error(), spans[0].Status().Description)

	require.Len(t, spans[0].Events(), 1)

	event := spans[0].Events()[0]
	assert.Equal(t, "exception", event.Name)

	attrs := map[attribute.Key]string{}
	for _, kv := range event.Attributes {
		attrs[kv.Key] = kv.Value.Emit()
	}

	assert.Equal(t, "wf-1", attrs[otelhelper.WorkflowIDKey])
	assert.Equal(t, "*errors.errorString", attrs[otelhelper.ErrorTypeKey])
}

func TestSetError_NilIsIgnored(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "noop")
	otelhelper.SetError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/flowbuilder/pkg/auth"
	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/trace"
)

// MessageDeleted confirms a workflow deletion.
const MessageDeleted = "Workflow deleted successfully"

type APIHandlers struct {
	workflowService *services.Workflow
	drafts          drafts.Store
	catalog         *registry.Registry
	validator       *validator.Validate
	logger          *slog.Logger
	tracer          trace.Tracer
	draftLocks      draftLocks
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	draftStore drafts.Store,
	catalog *registry.Registry,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		drafts:          draftStore,
		catalog:         catalog,
		validator:       validator,
		logger:          logger,
		tracer:          otelhelper.GlobalTracer("flowbuilder/web"),
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req := services.ListWorkflowsRequest{OwnerID: c.Query("ownerId")}

	if activeStr := c.Query("isActive"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: isActive must be a boolean")
		}

		req.IsActive = &active
	}

	workflows, err := h.workflowService.List(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := req.Workflow()
	if session, ok := auth.SessionFrom(c); ok && workflow.OwnerID == "" {
		workflow.OwnerID = session.Email
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	updated, err := h.workflowService.Update(c.Context(), id, req.Merge(existing))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MessageResponse{Message: MessageDeleted})
}

func (h *APIHandlers) ToggleWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.workflowService.ToggleActive(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(h.catalog.NodeTypes())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	draftsCheck, draftsOk := "Draft cache is healthy", true
	if err := h.drafts.HealthCheck(c.Context()); err != nil {
		draftsCheck, draftsOk = "Draft cache is unhealthy: "+err.Error(), false
	}

	status := "unhealthy"
	message := "Flowbuilder API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk && draftsOk {
		status = "healthy"
		message = "Flowbuilder API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"drafts":     draftsCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

package web

import (
	"errors"

	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/editor"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/dukex/flowbuilder/pkg/validation"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// ValidationProblem is the 400 body for rejected workflows: a problem document
// extended with every violated invariant.
type ValidationProblem struct {
	*problems.Problem

	Violations []validation.Violation `json:"violations"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service, store and editor errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	var configErr *registry.ConfigError

	switch {
	case errors.Is(err, services.ErrWorkflowInvalid):
		violations, _ := services.Violations(err)
		problem := ValidationProblem{
			Problem: problems.NewStatusProblem(400).
				WithInstance(c.Path()).
				WithType("workflow_invalid").
				WithDetail("Workflow validation failed"),
			Violations: violations,
		}

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsValidationError(err), errors.Is(err, drafts.ErrInvalidKey):
		return badRequest(c, err.Error())

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow_not_found", "Workflow not found")

	case errors.Is(err, drafts.ErrDraftNotFound):
		return notFound(c, "draft_not_found", "Draft not found")

	case errors.Is(err, editor.ErrNodeNotFound):
		return notFound(c, "node_not_found", err.Error())

	case errors.Is(err, editor.ErrEdgeNotFound):
		return notFound(c, "edge_not_found", err.Error())

	case errors.As(err, &configErr):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("node_config_invalid").
			WithDetail(configErr.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.Is(err, registry.ErrUnknownNodeType),
		errors.Is(err, editor.ErrInvalidHandle),
		errors.Is(err, editor.ErrSelfConnection),
		errors.Is(err, editor.ErrEmailRequired):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}

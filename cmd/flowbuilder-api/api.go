// Package main provides the flowbuilder API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/flowbuilder/pkg/auth"
	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/dukex/flowbuilder/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	drafts      drafts.Store
	catalog     *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	jwtSecret   []byte
	tracer      trace.Tracer
}

// APIOption configures optional API features.
type APIOption func(*API)

// WithJWTSecret requires a signed session token on the workflow and draft routes.
func WithJWTSecret(secret string) APIOption {
	return func(a *API) {
		if secret != "" {
			a.jwtSecret = []byte(secret)
		}
	}
}

// WithTracer traces service operations.
func WithTracer(tracer trace.Tracer) APIOption {
	return func(a *API) {
		a.tracer = tracer
	}
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	draftStore drafts.Store,
	catalog *registry.Registry,
	eventBus eventbus.EventBus,
	opts ...APIOption,
) *API {
	a := &API{
		persistence: persistence,
		drafts:      draftStore,
		logger:      logger,
		catalog:     catalog,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *API) App() *fiber.App {
	serviceOpts := []services.Option{services.WithLogger(a.logger)}
	if a.eventBus != nil {
		serviceOpts = append(serviceOpts, services.WithEventPublisher(a.eventBus))
	}

	if a.tracer != nil {
		serviceOpts = append(serviceOpts, services.WithTracer(a.tracer))
	}

	workflowService := services.NewWorkflow(a.persistence, serviceOpts...)
	handlers := web.NewAPIHandlers(workflowService, a.drafts, a.catalog, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowbuilder API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get("/node-types", handlers.GetNodeTypes)

	var protected []fiber.Handler
	if a.jwtSecret != nil {
		protected = append(protected, auth.Middleware(a.jwtSecret))
	}

	w := app.Group("/workflows", protected...)
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Patch("/:id/toggle", handlers.ToggleWorkflow)

	d := app.Group("/drafts", protected...)
	d.Get("/:key", handlers.GetDraft)
	d.Put("/:key", handlers.PutDraft)
	d.Patch("/:key", handlers.RenameDraft)
	d.Delete("/:key", handlers.DeleteDraft)
	d.Post("/:key/nodes", handlers.AddDraftNode)
	d.Patch("/:key/nodes/:nodeId/config", handlers.UpdateDraftNodeConfig)
	d.Put("/:key/nodes/:nodeId/gmail-auth", handlers.SetDraftNodeGmailAuth)
	d.Delete("/:key/nodes/:nodeId", handlers.RemoveDraftNode)
	d.Post("/:key/edges", handlers.ConnectDraftNodes)
	d.Delete("/:key/edges/:edgeId", handlers.RemoveDraftEdge)
	d.Post("/:key/save", handlers.SaveDraft)

	return app
}

// Start serves the API until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "API listening", "port", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.InfoContext(ctx, "Shutting down API")

		return app.Shutdown()
	}
}

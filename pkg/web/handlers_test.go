package web_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/flowbuilder/pkg/auth"
	draftsmemory "github.com/dukex/flowbuilder/pkg/drafts/memory"
	"github.com/dukex/flowbuilder/pkg/mocks"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence/memory"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/dukex/flowbuilder/pkg/validation"
	"github.com/dukex/flowbuilder/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app     *fiber.App
	service *services.Workflow
	clock   *testutil.FakeClock
}

func setupTestApp(t *testing.T, middleware ...fiber.Handler) *testEnv {
	t.Helper()

	clock := testutil.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	persistence := memory.NewPersistence(memory.WithClock(clock.Now))
	logger := slog.New(slog.DiscardHandler)
	workflowService := services.NewWorkflow(persistence, services.WithLogger(logger))

	catalog, err := registry.Default()
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(
		workflowService,
		draftsmemory.NewStore(0),
		catalog,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	app := fiber.New()
	for _, m := range middleware {
		app.Use(m)
	}

	app.Get("/health", handlers.HealthCheck)
	app.Get("/node-types", handlers.GetNodeTypes)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Patch("/:id/toggle", handlers.ToggleWorkflow)

	d := app.Group("/drafts")
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

	return &testEnv{app: app, service: workflowService, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)

			payload = string(encoded)
		}

		reader = bytes.NewBufferString(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))

	return out
}

type validationBody struct {
	Type       string                 `json:"type"`
	Status     int                    `json:"status"`
	Violations []validation.Violation `json:"violations"`
}

func TestCreateWorkflow(t *testing.T) {
	env := setupTestApp(t)

	status, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow())
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[models.Workflow](t, body)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Test Workflow", created.Name)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	require.Len(t, created.Nodes, 2)
	assert.Equal(t, &models.TriggerConfig{Event: "new_email"}, created.Nodes[0].Data.Config)
}

func TestCreateWorkflow_Violations(t *testing.T) {
	env := setupTestApp(t)

	status, body := env.do(t, http.MethodPost, "/workflows", map[string]any{
		"name":  "  ",
		"nodes": []any{},
		"edges": []any{map[string]any{"id": "e1", "source": "x", "target": "y"}},
	})
	require.Equal(t, http.StatusBadRequest, status)

	problem := decode[validationBody](t, body)
	assert.Equal(t, "workflow_invalid", problem.Type)
	assert.Equal(t, http.StatusBadRequest, problem.Status)

	invariants := make([]validation.Invariant, 0, len(problem.Violations))
	for _, v := range problem.Violations {
		invariants = append(invariants, v.Invariant)
	}

	assert.Equal(t, []validation.Invariant{
		validation.InvariantNameRequired,
		validation.InvariantTriggerRequired,
		validation.InvariantActionRequired,
		validation.InvariantEdgeEndpoint,
	}, invariants)

	status, body = env.do(t, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body), "nothing was stored")
}

func TestCreateWorkflow_BadRequests(t *testing.T) {
	env := setupTestApp(t)

	status, body := env.do(t, http.MethodPost, "/workflows", "{not json")
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}

	status, body = env.do(t, http.MethodPost, "/workflows", map[string]any{"name": string(long)})
	assert.Equal(t, http.StatusBadRequest, status, string(body))
	assert.Equal(t, "validation_error", decode[map[string]any](t, body)["type"])
}

func TestCreateWorkflow_InheritsSessionOwner(t *testing.T) {
	secret := []byte("web-secret")
	env := setupTestApp(t, auth.Middleware(secret))

	token, err := auth.IssueToken(secret, auth.Claims{Email: "me@example.com", AccessToken: "at"}, time.Hour, time.Now())
	require.NoError(t, err)

	status, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow(),
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "me@example.com", decode[models.Workflow](t, body).OwnerID)

	status, _ = env.do(t, http.MethodGet, "/workflows", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGetWorkflow(t *testing.T) {
	env := setupTestApp(t)

	_, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow())
	created := decode[models.Workflow](t, body)

	status, body := env.do(t, http.MethodGet, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, decode[models.Workflow](t, body).ID)

	status, body = env.do(t, http.MethodGet, "/workflows/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "workflow_not_found", decode[map[string]any](t, body)["type"])
}

func TestListWorkflows(t *testing.T) {
	env := setupTestApp(t)

	var ids []string

	for _, owner := range []string{"alice", "bob", "alice"} {
		_, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow(func(w *models.Workflow) {
			w.OwnerID = owner
		}))
		ids = append(ids, decode[models.Workflow](t, body).ID)
		env.clock.Advance(time.Minute)
	}

	status, body := env.do(t, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, status)

	all := decode[[]models.Workflow](t, body)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "most recently updated first")
	assert.Equal(t, ids[0], all[2].ID)

	status, body = env.do(t, http.MethodGet, "/workflows?ownerId=alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Workflow](t, body), 2)

	status, body = env.do(t, http.MethodGet, "/workflows?isActive=true", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Workflow](t, body))

	status, _ = env.do(t, http.MethodGet, "/workflows?isActive=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateWorkflow_MergesFields(t *testing.T) {
	env := setupTestApp(t)

	_, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow())
	created := decode[models.Workflow](t, body)

	env.clock.Advance(time.Hour)

	status, body := env.do(t, http.MethodPut, "/workflows/"+created.ID, map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, status, string(body))

	updated := decode[models.Workflow](t, body)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "A workflow for testing", updated.Description, "absent fields keep their value")
	assert.Len(t, updated.Nodes, 2)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateWorkflow_InvalidLeavesRecordUntouched(t *testing.T) {
	env := setupTestApp(t)

	_, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow())
	created := decode[models.Workflow](t, body)

	status, body := env.do(t, http.MethodPut, "/workflows/"+created.ID, map[string]any{
		"nodes": []any{testutil.CreateTestNode(testutil.WithID("a1"))},
	})
	require.Equal(t, http.StatusBadRequest, status)

	problem := decode[validationBody](t, body)
	require.NotEmpty(t, problem.Violations)
	assert.Equal(t, validation.InvariantTriggerRequired, problem.Violations[0].Invariant)

	_, body = env.do(t, http.MethodGet, "/workflows/"+created.ID, nil)
	assert.Len(t, decode[models.Workflow](t, body).Nodes, 2)
}

func TestUpdateWorkflow_NotFound(t *testing.T) {
	env := setupTestApp(t)

	status, _ := env.do(t, http.MethodPut, "/workflows/missing", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteWorkflow(t *testing.T) {
	env := setupTestApp(t)

	_, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow())
	created := decode[models.Workflow](t, body)

	status, body := env.do(t, http.MethodDelete, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, web.MessageResponse{Message: web.MessageDeleted}, decode[web.MessageResponse](t, body))

	status, _ = env.do(t, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status, "repeated deletes are not found")
}

func TestToggleWorkflow(t *testing.T) {
	env := setupTestApp(t)

	_, body := env.do(t, http.MethodPost, "/workflows", testutil.CreateTestWorkflow())
	created := decode[models.Workflow](t, body)

	status, body := env.do(t, http.MethodPatch, "/workflows/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"isActive":true,"message":"Workflow activated successfully"}`, string(body))

	status, body = env.do(t, http.MethodPatch, "/workflows/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"isActive":false,"message":"Workflow deactivated successfully"}`, string(body))

	status, _ = env.do(t, http.MethodPatch, "/workflows/missing/toggle", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetNodeTypes(t *testing.T) {
	env := setupTestApp(t)

	status, body := env.do(t, http.MethodGet, "/node-types", nil)
	require.Equal(t, http.StatusOK, status)

	types := decode[[]registry.NodeType](t, body)
	require.Len(t, types, 3)
	assert.Equal(t, "Gmail Trigger", types[0].Label)
	assert.Equal(t, "zap", types[0].Icon)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestApp(t)

	status, body := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health["checkers"], "repository")
	assert.Contains(t, health["checkers"], "drafts")
}

func TestStoreFailures_AreInternalErrors(t *testing.T) {
	repo := &mocks.MockWorkflowRepository{}
	repo.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	p := mocks.NewMockPersistence(repo)
	p.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

	catalog, err := registry.Default()
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(p, services.WithLogger(slog.New(slog.DiscardHandler))),
		draftsmemory.NewStore(0),
		catalog,
		validator.New(validator.WithRequiredStructEnabled()),
		slog.New(slog.DiscardHandler),
	)

	app := fiber.New()
	app.Get("/workflows", handlers.GetWorkflows)
	app.Get("/health", handlers.HealthCheck)

	env := &testEnv{app: app}

	status, body := env.do(t, http.MethodGet, "/workflows", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", decode[map[string]any](t, body)["type"])

	status, body = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, body)["status"])

	repo.AssertExpectations(t)
}

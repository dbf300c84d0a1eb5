package web

import (
	"errors"
	"sync"

	"github.com/dukex/flowbuilder/pkg/auth"
	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/editor"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/attribute"
)

// draftLocks serializes edits per draft key within this process.
type draftLocks struct {
	mu    sync.Mutex
	locks map[string]*draftLock
}

type draftLock struct {
	sync.Mutex
	refs int
}

func (l *draftLocks) lock(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*draftLock)
	}

	dl, ok := l.locks[key]
	if !ok {
		dl = &draftLock{}
		l.locks[key] = dl
	}

	dl.refs++
	l.mu.Unlock()

	dl.Lock()

	return func() {
		dl.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, key)
		}
	}
}

// editDraft loads the draft under :key, applies edit and stores the result.
// With createIfMissing an absent draft starts empty instead of failing.
// Edits of one key are serialized per process; replicas sharing a Redis store
// are last-writer-wins.
func (h *APIHandlers) editDraft(
	c fiber.Ctx,
	createIfMissing bool,
	edit func(d *editor.Draft) (any, error),
) (any, error) {
	key := c.Params("key")

	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "draft.edit",
		attribute.String(otelhelper.DraftKey, key))
	defer span.End()

	unlock := h.draftLocks.lock(key)
	defer unlock()

	current, err := h.drafts.Load(ctx, key)
	if err != nil {
		if !createIfMissing || !errors.Is(err, drafts.ErrDraftNotFound) {
			return nil, err
		}

		current = nil
	}

	d := editor.New(h.catalog, current)
	d.OnChange(func(w *models.Workflow) {
		h.logger.DebugContext(ctx, "draft changed",
			"key", key,
			"nodes", len(w.Nodes),
			"edges", len(w.Edges),
		)
	})

	result, err := edit(d)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := h.drafts.Save(ctx, key, d.Workflow()); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return result, nil
}

func (h *APIHandlers) GetDraft(c fiber.Ctx) error {
	draft, err := h.drafts.Load(c.Context(), c.Params("key"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(draft)
}

// PutDraft replaces the draft. Drafts are stored as sent, without validation.
func (h *APIHandlers) PutDraft(c fiber.Ctx) error {
	var draft models.Workflow
	if err := c.Bind().JSON(&draft); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	unlock := h.draftLocks.lock(c.Params("key"))
	defer unlock()

	if err := h.drafts.Save(c.Context(), c.Params("key"), &draft); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(draft.Clone())
}

func (h *APIHandlers) RenameDraft(c fiber.Ctx) error {
	var req RenameDraftRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.editDraft(c, true, func(d *editor.Draft) (any, error) {
		d.Rename(req.Name, req.Description)

		return d.Workflow(), nil
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) DeleteDraft(c fiber.Ctx) error {
	if err := h.drafts.Delete(c.Context(), c.Params("key")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddDraftNode(c fiber.Ctx) error {
	var req AddNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.editDraft(c, true, func(d *editor.Draft) (any, error) {
		return d.AddNode(req.Type, req.Position)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) UpdateDraftNodeConfig(c fiber.Ctx) error {
	var patch map[string]any
	if err := c.Bind().JSON(&patch); err != nil || patch == nil {
		return badRequest(c, "Invalid JSON format")
	}

	node, err := h.editDraft(c, false, func(d *editor.Draft) (any, error) {
		return d.UpdateNodeConfig(c.Params("nodeId"), patch)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) SetDraftNodeGmailAuth(c fiber.Ctx) error {
	var req GmailAuthRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if session, ok := auth.SessionFrom(c); ok && req.Email == "" {
		req.Email = session.Email
		req.AccessToken = session.AccessToken
	}

	node, err := h.editDraft(c, false, func(d *editor.Draft) (any, error) {
		return d.SetGmailAuth(c.Params("nodeId"), req.Email, req.AccessToken)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) RemoveDraftNode(c fiber.Ctx) error {
	result, err := h.editDraft(c, false, func(d *editor.Draft) (any, error) {
		if err := d.RemoveNode(c.Params("nodeId")); err != nil {
			return nil, err
		}

		return d.Workflow(), nil
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ConnectDraftNodes(c fiber.Ctx) error {
	var req ConnectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edge, err := h.editDraft(c, false, func(d *editor.Draft) (any, error) {
		return d.Connect(req.Source, req.Target, req.SourceHandle, req.TargetHandle)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edge)
}

func (h *APIHandlers) RemoveDraftEdge(c fiber.Ctx) error {
	result, err := h.editDraft(c, false, func(d *editor.Draft) (any, error) {
		if err := d.RemoveEdge(c.Params("edgeId")); err != nil {
			return nil, err
		}

		return d.Workflow(), nil
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// SaveDraft validates the draft and persists it: created when it has no id yet,
// updated otherwise. The draft then tracks the stored document.
func (h *APIHandlers) SaveDraft(c fiber.Ctx) error {
	key := c.Params("key")

	unlock := h.draftLocks.lock(key)
	defer unlock()

	draft, err := h.drafts.Load(c.Context(), key)
	if err != nil {
		return handleServiceError(c, err)
	}

	if session, ok := auth.SessionFrom(c); ok && draft.OwnerID == "" {
		draft.OwnerID = session.Email
	}

	var (
		stored *models.Workflow
		status = fiber.StatusOK
	)

	if draft.ID == "" {
		stored, err = h.workflowService.Create(c.Context(), draft)
		status = fiber.StatusCreated
	} else {
		stored, err = h.workflowService.Update(c.Context(), draft.ID, draft)
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	if err := h.drafts.Save(c.Context(), key, stored); err != nil {
		h.logger.ErrorContext(c.Context(), "failed to refresh draft after save", "key", key, "error", err)
	}

	return c.Status(status).JSON(stored)
}

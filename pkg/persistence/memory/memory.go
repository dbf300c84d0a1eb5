// Package memory provides an in-process persistence implementation for workflows.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/google/uuid"
)

// Option configures the memory store.
type Option func(*WorkflowRepository)

// WithClock sets the clock used to stamp createdAt and updatedAt.
func WithClock(clock persistence.Clock) Option {
	return func(r *WorkflowRepository) {
		r.now = clock
	}
}

// Persistence implements persistence.Persistence in memory. Data is lost on restart.
type Persistence struct {
	workflowRepo *WorkflowRepository
}

// NewPersistence creates an empty in-memory store.
func NewPersistence(opts ...Option) *Persistence {
	return &Persistence{workflowRepo: NewWorkflowRepository(opts...)}
}

// WorkflowRepository returns the workflow repository.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// HealthCheck always succeeds.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// WorkflowRepository keeps workflows in a map guarded by a mutex.
type WorkflowRepository struct {
	mu        sync.RWMutex
	workflows map[string]*models.Workflow
	now       persistence.Clock
}

// NewWorkflowRepository creates an empty repository.
func NewWorkflowRepository(opts ...Option) *WorkflowRepository {
	repo := &WorkflowRepository{
		workflows: make(map[string]*models.Workflow),
		now:       persistence.UTCNow,
	}

	for _, opt := range opts {
		opt(repo)
	}

	return repo
}

func (r *WorkflowRepository) Insert(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, persistence.NewWorkflowError("Insert", "", fmt.Errorf("failed to generate id: %w", err))
	}

	stored := workflow.Clone()
	stored.ID = id.String()
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()

	r.workflows[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *WorkflowRepository) Replace(_ context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("Replace", id, persistence.ErrWorkflowNotFound)
	}

	stored := workflow.Clone()
	stored.ID = id
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.now()

	r.workflows[id] = stored

	return stored.Clone(), nil
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, ok := r.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow.Clone(), nil
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workflows[id]; !ok {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	delete(r.workflows, id)

	return nil
}

func (r *WorkflowRepository) Query(_ context.Context, opts persistence.QueryOptions) ([]*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Workflow, 0, len(r.workflows))

	for _, workflow := range r.workflows {
		if opts.Matches(workflow) {
			out = append(out, workflow.Clone())
		}
	}

	persistence.SortWorkflows(out)

	return out, nil
}

// Package persistence provides the storage gateway for workflow documents.
package persistence

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Persistence bundles the workflow repository with store lifecycle hooks.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// WorkflowRepository stores validated workflow documents.
//
// Implementations never share memory with callers: returned documents are
// copies and inputs are never modified.
type WorkflowRepository interface {
	// Insert stores a new document, assigning id, createdAt and updatedAt.
	Insert(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error)
	// Replace overwrites an existing document, preserving id and createdAt and
	// refreshing updatedAt. Returns ErrWorkflowNotFound when id is unknown.
	Replace(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error)
	// GetByID returns ErrWorkflowNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	// Delete returns ErrWorkflowNotFound when id is unknown.
	Delete(ctx context.Context, id string) error
	// Query returns matching documents ordered by updatedAt descending.
	Query(ctx context.Context, opts QueryOptions) ([]*models.Workflow, error)
}

// QueryOptions filters a workflow query. Zero values match everything.
type QueryOptions struct {
	OwnerID string
	// IsActive restricts the result to active or inactive workflows when set.
	IsActive *bool
}

// Matches reports whether the workflow satisfies the filter.
func (o QueryOptions) Matches(workflow *models.Workflow) bool {
	if o.OwnerID != "" && workflow.OwnerID != o.OwnerID {
		return false
	}

	if o.IsActive != nil && workflow.IsActive != *o.IsActive {
		return false
	}

	return true
}

// Clock returns the current time; stores take one so tests can control timestamps.
type Clock func() time.Time

// UTCNow is the default store clock.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// SortWorkflows orders workflows by updatedAt descending, ties broken by id ascending.
func SortWorkflows(workflows []*models.Workflow) {
	slices.SortStableFunc(workflows, func(a, b *models.Workflow) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/google/uuid"
)

// Option configures the PostgreSQL workflow repository.
type Option func(*WorkflowRepository)

// WithClock sets the clock used to stamp createdAt and updatedAt.
func WithClock(clock persistence.Clock) Option {
	return func(r *WorkflowRepository) {
		r.now = clock
	}
}

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    persistence.Clock
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger, opts ...Option) *WorkflowRepository {
	r := &WorkflowRepository{db: db, logger: logger, now: persistence.UTCNow}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

const selectWorkflow = `
	SELECT
		id
	  , name
	  , description
	  , nodes
	  , edges
	  , is_active
	  , owner_id
	  , created_at
	  , updated_at
	FROM workflows
`

// stamp reads the clock at the microsecond precision of TIMESTAMPTZ columns.
func (r *WorkflowRepository) stamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// Insert stores a new workflow row.
func (r *WorkflowRepository) Insert(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, persistence.NewWorkflowError("Insert", "", fmt.Errorf("failed to generate id: %w", err))
	}

	stored := workflow.Clone()
	stored.ID = id.String()
	stored.CreatedAt = r.stamp()
	stored.UpdatedAt = stored.CreatedAt

	nodesJSON, edgesJSON, err := encodeGraph(stored)
	if err != nil {
		return nil, persistence.NewWorkflowError("Insert", stored.ID, err)
	}

	query := `
		INSERT INTO workflows (id, name, description, nodes, edges, is_active, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		stored.ID,
		stored.Name,
		stored.Description,
		string(nodesJSON),
		string(edgesJSON),
		stored.IsActive,
		stored.OwnerID,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, persistence.NewWorkflowError("Insert", stored.ID, fmt.Errorf("failed to insert workflow: %w", err))
	}

	return stored, nil
}

// Replace updates every column of an existing row except id and created_at.
func (r *WorkflowRepository) Replace(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	stored := workflow.Clone()
	stored.ID = id
	stored.UpdatedAt = r.stamp()

	nodesJSON, edgesJSON, err := encodeGraph(stored)
	if err != nil {
		return nil, persistence.NewWorkflowError("Replace", id, err)
	}

	query := `
		UPDATE workflows
		SET name = $2
		  , description = $3
		  , nodes = $4
		  , edges = $5
		  , is_active = $6
		  , owner_id = $7
		  , updated_at = $8
		WHERE id = $1
		RETURNING created_at
	`

	var createdAt time.Time

	err = r.db.QueryRowContext(ctx, query,
		id,
		stored.Name,
		stored.Description,
		string(nodesJSON),
		string(edgesJSON),
		stored.IsActive,
		stored.OwnerID,
		stored.UpdatedAt,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("Replace", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("Replace", id, fmt.Errorf("failed to update workflow: %w", err))
	}

	stored.CreatedAt = createdAt.UTC()

	return stored, nil
}

// GetByID retrieves a workflow row by id.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	row := r.db.QueryRowContext(ctx, selectWorkflow+" WHERE id = $1", id)

	workflow, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Delete removes a workflow row.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to delete workflow: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to read affected rows: %w", err))
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// Query returns workflows matching the filter, most recently updated first.
func (r *WorkflowRepository) Query(ctx context.Context, opts persistence.QueryOptions) ([]*models.Workflow, error) {
	query := selectWorkflow + `
		WHERE ($1::TEXT = '' OR owner_id = $1)
		  AND ($2::BOOLEAN IS NULL OR is_active = $2)
		ORDER BY updated_at DESC, id ASC
	`

	var isActive sql.NullBool
	if opts.IsActive != nil {
		isActive = sql.NullBool{Bool: *opts.IsActive, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, opts.OwnerID, isActive)
	if err != nil {
		return nil, persistence.NewWorkflowError("Query", "", fmt.Errorf("failed to query workflows: %w", err))
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, persistence.NewWorkflowError("Query", "", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewWorkflowError("Query", "", fmt.Errorf("failed to iterate workflows: %w", err))
	}

	return workflows, nil
}

func encodeGraph(workflow *models.Workflow) ([]byte, []byte, error) {
	nodesJSON, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(workflow.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal edges: %w", err)
	}

	return nodesJSON, edgesJSON, nil
}

func scanWorkflow(scanner interface {
	Scan(dest ...any) error
}) (*models.Workflow, error) {
	var (
		workflow  models.Workflow
		nodesJSON []byte
		edgesJSON []byte
	)

	err := scanner.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&nodesJSON,
		&edgesJSON,
		&workflow.IsActive,
		&workflow.OwnerID,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodesJSON, &workflow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes of workflow %s: %w", workflow.ID, err)
	}

	if err := json.Unmarshal(edgesJSON, &workflow.Edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges of workflow %s: %w", workflow.ID, err)
	}

	workflow.CreatedAt = workflow.CreatedAt.UTC()
	workflow.UpdatedAt = workflow.UpdatedAt.UTC()

	return workflow.Clone(), nil
}

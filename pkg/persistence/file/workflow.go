package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/google/uuid"
)

// Option configures the file workflow repository.
type Option func(*WorkflowRepository)

// WithClock sets the clock used to stamp createdAt and updatedAt.
func WithClock(clock persistence.Clock) Option {
	return func(wr *WorkflowRepository) {
		wr.now = clock
	}
}

// WorkflowRepository stores one JSON file per workflow under {root}/workflows.
type WorkflowRepository struct {
	root string // File system root for storing workflows
	mu   sync.RWMutex
	now  persistence.Clock
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string, opts ...Option) *WorkflowRepository {
	wr := &WorkflowRepository{root: root, now: persistence.UTCNow}

	for _, opt := range opts {
		opt(wr)
	}

	return wr
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

// pathFor returns the file of a workflow id, or false when the id cannot name a file in the store.
func (wr *WorkflowRepository) pathFor(id string) (string, bool) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", false
	}

	return filepath.Join(wr.dir(), id+".json"), true
}

// Insert writes a new workflow file.
func (wr *WorkflowRepository) Insert(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, persistence.NewWorkflowError("Insert", "", fmt.Errorf("failed to generate id: %w", err))
	}

	stored := workflow.Clone()
	stored.ID = id.String()
	stored.CreatedAt = wr.now()
	stored.UpdatedAt = stored.CreatedAt

	wr.mu.Lock()
	defer wr.mu.Unlock()

	if err := wr.write(stored); err != nil {
		return nil, persistence.NewWorkflowError("Insert", stored.ID, err)
	}

	return stored, nil
}

// Replace overwrites an existing workflow file.
func (wr *WorkflowRepository) Replace(_ context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	existing, err := wr.read(id)
	if err != nil {
		return nil, persistence.NewWorkflowError("Replace", id, err)
	}

	stored := workflow.Clone()
	stored.ID = id
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = wr.now()

	if err := wr.write(stored); err != nil {
		return nil, persistence.NewWorkflowError("Replace", id, err)
	}

	return stored, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	workflow, err := wr.read(id)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	filePath, ok := wr.pathFor(id)
	if !ok {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	err := os.Remove(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to delete workflow file: %w", err))
	}

	return nil
}

// Query loads every workflow file and filters in memory.
func (wr *WorkflowRepository) Query(_ context.Context, opts persistence.QueryOptions) ([]*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	workflows := make([]*models.Workflow, 0)

	jsonFiles, err := fs.Glob(os.DirFS(wr.dir()), "*.json")
	if err != nil {
		return nil, persistence.NewWorkflowError("Query", "", fmt.Errorf("failed to list workflow files: %w", err))
	}

	for _, file := range jsonFiles {
		workflow, err := wr.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, persistence.NewWorkflowError("Query", "", err)
		}

		if opts.Matches(workflow) {
			workflows = append(workflows, workflow)
		}
	}

	persistence.SortWorkflows(workflows)

	return workflows, nil
}

func (wr *WorkflowRepository) read(id string) (*models.Workflow, error) {
	filePath, ok := wr.pathFor(id)
	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	body, err := os.ReadFile(filepath.Clean(filePath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrWorkflowNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return workflow.Clone(), nil
}

// write replaces the workflow file atomically through a temp file rename.
func (wr *WorkflowRepository) write(workflow *models.Workflow) error {
	if err := os.MkdirAll(wr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	filePath, _ := wr.pathFor(workflow.ID)
	tmpPath := filePath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to commit workflow %s: %w", workflow.ID, err)
	}

	return nil
}

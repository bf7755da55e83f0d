package ports

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// WorkflowStore defines the interface for persisting workflow graphs.
// Implementations must hand out copies: mutating a loaded workflow never changes the stored one.
type WorkflowStore interface {
	// Save persists the workflow under its name, replacing any previous version.
	Save(ctx context.Context, wf *domain.Workflow) error

	// Load retrieves a workflow by name.
	// Returns domain.ErrWorkflowNotFound if the workflow does not exist.
	Load(ctx context.Context, name string) (*domain.Workflow, error)

	// Delete removes a workflow. Deleting an unknown name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of every stored workflow.
	List(ctx context.Context) ([]string, error)
}

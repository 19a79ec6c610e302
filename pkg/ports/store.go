package ports

import (
	"context"

	"github.com/finecision/finecision/pkg/domain"
)

// WorkflowStore persists workflow definitions.
// Deactivated workflows are still stored; filtering is up to the caller.
type WorkflowStore interface {
	// Save creates or replaces the workflow with the same ID.
	Save(ctx context.Context, wf *domain.Workflow) error

	// Load retrieves a workflow by ID.
	// Returns domain.ErrWorkflowNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Workflow, error)

	// List returns every stored workflow, in no particular order.
	List(ctx context.Context) ([]*domain.Workflow, error)
}

// ApplicationStore persists credit applications.
type ApplicationStore interface {
	// Save creates or replaces the application with the same ID.
	Save(ctx context.Context, app *domain.Application) error

	// Load retrieves an application by ID.
	// Returns domain.ErrApplicationNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Application, error)

	// List returns every stored application, in no particular order.
	List(ctx context.Context) ([]*domain.Application, error)
}

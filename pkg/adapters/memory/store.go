package memory

import (
	"context"
	"sync"

	"github.com/finecision/finecision/pkg/domain"
)

// WorkflowStore implements ports.WorkflowStore in memory.
// Safe for concurrent use.
type WorkflowStore struct {
	data map[string]*domain.Workflow
	mu   sync.RWMutex
}

// NewWorkflowStore creates a new in-memory workflow store.
func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{
		data: make(map[string]*domain.Workflow),
	}
}

// Save persists a copy of the workflow.
func (s *WorkflowStore) Save(ctx context.Context, wf *domain.Workflow) error {
	copied := wf.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[wf.ID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored workflow.
func (s *WorkflowStore) Load(ctx context.Context, id string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.data[id]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return wf.Clone(), nil
}

// List returns copies of all workflows.
func (s *WorkflowStore) List(ctx context.Context) ([]*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Workflow, 0, len(s.data))
	for _, wf := range s.data {
		all = append(all, wf.Clone())
	}
	return all, nil
}

// ApplicationStore implements ports.ApplicationStore in memory.
// Safe for concurrent use.
type ApplicationStore struct {
	data map[string]*domain.Application
	mu   sync.RWMutex
}

// NewApplicationStore creates a new in-memory application store.
func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{
		data: make(map[string]*domain.Application),
	}
}

// Save persists a copy of the application.
func (s *ApplicationStore) Save(ctx context.Context, app *domain.Application) error {
	copied := app.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[app.ID] = copied
	return nil
}

// Load retrieves a copy of the application.
func (s *ApplicationStore) Load(ctx context.Context, id string) (*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.data[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	return app.Clone(), nil
}

// List returns copies of all applications.
func (s *ApplicationStore) List(ctx context.Context) ([]*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Application, 0, len(s.data))
	for _, app := range s.data {
		all = append(all, app.Clone())
	}
	return all, nil
}

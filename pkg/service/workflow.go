package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/ports"
)

// WorkflowInput is the editable part of a workflow.
type WorkflowInput struct {
	Name        string              `json:"name"`
	Nodes       []domain.Node       `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
}

// WorkflowService manages workflow definitions. Deleting a workflow only
// deactivates it; inactive workflows are invisible to every read.
type WorkflowService struct {
	store ports.WorkflowStore
	opts  options
}

// NewWorkflowService creates a workflow service over store.
func NewWorkflowService(store ports.WorkflowStore, opts ...Option) *WorkflowService {
	return &WorkflowService{store: store, opts: newOptions(opts)}
}

// Create validates and stores a new active workflow.
func (s *WorkflowService) Create(ctx context.Context, in WorkflowInput) (*domain.Workflow, error) {
	now := s.opts.now()
	wf := &domain.Workflow{
		ID:          s.opts.newID(),
		Name:        in.Name,
		Active:      true,
		Nodes:       in.Nodes,
		Connections: in.Connections,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := domain.Validate(wf); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.opts.logger.Info("workflow created", "workflow_id", wf.ID, "nodes", len(wf.Nodes))
	return wf, nil
}

// List returns the active workflows, newest first.
func (s *WorkflowService) List(ctx context.Context) ([]*domain.Workflow, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	active := make([]*domain.Workflow, 0, len(all))
	for _, wf := range all {
		if wf.Active {
			active = append(active, wf)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].ID < active[j].ID
		}
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

// Get returns an active workflow or domain.ErrWorkflowNotFound.
func (s *WorkflowService) Get(ctx context.Context, id string) (*domain.Workflow, error) {
	wf, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !wf.Active {
		return nil, domain.ErrWorkflowNotFound
	}
	return wf, nil
}

// Update replaces the name and graph of an active workflow.
func (s *WorkflowService) Update(ctx context.Context, id string, in WorkflowInput) (*domain.Workflow, error) {
	wf, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wf.Name = in.Name
	wf.Nodes = in.Nodes
	wf.Connections = in.Connections
	wf.UpdatedAt = s.opts.now()

	if err := domain.Validate(wf); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.opts.logger.Info("workflow updated", "workflow_id", wf.ID)
	return wf, nil
}

// Delete deactivates an active workflow.
func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	wf, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	wf.Active = false
	wf.UpdatedAt = s.opts.now()
	if err := s.store.Save(ctx, wf); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	s.opts.logger.Info("workflow deactivated", "workflow_id", wf.ID)
	return nil
}

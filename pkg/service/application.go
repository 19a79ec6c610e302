package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/finecision/finecision/internal/runtime"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/ports"
)

// Engine is the decision engine used by ApplicationService.
// Both runtime.Engine and finecision.Engine implement it.
type Engine interface {
	Explain(ctx context.Context, wf *domain.Workflow, variables map[string]any) (*domain.Trace, error)
	Resolve(wf *domain.Workflow, inputs map[string]any) map[string]any
	Preview(wf *domain.Workflow, inputs map[string]any) runtime.Preview
}

// ApplicationService records credit applications and decides them.
type ApplicationService struct {
	store     ports.ApplicationStore
	workflows *WorkflowService
	engine    Engine
	opts      options
}

// NewApplicationService creates an application service.
func NewApplicationService(store ports.ApplicationStore, workflows *WorkflowService, engine Engine, opts ...Option) *ApplicationService {
	return &ApplicationService{
		store:     store,
		workflows: workflows,
		engine:    engine,
		opts:      newOptions(opts),
	}
}

// Create stores a pending application for an active workflow. The stored
// variables are the inputs extended with the workflow's calculated variables.
func (s *ApplicationService) Create(ctx context.Context, workflowID string, inputs map[string]any) (*domain.Application, error) {
	wf, err := s.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	app := &domain.Application{
		ID:         s.opts.newID(),
		WorkflowID: wf.ID,
		Variables:  s.engine.Resolve(wf, inputs),
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	s.opts.logger.Info("application created", "application_id", app.ID, "workflow_id", wf.ID)
	return app, nil
}

// List returns every application, newest first.
func (s *ApplicationService) List(ctx context.Context) ([]*domain.Application, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// Get returns an application or domain.ErrApplicationNotFound.
func (s *ApplicationService) Get(ctx context.Context, id string) (*domain.Application, error) {
	return s.store.Load(ctx, id)
}

// Process runs the application's workflow and records the decision.
// Processing an already decided application decides it again.
func (s *ApplicationService) Process(ctx context.Context, id string) (*domain.Application, error) {
	if s.opts.locker != nil {
		unlock, err := s.opts.locker.Lock(ctx, "application:"+id, s.opts.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("%w for application %s: %w", domain.ErrLockAcquire, id, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.opts.logger.Warn("failed to release application lock", "application_id", id, "error", err)
			}
		}()
	}

	app, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	wf, err := s.workflows.Get(ctx, app.WorkflowID)
	if err != nil {
		return nil, err
	}

	trace, err := s.engine.Explain(ctx, wf, app.Variables)
	if err != nil {
		return nil, err
	}

	app.Apply(trace.Result)
	app.UpdatedAt = s.opts.now()
	if err := s.store.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	s.opts.logger.Info("application processed",
		"application_id", app.ID,
		"workflow_id", wf.ID,
		"status", app.Status,
		"steps", trace.Steps)
	return app, nil
}

// Evaluate decides inputs against an active workflow without storing anything.
func (s *ApplicationService) Evaluate(ctx context.Context, workflowID string, inputs map[string]any) (*domain.Trace, error) {
	wf, err := s.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return s.engine.Explain(ctx, wf, s.engine.Resolve(wf, inputs))
}

// Preview scores partially filled inputs against an active workflow.
func (s *ApplicationService) Preview(ctx context.Context, workflowID string, inputs map[string]any) (runtime.Preview, error) {
	wf, err := s.workflows.Get(ctx, workflowID)
	if err != nil {
		return runtime.Preview{}, err
	}
	return s.engine.Preview(wf, inputs), nil
}

package finecision

import (
	"context"
	"log/slog"

	"github.com/finecision/finecision/internal/logging"
	"github.com/finecision/finecision/internal/runtime"
	"github.com/finecision/finecision/pkg/adapters/file"
	"github.com/finecision/finecision/pkg/domain"
)

// Engine is the high-level entry point for the Finecision library.
// It wraps the internal runtime and is safe for concurrent use.
type Engine struct {
	runtime     *runtime.Engine
	evaluator   runtime.ConditionEvaluator
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// ConditionEvaluator decides whether value <op> threshold holds.
type ConditionEvaluator = runtime.ConditionEvaluator

// Preview is the score computed for partially filled inputs.
type Preview = runtime.Preview

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithConditionEvaluator sets a custom comparison for conditions and scoring rules.
func WithConditionEvaluator(eval ConditionEvaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps caps every traversal at n steps.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxSteps(n))
	}
}

// WithStepMultiplier caps a traversal at len(nodes) * m steps.
func WithStepMultiplier(m int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithStepMultiplier(m))
	}
}

// New initializes a new Finecision Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Never hand a nil logger to the runtime.
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithConditionEvaluator(eng.evaluator),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(runtimeOpts...)
	return eng
}

// Execute evaluates the workflow for the applicant variables and returns the decision.
// Calculated variables must already be present (see Resolve).
func (e *Engine) Execute(ctx context.Context, wf *domain.Workflow, variables map[string]any) (domain.ExecutionResult, error) {
	return e.runtime.Execute(ctx, wf, variables)
}

// Explain is Execute returning the visited path and every computed score.
func (e *Engine) Explain(ctx context.Context, wf *domain.Workflow, variables map[string]any) (*domain.Trace, error) {
	return e.runtime.Explain(ctx, wf, variables)
}

// Resolve returns inputs extended with the workflow's calculated variables.
func (e *Engine) Resolve(wf *domain.Workflow, inputs map[string]any) map[string]any {
	return e.runtime.Resolve(wf, inputs)
}

// Preview scores partially filled inputs without traversing the graph.
func (e *Engine) Preview(wf *domain.Workflow, inputs map[string]any) Preview {
	return e.runtime.Preview(wf, inputs)
}

// Validate reports structural problems of a workflow definition.
func Validate(wf *domain.Workflow) error {
	return domain.Validate(wf)
}

// Load reads a workflow document (.json, .yaml or .yml).
func Load(path string) (*domain.Workflow, error) {
	return file.ReadWorkflow(path)
}

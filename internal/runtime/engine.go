package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/finecision/finecision/internal/logging"
	"github.com/finecision/finecision/pkg/domain"
)

// Engine is the execution orchestrator: score, traverse, decide.
// It holds no per-execution state and is safe for concurrent use.
type Engine struct {
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	evaluate       ConditionEvaluator
	score          ScoreCalculator
	resolve        VariableResolver
	traverser      *Traverser
	maxSteps       int
	stepMultiplier int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithConditionEvaluator replaces the comparison used for branching and scoring.
func WithConditionEvaluator(evaluate ConditionEvaluator) EngineOption {
	return func(e *Engine) {
		if evaluate != nil {
			e.evaluate = evaluate
		}
	}
}

// WithScoreCalculator replaces the credit score calculator.
func WithScoreCalculator(score ScoreCalculator) EngineOption {
	return func(e *Engine) {
		e.score = score
	}
}

// WithVariableResolver replaces the calculated-variable resolver.
func WithVariableResolver(resolve VariableResolver) EngineOption {
	return func(e *Engine) {
		e.resolve = resolve
	}
}

// WithTraverser replaces the graph traverser.
func WithTraverser(t *Traverser) EngineOption {
	return func(e *Engine) {
		e.traverser = t
	}
}

// WithMaxSteps caps every traversal at n steps regardless of the workflow size.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithStepMultiplier caps a traversal at len(nodes) * m steps (default DefaultStepMultiplier).
func WithStepMultiplier(m int) EngineOption {
	return func(e *Engine) {
		e.stepMultiplier = m
	}
}

func newEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:         logging.NewNop(),
		evaluate:       Compare,
		stepMultiplier: DefaultStepMultiplier,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) newTraverser() *Traverser {
	return &Traverser{
		evaluate:       e.evaluate,
		logger:         e.logger,
		hooks:          e.hooks,
		maxSteps:       e.maxSteps,
		stepMultiplier: e.stepMultiplier,
	}
}

// NewEngine creates an engine. Collaborators not injected through options
// default to Compare, NewScoreCalculator, FormulaResolver and NewTraverser.
func NewEngine(opts ...EngineOption) *Engine {
	e := newEngine(opts...)
	if e.score == nil {
		e.score = NewScoreCalculator(e.evaluate)
	}
	if e.resolve == nil {
		e.resolve = NewFormulaResolver(e.logger).Resolve
	}
	if e.traverser == nil {
		e.traverser = e.newTraverser()
	}
	return e
}

// Execute evaluates the workflow against the applicant variables.
//
// Variables are used as given: calculated variables must already be resolved
// (see Resolve). The result carries the primary credit score whenever the
// workflow declares a credit-score node.
func (e *Engine) Execute(ctx context.Context, wf *domain.Workflow, variables map[string]any) (domain.ExecutionResult, error) {
	trace, err := e.Explain(ctx, wf, variables)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	return trace.Result, nil
}

// Explain is Execute returning the visited path and every computed score.
func (e *Engine) Explain(ctx context.Context, wf *domain.Workflow, variables map[string]any) (*domain.Trace, error) {
	if wf == nil {
		return nil, domain.ErrWorkflowNotFound
	}

	scores := e.Scores(wf, variables)

	trace, err := e.traverser.Traverse(ctx, wf, variables, scores)
	if err != nil {
		return nil, &domain.StructuralError{WorkflowID: wf.ID, Err: err}
	}

	trace.Result.CreditScore = scores.PrimaryScore()
	if len(scores.ByNode) > 0 {
		trace.Scores = scores.ByNode
	}

	e.logger.Debug("workflow decided",
		"workflow_id", wf.ID,
		"status", trace.Result.Status,
		"steps", trace.Steps)

	if e.hooks.OnDecision != nil {
		e.hooks.OnDecision(ctx, &domain.DecisionEvent{
			EventBase: domain.EventBase{
				Timestamp:  time.Now(),
				Type:       domain.EventDecision,
				WorkflowID: wf.ID,
			},
			Result: trace.Result,
			Steps:  trace.Steps,
		})
	}

	return trace, nil
}

// Scores computes the score of every credit-score node of the workflow.
func (e *Engine) Scores(wf *domain.Workflow, variables map[string]any) Scores {
	scores := Scores{ByNode: make(map[string]float64)}
	for _, node := range wf.NodesOfType(domain.NodeTypeCreditScore) {
		if _, seen := scores.ByNode[node.ID]; seen {
			continue
		}
		cfg, _ := node.Config.(domain.CreditScoreConfig)
		scores.ByNode[node.ID] = e.score(cfg, variables)
		if scores.Primary == "" {
			scores.Primary = node.ID
		}
	}
	return scores
}

// Resolve returns inputs extended with the workflow's calculated variables.
func (e *Engine) Resolve(wf *domain.Workflow, inputs map[string]any) map[string]any {
	return e.resolve(wf.Variables(), inputs)
}

// Preview is the score an applicant would get for the data filled in so far.
type Preview struct {
	Variables   map[string]any     `json:"variables"`
	CreditScore *float64           `json:"creditScore,omitempty"`
	Scores      map[string]float64 `json:"scores,omitempty"`
}

// Preview resolves calculated variables and scores partially filled inputs.
// It never fails on missing data.
func (e *Engine) Preview(wf *domain.Workflow, inputs map[string]any) Preview {
	resolved := e.Resolve(wf, inputs)
	scores := e.Scores(wf, resolved)
	p := Preview{
		Variables:   resolved,
		CreditScore: scores.PrimaryScore(),
	}
	if len(scores.ByNode) > 0 {
		p.Scores = scores.ByNode
	}
	return p
}

package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/finecision/finecision/pkg/domain"
)

// DefaultStepMultiplier bounds a traversal to len(nodes) * DefaultStepMultiplier steps.
const DefaultStepMultiplier = 4

// Scores holds the computed score of every credit-score node of a workflow.
type Scores struct {
	// Primary is the id of the first declared credit-score node, empty when there is none.
	Primary string
	ByNode  map[string]float64
}

// For returns the score a credit-score-check should compare against.
// An empty or unknown nodeID falls back to the primary score.
func (s Scores) For(nodeID string) (float64, bool) {
	if v, ok := s.ByNode[nodeID]; ok && nodeID != "" {
		return v, true
	}
	v, ok := s.ByNode[s.Primary]
	return v, ok && s.Primary != ""
}

// PrimaryScore returns the primary score, or nil when the workflow has no credit-score node.
func (s Scores) PrimaryScore() *float64 {
	v, ok := s.For("")
	if !ok {
		return nil
	}
	return &v
}

// Traverser walks a workflow graph from its trigger node to a decision.
type Traverser struct {
	evaluate       ConditionEvaluator
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	maxSteps       int
	stepMultiplier int
}

// NewTraverser creates a traverser. It honours the evaluator, logger, hooks and
// step limit options; the others are ignored.
func NewTraverser(opts ...EngineOption) *Traverser {
	return newEngine(opts...).newTraverser()
}

// Traverse runs the state machine: the current state is a node, the trigger
// is the initial state, and an action node (or a missing edge) is terminal.
//
// Each node selects the tag of the edge to follow: trigger, credit-score and
// unknown node types follow "default", condition and credit-score-check nodes
// follow "true" or "false". The edge is the first declared connection with the
// current node as source and the selected tag.
//
// Traversal is bounded; a graph that keeps cycling without reaching an action
// ends in review. The only error is a workflow without a trigger node.
func (t *Traverser) Traverse(ctx context.Context, wf *domain.Workflow, variables map[string]any, scores Scores) (*domain.Trace, error) {
	trigger, ok := wf.Trigger()
	if !ok {
		return nil, domain.ErrNoTriggerNode
	}

	trace := &domain.Trace{Path: []string{}}
	limit := t.stepLimit(len(wf.Nodes))

	for current := trigger; current != nil; {
		if trace.Steps >= limit {
			t.logger.Warn("workflow exceeded step limit",
				"workflow_id", wf.ID,
				"node_id", current.ID,
				"limit", limit)
			trace.Result = domain.ExecutionResult{Status: domain.StatusReview, Comment: domain.CommentNotTerminated}
			return trace, nil
		}
		trace.Steps++
		trace.Path = append(trace.Path, current.ID)
		t.emitNode(ctx, t.hooks.OnNodeEnter, domain.EventNodeEnter, wf, current, "")

		var tag domain.ConnectionType
		switch current.Type {
		case domain.NodeTypeAction:
			cfg, _ := current.Config.(domain.ActionConfig)
			t.emitNode(ctx, t.hooks.OnNodeLeave, domain.EventNodeLeave, wf, current, "")
			trace.Result = domain.ExecutionResult{Status: cfg.ActionType.Status(), Comment: cfg.Comment}
			return trace, nil

		case domain.NodeTypeCondition:
			cfg, _ := current.Config.(domain.ConditionConfig)
			value := variables[cfg.Variable]
			tag = domain.BranchOf(t.evaluate(value, cfg.Operator, cfg.Value))

		case domain.NodeTypeCreditScoreCheck:
			cfg, _ := current.Config.(domain.CreditScoreCheckConfig)
			score, ok := scores.For(cfg.CreditScoreNodeID)
			if !ok {
				t.logger.Warn("credit score check without a computed score",
					"workflow_id", wf.ID,
					"node_id", current.ID)
				t.emitNode(ctx, t.hooks.OnNodeLeave, domain.EventNodeLeave, wf, current, "")
				trace.Result = domain.ExecutionResult{Status: domain.StatusReview, Comment: domain.CommentScoreUnavailable}
				return trace, nil
			}
			tag = domain.BranchOf(t.evaluate(score, cfg.Operator, cfg.Threshold))

		default:
			tag = domain.ConnectionDefault
		}

		t.emitNode(ctx, t.hooks.OnNodeLeave, domain.EventNodeLeave, wf, current, tag)

		next, found := wf.Next(current.ID, tag)
		if !found {
			t.logger.Debug("no outgoing connection", "workflow_id", wf.ID, "node_id", current.ID, "branch", tag)
			break
		}
		t.logger.Debug("transition", "workflow_id", wf.ID, "from", current.ID, "to", next.ID, "branch", tag)
		current = next
	}

	trace.Result = domain.ExecutionResult{Status: domain.StatusReview, Comment: domain.CommentNoDecision}
	return trace, nil
}

func (t *Traverser) stepLimit(nodes int) int {
	if t.maxSteps > 0 {
		return t.maxSteps
	}
	multiplier := t.stepMultiplier
	if multiplier <= 0 {
		multiplier = DefaultStepMultiplier
	}
	if nodes < 1 {
		nodes = 1
	}
	return nodes * multiplier
}

func (t *Traverser) emitNode(ctx context.Context, hook func(context.Context, *domain.NodeEvent), typ domain.EventType, wf *domain.Workflow, node *domain.Node, branch domain.ConnectionType) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{
			Timestamp:  time.Now(),
			Type:       typ,
			WorkflowID: wf.ID,
		},
		NodeID:   node.ID,
		NodeType: node.Type,
		Branch:   branch,
	})
}

package observability

import (
	"context"
	"log/slog"

	"github.com/finecision/finecision/pkg/domain"
)

// Combine returns hooks that invoke every non-nil callback of each input, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var enter, leave []func(context.Context, *domain.NodeEvent)
	var decision []func(context.Context, *domain.DecisionEvent)
	for _, h := range hooks {
		if h.OnNodeEnter != nil {
			enter = append(enter, h.OnNodeEnter)
		}
		if h.OnNodeLeave != nil {
			leave = append(leave, h.OnNodeLeave)
		}
		if h.OnDecision != nil {
			decision = append(decision, h.OnDecision)
		}
	}

	var combined domain.LifecycleHooks
	if len(enter) > 0 {
		combined.OnNodeEnter = fanOut(enter)
	}
	if len(leave) > 0 {
		combined.OnNodeLeave = fanOut(leave)
	}
	if len(decision) > 0 {
		combined.OnDecision = fanOut(decision)
	}
	return combined
}

func fanOut[E any](fns []func(context.Context, E)) func(context.Context, E) {
	return func(ctx context.Context, e E) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}

// LoggingHooks logs node transitions at debug level and decisions at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"workflow_id", e.WorkflowID,
				"node_id", e.NodeID,
				"type", e.NodeType)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave",
				"workflow_id", e.WorkflowID,
				"node_id", e.NodeID,
				"branch", e.Branch)
		},
		OnDecision: func(ctx context.Context, e *domain.DecisionEvent) {
			attrs := []any{
				"workflow_id", e.WorkflowID,
				"status", e.Result.Status,
				"steps", e.Steps,
			}
			if e.Result.CreditScore != nil {
				attrs = append(attrs, "credit_score", *e.Result.CreditScore)
			}
			logger.InfoContext(ctx, "decision", attrs...)
		},
	}
}

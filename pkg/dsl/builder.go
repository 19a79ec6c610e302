package dsl

import (
	"errors"
	"fmt"

	"github.com/finecision/finecision/pkg/domain"
)

// Builder manages the workflow construction.
// Nodes and connections keep the order in which they were added.
type Builder struct {
	id          string
	name        string
	nodes       []*NodeBuilder
	index       map[string]*NodeBuilder
	connections []domain.Connection
	errs        []error
}

// New creates a new workflow builder.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		index: make(map[string]*NodeBuilder),
	}
}

// Name sets the display name of the workflow.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Add creates a node of the given type.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string, t domain.NodeType, cfg domain.NodeConfig) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		if nb.node.Type != t {
			b.fail(id, "redeclared as %s, was %s", t, nb.node.Type)
		}
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id, Type: t, Config: cfg},
		builder: b,
	}
	b.nodes = append(b.nodes, nb)
	b.index[id] = nb
	return nb
}

// Trigger adds the entry node.
func (b *Builder) Trigger(id string) *NodeBuilder {
	return b.Add(id, domain.NodeTypeTrigger, domain.TriggerConfig{})
}

// Condition adds a node branching on an applicant variable.
func (b *Builder) Condition(id, variable string, op domain.Operator, value any) *NodeBuilder {
	return b.Add(id, domain.NodeTypeCondition, domain.ConditionConfig{Variable: variable, Operator: op, Value: value})
}

// CreditScore adds the scoring model node. Add scored variables with Rule.
func (b *Builder) CreditScore(id string, maxScore float64) *NodeBuilder {
	return b.Add(id, domain.NodeTypeCreditScore, domain.CreditScoreConfig{MaxScore: maxScore})
}

// Check adds a node branching on the computed credit score.
func (b *Builder) Check(id string, op domain.Operator, threshold float64) *NodeBuilder {
	return b.Add(id, domain.NodeTypeCreditScoreCheck, domain.CreditScoreCheckConfig{Operator: op, Threshold: threshold})
}

// Action adds a terminal node.
func (b *Builder) Action(id string, action domain.ActionType) *NodeBuilder {
	return b.Add(id, domain.NodeTypeAction, domain.ActionConfig{ActionType: action})
}

// Approve adds a terminal approve node.
func (b *Builder) Approve(id string) *NodeBuilder { return b.Action(id, domain.ActionApprove) }

// Reject adds a terminal reject node.
func (b *Builder) Reject(id string) *NodeBuilder { return b.Action(id, domain.ActionReject) }

// Review adds a terminal review node.
func (b *Builder) Review(id string) *NodeBuilder { return b.Action(id, domain.ActionReview) }

func (b *Builder) connect(source, target string, tag domain.ConnectionType) {
	b.connections = append(b.connections, domain.Connection{
		ID:     fmt.Sprintf("%s-%s-%s", source, tag, target),
		Source: source,
		Target: target,
		Type:   tag,
	})
}

func (b *Builder) fail(nodeID, format string, args ...any) {
	b.errs = append(b.errs, &domain.ValidationError{NodeID: nodeID, Reason: fmt.Sprintf(format, args...)})
}

// Build compiles the workflow and validates it.
// The returned workflow is active.
func (b *Builder) Build() (*domain.Workflow, error) {
	wf := &domain.Workflow{
		ID:          b.id,
		Name:        b.name,
		Active:      true,
		Nodes:       make([]domain.Node, 0, len(b.nodes)),
		Connections: append([]domain.Connection(nil), b.connections...),
	}
	for _, nb := range b.nodes {
		wf.Nodes = append(wf.Nodes, nb.Build())
	}

	errs := append([]error(nil), b.errs...)
	if err := domain.Validate(wf); err != nil {
		var agg *domain.AggregateError
		if errors.As(err, &agg) {
			errs = append(errs, agg.Errors...)
		} else {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to build workflow %s: %w", b.id, &domain.AggregateError{Errors: errs})
	}
	return wf, nil
}

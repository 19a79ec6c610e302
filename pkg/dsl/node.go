package dsl

import "github.com/finecision/finecision/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
// Methods that do not apply to the node's type are reported by Builder.Build.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Title sets the display title of the node.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Describe sets the description of the node.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	n.node.Description = description
	return n
}

// At places the node on the editor canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	return n
}

// Variable declares an applicant variable on the trigger node.
func (n *NodeBuilder) Variable(def domain.VariableDefinition) *NodeBuilder {
	if n.node.Type != domain.NodeTypeTrigger {
		n.builder.fail(n.node.ID, "variable %q declared outside the trigger node", def.ID)
		return n
	}
	n.node.Variables = append(n.node.Variables, def)
	return n
}

// Number declares a numeric input variable.
func (n *NodeBuilder) Number(id, name string) *NodeBuilder {
	return n.Variable(domain.VariableDefinition{ID: id, Name: name, Kind: domain.VariableNumber})
}

// Text declares a free text input variable.
func (n *NodeBuilder) Text(id, name string) *NodeBuilder {
	return n.Variable(domain.VariableDefinition{ID: id, Name: name, Kind: domain.VariableText})
}

// Select declares an input variable restricted to options.
func (n *NodeBuilder) Select(id, name string, options ...string) *NodeBuilder {
	return n.Variable(domain.VariableDefinition{ID: id, Name: name, Kind: domain.VariableSelect, Options: options})
}

// Calculated declares a variable derived from earlier ones.
func (n *NodeBuilder) Calculated(id, name, formula string) *NodeBuilder {
	return n.Variable(domain.VariableDefinition{ID: id, Name: name, Kind: domain.VariableCalculated, Formula: formula})
}

// Rule scores a variable on a credit-score node.
// Conditions are evaluated in order; the first match wins.
func (n *NodeBuilder) Rule(variableID string, weight float64, conditions ...domain.ScoreCondition) *NodeBuilder {
	cfg, ok := n.node.Config.(domain.CreditScoreConfig)
	if !ok {
		n.builder.fail(n.node.ID, "score rule for %q on a %s node", variableID, n.node.Type)
		return n
	}
	cfg.Variables = append(cfg.Variables, domain.CreditScoreVariable{
		VariableID: variableID,
		Weight:     weight,
		Conditions: conditions,
	})
	n.node.Config = cfg
	return n
}

// Of selects the credit-score node a check compares against.
func (n *NodeBuilder) Of(scoreNodeID string) *NodeBuilder {
	cfg, ok := n.node.Config.(domain.CreditScoreCheckConfig)
	if !ok {
		n.builder.fail(n.node.ID, "score node reference on a %s node", n.node.Type)
		return n
	}
	cfg.CreditScoreNodeID = scoreNodeID
	n.node.Config = cfg
	return n
}

// Comment sets the decision comment of an action node.
func (n *NodeBuilder) Comment(comment string) *NodeBuilder {
	cfg, ok := n.node.Config.(domain.ActionConfig)
	if !ok {
		n.builder.fail(n.node.ID, "comment on a %s node", n.node.Type)
		return n
	}
	cfg.Comment = comment
	n.node.Config = cfg
	return n
}

// Notify sets the address an action node notifies.
func (n *NodeBuilder) Notify(email string) *NodeBuilder {
	cfg, ok := n.node.Config.(domain.ActionConfig)
	if !ok {
		n.builder.fail(n.node.ID, "notification on a %s node", n.node.Type)
		return n
	}
	cfg.NotifyEmail = email
	n.node.Config = cfg
	return n
}

// Go adds an unconditional connection to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.ConnectionDefault)
	return n
}

// Then adds the connection followed when the node's test holds.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.ConnectionTrue)
	return n
}

// Else adds the connection followed when the node's test fails.
func (n *NodeBuilder) Else(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.ConnectionFalse)
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	node := n.node
	if node.Variables != nil {
		node.Variables = append([]domain.VariableDefinition(nil), node.Variables...)
	}
	return node
}

// When awards score points when the variable compares true against value.
func When(op domain.Operator, value, score float64) domain.ScoreCondition {
	return domain.ScoreCondition{Operator: op, Value1: value, Score: score}
}

// Between awards score points when low <= variable <= high.
func Between(low, high, score float64) domain.ScoreCondition {
	return domain.ScoreCondition{Operator: domain.OpBetween, Value1: low, Value2: &high, Score: score}
}

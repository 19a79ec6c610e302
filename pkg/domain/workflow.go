package domain

import "time"

// Workflow is a user-authored decision graph.
// The engine treats it as a read-only snapshot for the duration of an execution.
type Workflow struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Active      bool         `json:"isActive" yaml:"active"`
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections" yaml:"connections"`
	CreatedAt   time.Time    `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// ConnectionType is the tag a source node emits when it branches.
type ConnectionType string

const (
	ConnectionTrue    ConnectionType = "true"
	ConnectionFalse   ConnectionType = "false"
	ConnectionDefault ConnectionType = "default"
)

// BranchOf returns the connection tag for a boolean outcome.
func BranchOf(ok bool) ConnectionType {
	if ok {
		return ConnectionTrue
	}
	return ConnectionFalse
}

// Connection is a directed, labelled edge between two nodes.
type Connection struct {
	ID     string         `json:"id,omitempty" yaml:"id,omitempty"`
	Source string         `json:"source" yaml:"source"`
	Target string         `json:"target" yaml:"target"`
	Type   ConnectionType `json:"type" yaml:"type"`
}

// Trigger returns the first trigger node in declaration order.
func (w *Workflow) Trigger() (*Node, bool) {
	for i := range w.Nodes {
		if w.Nodes[i].Type == NodeTypeTrigger {
			return &w.Nodes[i], true
		}
	}
	return nil, false
}

// Node returns the first node with the given id.
func (w *Workflow) Node(id string) (*Node, bool) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i], true
		}
	}
	return nil, false
}

// NodesOfType returns the nodes of the given type in declaration order.
func (w *Workflow) NodesOfType(t NodeType) []*Node {
	var nodes []*Node
	for i := range w.Nodes {
		if w.Nodes[i].Type == t {
			nodes = append(nodes, &w.Nodes[i])
		}
	}
	return nodes
}

// Next returns the target of the first connection, in declared order, leaving
// sourceID with the given tag. Declaration order is significant: an ambiguous
// graph always resolves to the same edge.
func (w *Workflow) Next(sourceID string, tag ConnectionType) (*Node, bool) {
	for _, c := range w.Connections {
		if c.Source == sourceID && c.Type == tag {
			return w.Node(c.Target)
		}
	}
	return nil, false
}

// Variables returns the variable definitions declared on the trigger node.
func (w *Workflow) Variables() []VariableDefinition {
	trigger, ok := w.Trigger()
	if !ok {
		return nil
	}
	return trigger.Variables
}

// Clone returns a copy of w that shares no slices with it.
// Node configs are values and are treated as immutable.
func (w *Workflow) Clone() *Workflow {
	c := *w
	c.Nodes = make([]Node, len(w.Nodes))
	for i, n := range w.Nodes {
		if n.Variables != nil {
			n.Variables = append([]VariableDefinition(nil), n.Variables...)
		}
		c.Nodes[i] = n
	}
	c.Connections = append([]Connection(nil), w.Connections...)
	return &c
}

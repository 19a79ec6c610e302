package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventDecision  EventType = "decision"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	WorkflowID string    `json:"workflow_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string         `json:"node_id"`
	NodeType NodeType       `json:"node_type"`
	Branch   ConnectionType `json:"branch,omitempty"`
}

// DecisionEvent is emitted once per execution with the final result.
type DecisionEvent struct {
	EventBase
	Result ExecutionResult `json:"result"`
	Steps  int             `json:"steps"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnDecision  func(context.Context, *DecisionEvent)
}

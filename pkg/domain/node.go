package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// NodeType selects the transition behavior of a node.
type NodeType string

const (
	// NodeTypeTrigger is the unique entry point of a workflow.
	NodeTypeTrigger NodeType = "trigger"
	// NodeTypeCondition branches on an applicant variable.
	NodeTypeCondition NodeType = "condition"
	// NodeTypeCreditScore declares the scoring model. It does not branch.
	NodeTypeCreditScore NodeType = "credit-score"
	// NodeTypeCreditScoreCheck branches on the computed credit score.
	NodeTypeCreditScoreCheck NodeType = "credit-score-check"
	// NodeTypeAction is terminal and yields the decision.
	NodeTypeAction NodeType = "action"
)

// Position is the canvas location of a node. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node represents a point in the workflow graph.
//
// Config holds the type-specific configuration. Its concrete type always
// matches Type (see DecodeConfig); nodes of an unknown type carry an OpaqueConfig.
type Node struct {
	ID          string
	Type        NodeType
	Position    Position
	Title       string
	Description string
	Config      NodeConfig

	// Variables is only meaningful on the trigger node.
	Variables []VariableDefinition
}

// nodeDocument is the persisted shape of a node, shared by the JSON and YAML codecs.
type nodeDocument struct {
	ID       string   `json:"id" yaml:"id"`
	Type     NodeType `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position,omitempty"`
	Data     nodeData `json:"data" yaml:"data"`
}

type nodeData struct {
	Title       string               `json:"title,omitempty" yaml:"title,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Config      any                  `json:"config,omitempty" yaml:"config,omitempty"`
	Variables   []VariableDefinition `json:"variables,omitempty" yaml:"variables,omitempty"`
}

func (n Node) document() nodeDocument {
	var cfg any
	if n.Config != nil {
		cfg = n.Config
		if opaque, ok := n.Config.(OpaqueConfig); ok {
			cfg = opaque.Values
		}
	}
	return nodeDocument{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		Data: nodeData{
			Title:       n.Title,
			Description: n.Description,
			Config:      cfg,
			Variables:   n.Variables,
		},
	}
}

func (n *Node) fromDocument(doc nodeDocument) error {
	cfg, err := DecodeConfig(doc.Type, doc.Data.Config)
	if err != nil {
		return fmt.Errorf("node %s: %w", doc.ID, err)
	}
	*n = Node{
		ID:          doc.ID,
		Type:        doc.Type,
		Position:    doc.Position,
		Title:       doc.Data.Title,
		Description: doc.Data.Description,
		Config:      cfg,
		Variables:   doc.Data.Variables,
	}
	return nil
}

// MarshalJSON encodes the node in its canvas document shape ({id, type, position, data}).
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.document())
}

// UnmarshalJSON decodes a canvas node and types its config.
func (n *Node) UnmarshalJSON(data []byte) error {
	var doc nodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return n.fromDocument(doc)
}

// MarshalYAML encodes the node in its document shape.
func (n Node) MarshalYAML() (any, error) {
	return n.document(), nil
}

// UnmarshalYAML decodes a node authored in YAML.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var doc nodeDocument
	if err := value.Decode(&doc); err != nil {
		return err
	}
	return n.fromDocument(doc)
}

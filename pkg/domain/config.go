package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// NodeConfig is the type-specific configuration of a node.
// The concrete types form a closed set keyed by NodeType.
type NodeConfig interface {
	NodeType() NodeType
}

// Operator is a comparison operator used by condition, check and scoring rules.
type Operator string

const (
	OpLessThan         Operator = "less_than"
	OpLessThanEqual    Operator = "less_than_equal"
	OpGreaterThan      Operator = "greater_than"
	OpGreaterThanEqual Operator = "greater_than_equal"
	OpEqual            Operator = "equal"
	// OpBetween is only valid inside a ScoreCondition.
	OpBetween Operator = "between"
)

// TriggerConfig configures the entry node. It carries no settings today.
type TriggerConfig struct{}

func (TriggerConfig) NodeType() NodeType { return NodeTypeTrigger }

// ConditionConfig compares an applicant variable against a fixed value.
type ConditionConfig struct {
	Variable string   `json:"variable" yaml:"variable"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

func (ConditionConfig) NodeType() NodeType { return NodeTypeCondition }

// CreditScoreConfig declares the weighted scoring model.
type CreditScoreConfig struct {
	MaxScore  float64               `json:"maxScore" yaml:"maxScore"`
	Variables []CreditScoreVariable `json:"variables" yaml:"variables"`
}

func (CreditScoreConfig) NodeType() NodeType { return NodeTypeCreditScore }

// CreditScoreVariable scores a single applicant variable.
// Conditions are scanned in order and the first match wins.
type CreditScoreVariable struct {
	VariableID string           `json:"variableId" yaml:"variableId"`
	Weight     float64          `json:"weight" yaml:"weight"`
	Conditions []ScoreCondition `json:"conditions" yaml:"conditions"`
}

// ScoreCondition awards Score points when the variable value matches.
type ScoreCondition struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value1   float64  `json:"value1" yaml:"value1"`
	// Value2 is the inclusive upper bound of OpBetween.
	Value2 *float64 `json:"value2,omitempty" yaml:"value2,omitempty"`
	Score  float64  `json:"score" yaml:"score"`
}

// CreditScoreCheckConfig compares the computed credit score against a threshold.
type CreditScoreCheckConfig struct {
	// CreditScoreNodeID selects which credit-score node to check.
	// Empty means the workflow's first credit-score node.
	CreditScoreNodeID string   `json:"creditScoreNodeId,omitempty" yaml:"creditScoreNodeId,omitempty"`
	Operator          Operator `json:"operator" yaml:"operator"`
	Threshold         float64  `json:"threshold" yaml:"threshold"`
}

func (CreditScoreCheckConfig) NodeType() NodeType { return NodeTypeCreditScoreCheck }

// ActionType is the decision an action node takes.
type ActionType string

const (
	ActionApprove ActionType = "approve"
	ActionReject  ActionType = "reject"
	ActionReview  ActionType = "review"
)

// Status maps the action to the resulting decision status.
// Unknown action types resolve to StatusReview.
func (a ActionType) Status() Status {
	switch a {
	case ActionApprove, ActionType(StatusApproved):
		return StatusApproved
	case ActionReject, ActionType(StatusRejected):
		return StatusRejected
	default:
		return StatusReview
	}
}

// ActionConfig configures a terminal node.
type ActionConfig struct {
	ActionType  ActionType `json:"actionType" yaml:"actionType"`
	Comment     string     `json:"comment,omitempty" yaml:"comment,omitempty"`
	NotifyEmail string     `json:"notifyEmail,omitempty" yaml:"notifyEmail,omitempty"`
}

func (ActionConfig) NodeType() NodeType { return NodeTypeAction }

// OpaqueConfig keeps the raw settings of node types the engine does not know.
type OpaqueConfig struct {
	Type   NodeType
	Values map[string]any
}

func (c OpaqueConfig) NodeType() NodeType { return c.Type }

// DecodeConfig converts the loosely typed config map of a node into the
// variant matching its type. Numeric strings are accepted where numbers are
// expected ("18" decodes as 18).
func DecodeConfig(t NodeType, raw any) (NodeConfig, error) {
	switch t {
	case NodeTypeTrigger:
		return TriggerConfig{}, nil
	case NodeTypeCondition:
		return decodeAs[ConditionConfig](raw)
	case NodeTypeCreditScore:
		return decodeAs[CreditScoreConfig](raw)
	case NodeTypeCreditScoreCheck:
		return decodeAs[CreditScoreCheckConfig](raw)
	case NodeTypeAction:
		return decodeAs[ActionConfig](raw)
	}

	values, _ := raw.(map[string]any)
	return OpaqueConfig{Type: t, Values: values}, nil
}

func decodeAs[T NodeConfig](raw any) (NodeConfig, error) {
	var cfg T
	if raw == nil {
		return cfg, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", cfg.NodeType(), err)
	}
	return cfg, nil
}

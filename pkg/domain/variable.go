package domain

import (
	"errors"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// VariableKind is the input widget (or derivation) behind a variable.
type VariableKind string

const (
	VariableText       VariableKind = "text"
	VariableNumber     VariableKind = "number"
	VariableSelect     VariableKind = "select"
	VariableCalculated VariableKind = "calculated"
)

// VariableDefinition declares an applicant variable on the trigger node.
type VariableDefinition struct {
	ID      string       `json:"id" yaml:"id"`
	Name    string       `json:"name" yaml:"name"`
	Kind    VariableKind `json:"type" yaml:"type"`
	Options []string     `json:"options,omitempty" yaml:"options,omitempty"`

	// Formula is an expression over previously declared variable ids.
	// Only set for VariableCalculated.
	Formula string `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// IsInput reports whether the variable is supplied by the applicant.
func (v VariableDefinition) IsInput() bool {
	return v.Kind != VariableCalculated
}

// InputVariables returns the definitions an applicant has to fill in.
func InputVariables(defs []VariableDefinition) []VariableDefinition {
	inputs := make([]VariableDefinition, 0, len(defs))
	for _, def := range defs {
		if def.IsInput() {
			inputs = append(inputs, def)
		}
	}
	return inputs
}

// CheckFormula reports whether formula is a non-empty expression that parses.
// It does not evaluate it, so unknown variable references are not detected.
func CheckFormula(formula string) error {
	if strings.TrimSpace(formula) == "" {
		return errors.New("formula is empty")
	}
	if _, diags := hclsyntax.ParseExpression([]byte(formula), "formula", hcl.Pos{Line: 1, Column: 1}); diags.HasErrors() {
		return diags
	}
	return nil
}

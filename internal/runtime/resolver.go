package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/finecision/finecision/internal/logging"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// VariableResolver derives the values of calculated variables from applicant inputs.
type VariableResolver func(defs []domain.VariableDefinition, inputs map[string]any) map[string]any

// errNoValue is returned when a formula evaluates to null, unknown or a non-finite number.
var errNoValue = errors.New("formula produced no value")

// FormulaResolver evaluates calculated-variable formulas written as HCL
// expressions, e.g. "debt / income" or "max(0, income - rent) * 12".
// Formulas reference other variables by id.
type FormulaResolver struct {
	logger    *slog.Logger
	functions map[string]function.Function
}

// NewFormulaResolver creates a resolver. A nil logger discards diagnostics.
func NewFormulaResolver(logger *slog.Logger) *FormulaResolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FormulaResolver{
		logger: logger,
		functions: map[string]function.Function{
			"abs":   stdlib.AbsoluteFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
			"max":   stdlib.MaxFunc,
			"min":   stdlib.MinFunc,
		},
	}
}

// Resolve returns a copy of inputs extended with the value of every calculated
// variable.
//
// Definitions are processed in declaration order and a formula only sees the
// inputs and the calculated variables declared before it. There is no
// dependency sorting: a formula that references a later (or missing) variable
// leaves its own variable unset. Number inputs given as numeric strings are
// converted to numbers on the way.
func (r *FormulaResolver) Resolve(defs []domain.VariableDefinition, inputs map[string]any) map[string]any {
	resolved := make(map[string]any, len(inputs)+len(defs))
	for k, v := range inputs {
		resolved[k] = v
	}

	for _, def := range defs {
		switch def.Kind {
		case domain.VariableNumber:
			if s, ok := resolved[def.ID].(string); ok {
				if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					resolved[def.ID] = f
				}
			}
		case domain.VariableCalculated:
			if err := domain.CheckFormula(def.Formula); err != nil {
				r.logger.Warn("calculated variable has an invalid formula",
					"variable", def.ID,
					"formula", def.Formula,
					"error", err)
				delete(resolved, def.ID)
				continue
			}
			value, err := r.Evaluate(def.Formula, resolved)
			if err != nil {
				r.logger.Debug("calculated variable left unresolved",
					"variable", def.ID,
					"formula", def.Formula,
					"error", err)
				delete(resolved, def.ID)
				continue
			}
			resolved[def.ID] = value
		}
	}
	return resolved
}

// Evaluate computes a single formula against variables.
func (r *FormulaResolver) Evaluate(formula string, variables map[string]any) (result any, err error) {
	if strings.TrimSpace(formula) == "" {
		return nil, errNoValue
	}

	expr, diags := hclsyntax.ParseExpression([]byte(formula), "formula", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("formula %q: %v", formula, p)
		}
	}()

	val, diags := expr.Value(&hcl.EvalContext{
		Variables: toCtyVariables(variables),
		Functions: r.functions,
	})
	if diags.HasErrors() {
		return nil, diags
	}
	return fromCty(val)
}

func toCtyVariables(variables map[string]any) map[string]cty.Value {
	vars := make(map[string]cty.Value, len(variables))
	for k, v := range variables {
		if v == nil {
			continue
		}
		if f, ok := numeric(v, false); ok {
			if !math.IsInf(f, 0) {
				vars[k] = cty.NumberFloatVal(f)
			}
			continue
		}
		ty, err := gocty.ImpliedType(v)
		if err != nil {
			continue
		}
		val, err := gocty.ToCtyValue(v, ty)
		if err != nil {
			continue
		}
		vars[k] = val
	}
	return vars
}

func fromCty(val cty.Value) (any, error) {
	if val.IsNull() || !val.IsWhollyKnown() {
		return nil, errNoValue
	}
	switch val.Type() {
	case cty.Number:
		f, _ := val.AsBigFloat().Float64()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, errNoValue
		}
		return f, nil
	case cty.String:
		return val.AsString(), nil
	case cty.Bool:
		return val.True(), nil
	}
	return nil, fmt.Errorf("unsupported formula result type %s", val.Type().FriendlyName())
}

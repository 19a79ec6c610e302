package runtime

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/finecision/finecision/pkg/domain"
)

// ConditionEvaluator decides whether value <op> threshold holds.
type ConditionEvaluator func(value any, op domain.Operator, threshold any) bool

// Compare is the default ConditionEvaluator.
//
// Ordering operators compare numerically when both sides are numbers or
// numeric strings, and lexically when both sides are non-numeric strings.
// OpEqual is strict: the operands must have the same kind and exactly the same
// value (no epsilon for floats, 18 is not equal to "18").
// Unknown operators, missing values and incomparable operands evaluate to false.
func Compare(value any, op domain.Operator, threshold any) bool {
	if value == nil || threshold == nil {
		return false
	}

	if op == domain.OpEqual {
		return strictEqual(value, threshold)
	}

	c, ok := order(value, threshold)
	if !ok {
		return false
	}

	switch op {
	case domain.OpGreaterThan:
		return c > 0
	case domain.OpLessThan:
		return c < 0
	case domain.OpGreaterThanEqual:
		return c >= 0
	case domain.OpLessThanEqual:
		return c <= 0
	default:
		return false
	}
}

// MatchScore reports whether value falls into the bucket described by c.
// OpBetween is inclusive on both ends and never matches without Value2.
func MatchScore(evaluate ConditionEvaluator, value any, c domain.ScoreCondition) bool {
	if c.Operator != domain.OpBetween {
		return evaluate(value, c.Operator, c.Value1)
	}
	if c.Value2 == nil {
		return false
	}
	return evaluate(value, domain.OpGreaterThanEqual, c.Value1) &&
		evaluate(value, domain.OpLessThanEqual, *c.Value2)
}

func order(a, b any) (int, bool) {
	if x, ok := numeric(a, true); ok {
		y, ok := numeric(b, true)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, x == y
	}

	x, xok := a.(string)
	y, yok := b.(string)
	if !xok || !yok {
		return 0, false
	}
	if _, isNum := numeric(y, true); isNum {
		return 0, false
	}
	return strings.Compare(x, y), true
}

func strictEqual(a, b any) bool {
	if x, ok := numeric(a, false); ok {
		y, ok := numeric(b, false)
		return ok && x == y
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// numeric converts Go numeric kinds to float64. Strings are only parsed when
// parseStrings is set. NaN never converts.
func numeric(v any, parseStrings bool) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		if !parseStrings {
			return 0, false
		}
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

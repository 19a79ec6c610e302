package runtime

import (
	"math"

	"github.com/finecision/finecision/pkg/domain"
)

// ScoreCalculator computes a credit score from a scoring model and applicant variables.
type ScoreCalculator func(cfg domain.CreditScoreConfig, variables map[string]any) float64

// NewScoreCalculator returns the weighted, first-match ScoreCalculator built on evaluate.
//
// For each scored variable, in declared order, the conditions are scanned in
// declared order and the score of the first matching one is multiplied by the
// variable weight. Missing values and unmatched variables contribute 0. The
// total is clamped to [0, MaxScore]. It never fails, so it can run on partially
// filled applications.
func NewScoreCalculator(evaluate ConditionEvaluator) ScoreCalculator {
	if evaluate == nil {
		evaluate = Compare
	}
	return func(cfg domain.CreditScoreConfig, variables map[string]any) float64 {
		total := 0.0
		for _, v := range cfg.Variables {
			total += variableScore(evaluate, v, variables[v.VariableID])
		}
		return clamp(total, cfg.MaxScore)
	}
}

// CalculateCreditScore scores variables with the default condition evaluator.
func CalculateCreditScore(cfg domain.CreditScoreConfig, variables map[string]any) float64 {
	return NewScoreCalculator(Compare)(cfg, variables)
}

func variableScore(evaluate ConditionEvaluator, v domain.CreditScoreVariable, value any) float64 {
	if value == nil {
		return 0
	}
	for _, c := range v.Conditions {
		if MatchScore(evaluate, value, c) {
			return c.Score * v.Weight
		}
	}
	return 0
}

func clamp(score, maxScore float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(score, maxScore))
}

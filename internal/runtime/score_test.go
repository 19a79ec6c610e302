package runtime_test

import (
	"testing"

	"github.com/finecision/finecision/internal/runtime"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func incomeModel(maxScore float64) domain.CreditScoreConfig {
	return domain.CreditScoreConfig{
		MaxScore: maxScore,
		Variables: []domain.CreditScoreVariable{
			{
				VariableID: "income",
				Weight:     2,
				Conditions: []domain.ScoreCondition{
					{Operator: domain.OpGreaterThan, Value1: 50, Score: 10},
					{Operator: domain.OpLessThanEqual, Value1: 50, Score: 5},
				},
			},
		},
	}
}

func TestCalculateCreditScore_WeightedContribution(t *testing.T) {
	cfg := incomeModel(1000)

	assert.Equal(t, 20.0, runtime.CalculateCreditScore(cfg, map[string]any{"income": 60}))
	assert.Equal(t, 10.0, runtime.CalculateCreditScore(cfg, map[string]any{"income": 40}))
	assert.Equal(t, 0.0, runtime.CalculateCreditScore(cfg, map[string]any{}))
	assert.Equal(t, 0.0, runtime.CalculateCreditScore(cfg, map[string]any{"income": nil}))
	assert.Equal(t, 0.0, runtime.CalculateCreditScore(cfg, nil))
}

func TestCalculateCreditScore_Clamped(t *testing.T) {
	assert.Equal(t, 15.0, runtime.CalculateCreditScore(incomeModel(15), map[string]any{"income": 60}))

	negative := domain.CreditScoreConfig{
		MaxScore: 100,
		Variables: []domain.CreditScoreVariable{
			{VariableID: "defaults", Weight: 1, Conditions: []domain.ScoreCondition{
				{Operator: domain.OpGreaterThan, Value1: 0, Score: -40},
			}},
		},
	}
	assert.Equal(t, 0.0, runtime.CalculateCreditScore(negative, map[string]any{"defaults": 2}))
}

func TestCalculateCreditScore_FirstMatchWins(t *testing.T) {
	cfg := domain.CreditScoreConfig{
		MaxScore: 1000,
		Variables: []domain.CreditScoreVariable{
			{VariableID: "debt", Weight: 1, Conditions: []domain.ScoreCondition{
				{Operator: domain.OpLessThan, Value1: 100, Score: 1},
				{Operator: domain.OpLessThan, Value1: 50, Score: 99},
			}},
		},
	}
	assert.Equal(t, 1.0, runtime.CalculateCreditScore(cfg, map[string]any{"debt": 30}))
}

func TestCalculateCreditScore_AccumulatesInOrder(t *testing.T) {
	upper := 30.0
	cfg := domain.CreditScoreConfig{
		MaxScore: 100,
		Variables: []domain.CreditScoreVariable{
			{VariableID: "age", Weight: 1.5, Conditions: []domain.ScoreCondition{
				{Operator: domain.OpBetween, Value1: 18, Value2: &upper, Score: 10},
				{Operator: domain.OpGreaterThan, Value1: 30, Score: 20},
			}},
			{VariableID: "employment", Weight: 1, Conditions: []domain.ScoreCondition{
				{Operator: domain.OpEqual, Value1: 1, Score: 25},
			}},
			{VariableID: "missing", Weight: 10, Conditions: []domain.ScoreCondition{
				{Operator: domain.OpGreaterThan, Value1: 0, Score: 10},
			}},
		},
	}

	got := runtime.CalculateCreditScore(cfg, map[string]any{"age": 45, "employment": 1})
	assert.Equal(t, 55.0, got)
}

func TestNewScoreCalculator_CustomEvaluator(t *testing.T) {
	always := func(any, domain.Operator, any) bool { return true }
	score := runtime.NewScoreCalculator(always)
	assert.Equal(t, 20.0, score(incomeModel(100), map[string]any{"income": "n/a"}))
}

package dsl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finecision/finecision"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/dsl"
)

func loanBuilder() *dsl.Builder {
	b := dsl.New("loan").Name("Personal loan")

	b.Trigger("start").
		Number("age", "Age").
		Number("income", "Income").
		Number("debt", "Debt").
		Calculated("dti", "Debt to income", "debt / income").
		Go("adult")

	b.Condition("adult", "age", domain.OpGreaterThanEqual, 18).
		Then("score").
		Else("reject")

	b.CreditScore("score", 100).
		Rule("dti", 1, dsl.When(domain.OpLessThan, 0.2, 80), dsl.Between(0.2, 0.5, 40)).
		Go("check")

	b.Check("check", domain.OpGreaterThanEqual, 60).
		Title("Score check").
		Of("score").
		Then("approve").
		Else("review")

	b.Approve("approve").Notify("credit@example.com")
	b.Review("review").Comment("Score below 60")
	b.Reject("reject").Comment("Under age")
	return b
}

func TestBuilder_LoanFlow(t *testing.T) {
	wf, err := loanBuilder().Build()
	require.NoError(t, err)

	assert.Equal(t, "loan", wf.ID)
	assert.Equal(t, "Personal loan", wf.Name)
	assert.True(t, wf.Active)

	ids := make([]string, 0, len(wf.Nodes))
	for _, n := range wf.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"start", "adult", "score", "check", "approve", "review", "reject"}, ids, "nodes keep declaration order")

	require.Len(t, wf.Variables(), 4)
	assert.Equal(t, domain.VariableCalculated, wf.Variables()[3].Kind)

	score, ok := wf.Node("score")
	require.True(t, ok)
	cfg := score.Config.(domain.CreditScoreConfig)
	require.Len(t, cfg.Variables, 1)
	require.Len(t, cfg.Variables[0].Conditions, 2)
	require.NotNil(t, cfg.Variables[0].Conditions[1].Value2)
	assert.Equal(t, 0.5, *cfg.Variables[0].Conditions[1].Value2)

	check, _ := wf.Node("check")
	assert.Equal(t, "Score check", check.Title)
	assert.Equal(t, "score", check.Config.(domain.CreditScoreCheckConfig).CreditScoreNodeID)

	approve, _ := wf.Node("approve")
	assert.Equal(t, "credit@example.com", approve.Config.(domain.ActionConfig).NotifyEmail)

	next, ok := wf.Next("adult", domain.ConnectionFalse)
	require.True(t, ok)
	assert.Equal(t, "reject", next.ID)
}

func TestBuilder_Executes(t *testing.T) {
	wf, err := loanBuilder().Build()
	require.NoError(t, err)

	eng := finecision.New()
	tests := []struct {
		name    string
		inputs  map[string]any
		status  domain.Status
		comment string
	}{
		{"low debt", map[string]any{"age": 30, "income": 5000, "debt": 500}, domain.StatusApproved, ""},
		{"moderate debt", map[string]any{"age": 30, "income": 1000, "debt": 300}, domain.StatusReview, "Score below 60"},
		{"minor", map[string]any{"age": 16, "income": 5000, "debt": 0}, domain.StatusRejected, "Under age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Execute(context.Background(), wf, eng.Resolve(wf, tt.inputs))
			require.NoError(t, err)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.comment, result.Comment)
		})
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := dsl.New("wf")
	first := b.Trigger("start")
	again := b.Trigger("start")
	assert.Same(t, first, again)
}

func TestBuilder_Misuse(t *testing.T) {
	b := dsl.New("broken")
	b.Trigger("start").Go("adult")
	b.Condition("adult", "age", domain.OpGreaterThan, 17).
		Number("age", "Age").
		Comment("nope").
		Then("ok").
		Else("missing")
	b.Approve("ok").Rule("age", 1)
	b.Reject("start")

	wf, err := b.Build()
	require.Error(t, err)
	assert.Nil(t, wf)
	assert.ErrorIs(t, err, domain.ErrInvalidWorkflow)

	problems := domain.ValidationErrors(err)
	var nodeIDs []string
	for _, p := range problems {
		var ve *domain.ValidationError
		if errors.As(p, &ve) {
			nodeIDs = append(nodeIDs, ve.NodeID)
		}
	}
	assert.Contains(t, nodeIDs, "adult", "variables and comments only apply to their node types")
	assert.Contains(t, nodeIDs, "ok")
	assert.Contains(t, nodeIDs, "start", "type redeclaration is reported")
	assert.ErrorContains(t, err, `connection target "missing" does not exist`)
}

func TestBuilder_NoTrigger(t *testing.T) {
	b := dsl.New("empty")
	b.Approve("ok")

	_, err := b.Build()
	assert.ErrorContains(t, err, "workflow has no trigger node")
}

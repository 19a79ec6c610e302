package tui_test

import (
	"os"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finecision/finecision/internal/presentation/tui"
	"github.com/finecision/finecision/internal/runtime"
	"github.com/finecision/finecision/pkg/domain"
)

func TestBadge_Ascii(t *testing.T) {
	assert.Equal(t, " APPROVED ", tui.Badge(domain.StatusApproved, termenv.Ascii))
	assert.Equal(t, " REJECTED ", tui.Badge(domain.StatusRejected, termenv.Ascii))
	assert.Equal(t, " REVIEW ", tui.Badge(domain.StatusReview, termenv.Ascii))
}

func TestBadge_Colored(t *testing.T) {
	got := tui.Badge(domain.StatusApproved, termenv.TrueColor)
	assert.Contains(t, got, "APPROVED")
	assert.Contains(t, got, "\x1b[")
}

func TestDecisionReport(t *testing.T) {
	wf := &domain.Workflow{
		ID:   "wf-1",
		Name: "Personal loan",
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeTrigger},
			{ID: "score", Type: domain.NodeTypeCreditScore, Title: "Scoring"},
			{ID: "ok", Type: domain.NodeTypeAction},
		},
	}
	score := 72.5
	trace := &domain.Trace{
		Result: domain.ExecutionResult{Status: domain.StatusApproved, CreditScore: &score, Comment: "Welcome"},
		Path:   []string{"start", "score", "ok"},
		Scores: map[string]float64{"score": 72.5, "other": 10},
		Steps:  3,
	}

	md := tui.DecisionReport(wf, trace)

	assert.True(t, strings.HasPrefix(md, "# Personal loan\n"))
	assert.Contains(t, md, "**Decision:** `approved`")
	assert.Contains(t, md, "**Credit score:** 72.5")
	assert.Contains(t, md, "> Welcome")
	assert.Contains(t, md, "1. start\n2. Scoring (`score`)\n3. ok\n")
	assert.Contains(t, md, "_3 steps_")
	assert.Less(t, strings.Index(md, "| other | 10 |"), strings.Index(md, "| score | 72.5 |"))
}

func TestDecisionReport_NoScore(t *testing.T) {
	wf := &domain.Workflow{ID: "wf-1"}
	md := tui.DecisionReport(wf, &domain.Trace{
		Result: domain.ExecutionResult{Status: domain.StatusReview},
		Path:   []string{"start"},
		Steps:  1,
	})

	assert.True(t, strings.HasPrefix(md, "# wf-1\n"))
	assert.NotContains(t, md, "Credit score")
	assert.NotContains(t, md, "## Scores")
}

func TestPreviewReport(t *testing.T) {
	score := 40.0
	md := tui.PreviewReport(runtime.Preview{
		Variables:   map[string]any{"income": 5000, "debt": 1000},
		CreditScore: &score,
	})

	assert.Contains(t, md, "**Credit score:** 40")
	assert.Less(t, strings.Index(md, "| debt | 1000 |"), strings.Index(md, "| income | 5000 |"))

	md = tui.PreviewReport(runtime.Preview{})
	assert.Contains(t, md, "_No credit-score node._")
	assert.NotContains(t, md, "## Variables")
}

func TestNewRenderer_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, tui.IsTerminal(f))
	assert.False(t, tui.IsTerminal(nil))

	render := tui.NewRenderer(f)
	out, err := render("# Title")
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)
}

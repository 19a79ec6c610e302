package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/finecision/finecision/internal/runtime"
	"github.com/finecision/finecision/pkg/domain"
)

// Badge renders the decision status colored for the given profile.
func Badge(status domain.Status, p termenv.Profile) string {
	color := "#facc15"
	switch status {
	case domain.StatusApproved:
		color = "#22c55e"
	case domain.StatusRejected:
		color = "#ef4444"
	}
	label := " " + strings.ToUpper(string(status)) + " "
	return p.String(label).Bold().Foreground(p.Color("#000000")).Background(p.Color(color)).String()
}

// DecisionReport renders a decision trace as markdown.
func DecisionReport(wf *domain.Workflow, trace *domain.Trace) string {
	var sb strings.Builder

	name := wf.Name
	if name == "" {
		name = wf.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "**Decision:** `%s`\n\n", trace.Result.Status)
	if trace.Result.CreditScore != nil {
		fmt.Fprintf(&sb, "**Credit score:** %s\n\n", formatNumber(*trace.Result.CreditScore))
	}
	if trace.Result.Comment != "" {
		fmt.Fprintf(&sb, "> %s\n\n", trace.Result.Comment)
	}

	sb.WriteString("## Path\n\n")
	for i, id := range trace.Path {
		label := id
		if node, ok := wf.Node(id); ok && node.Title != "" {
			label = fmt.Sprintf("%s (`%s`)", node.Title, id)
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, label)
	}
	fmt.Fprintf(&sb, "\n_%d steps_\n", trace.Steps)

	if len(trace.Scores) > 1 {
		sb.WriteString("\n## Scores\n\n| Node | Score |\n| --- | --- |\n")
		ids := make([]string, 0, len(trace.Scores))
		for id := range trace.Scores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&sb, "| %s | %s |\n", id, formatNumber(trace.Scores[id]))
		}
	}

	return sb.String()
}

// PreviewReport renders resolved variables and the score preview as markdown.
func PreviewReport(preview runtime.Preview) string {
	var sb strings.Builder

	sb.WriteString("# Score preview\n\n")
	if preview.CreditScore != nil {
		fmt.Fprintf(&sb, "**Credit score:** %s\n\n", formatNumber(*preview.CreditScore))
	} else {
		sb.WriteString("_No credit-score node._\n\n")
	}

	if len(preview.Variables) > 0 {
		sb.WriteString("## Variables\n\n| Name | Value |\n| --- | --- |\n")
		names := make([]string, 0, len(preview.Variables))
		for name := range preview.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "| %s | %v |\n", name, preview.Variables[name])
		}
	}

	return sb.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

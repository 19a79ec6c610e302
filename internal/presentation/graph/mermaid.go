package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/finecision/finecision/pkg/domain"
)

// GraphOverlay contains execution data to visualize on the graph.
type GraphOverlay struct {
	// VisitedNodes is the traversal path, trigger first.
	VisitedNodes []string
	// CurrentNode is where the traversal stopped.
	CurrentNode string
	// Status colors the current node by decision when set.
	Status domain.Status
}

// OverlayOf builds the overlay of a recorded trace.
func OverlayOf(trace *domain.Trace) *GraphOverlay {
	if trace == nil {
		return nil
	}
	overlay := &GraphOverlay{
		VisitedNodes: trace.Path,
		Status:       trace.Result.Status,
	}
	if n := len(trace.Path); n > 0 {
		overlay.CurrentNode = trace.Path[n-1]
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart for a workflow.
// It applies semantic styling:
// - Trigger: ((Circle))
// - Condition: {Rhombus}
// - Credit score: [[Subroutine]]
// - Credit score check: {{Hexagon}}
// - Action: ([Stadium])
// - Default: [Rectangle]
// Overlay styles (visited/current) are applied if provided.
func GenerateMermaid(wf *domain.Workflow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range wf.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeTypeTrigger:
			opener, closer = "((", "))"
		case domain.NodeTypeCondition:
			opener, closer = "{", "}"
		case domain.NodeTypeCreditScore:
			opener, closer = "[[", "]]"
		case domain.NodeTypeCreditScoreCheck:
			opener, closer = "{{", "}}"
		case domain.NodeTypeAction:
			opener, closer = "([", "])"
		}

		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(labelOf(node)), closer)
	}

	for _, c := range wf.Connections {
		arrow := "-->"
		switch c.Type {
		case domain.ConnectionTrue:
			arrow = "-- \"yes\" -->"
		case domain.ConnectionFalse:
			arrow = "-- \"no\" -->"
		case domain.ConnectionDefault, "":
		default:
			arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(string(c.Type)))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(c.Source), arrow, sanitizeMermaidID(c.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light fills regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef approved fill:#c8e6c9,stroke:#2e7d32,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef rejected fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !visited[safeID] && safeID != sanitizeMermaidID(overlay.CurrentNode) {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			class := "current"
			switch overlay.Status {
			case domain.StatusApproved:
				class = "approved"
			case domain.StatusRejected:
				class = "rejected"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(overlay.CurrentNode), class)
		}
	}

	return sb.String()
}

// labelOf renders the node title (or id) plus a short summary of its config.
func labelOf(node domain.Node) string {
	label := node.Title
	if label == "" {
		label = node.ID
	}

	var detail string
	switch cfg := node.Config.(type) {
	case domain.ConditionConfig:
		detail = fmt.Sprintf("%s %s %v", cfg.Variable, symbolOf(cfg.Operator), cfg.Value)
	case domain.CreditScoreConfig:
		detail = "max " + strconv.FormatFloat(cfg.MaxScore, 'f', -1, 64)
	case domain.CreditScoreCheckConfig:
		detail = fmt.Sprintf("score %s %s", symbolOf(cfg.Operator), strconv.FormatFloat(cfg.Threshold, 'f', -1, 64))
	case domain.ActionConfig:
		detail = string(cfg.ActionType)
	}
	if detail == "" || detail == label {
		return label
	}
	return label + "<br/>" + detail
}

func symbolOf(op domain.Operator) string {
	switch op {
	case domain.OpLessThan:
		return "<"
	case domain.OpLessThanEqual:
		return "<="
	case domain.OpGreaterThan:
		return ">"
	case domain.OpGreaterThanEqual:
		return ">="
	case domain.OpEqual:
		return "=="
	default:
		return string(op)
	}
}

// escapeLabel keeps labels inside Mermaid's double-quoted strings.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

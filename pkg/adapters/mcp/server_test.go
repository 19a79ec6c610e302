package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finecision/finecision/internal/runtime"
	"github.com/finecision/finecision/pkg/adapters/memory"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/service"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	ctx := context.Background()

	workflows := service.NewWorkflowService(memory.NewWorkflowStore())
	applications := service.NewApplicationService(memory.NewApplicationStore(), workflows, runtime.NewEngine())

	wf, err := workflows.Create(ctx, service.WorkflowInput{
		Name: "Age gate",
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeTrigger, Config: domain.TriggerConfig{}, Variables: []domain.VariableDefinition{
				{ID: "age", Name: "Age", Kind: domain.VariableNumber},
				{ID: "age_months", Name: "Age in months", Kind: domain.VariableCalculated, Formula: "age * 12"},
			}},
			{ID: "adult", Type: domain.NodeTypeCondition, Config: domain.ConditionConfig{Variable: "age", Operator: domain.OpGreaterThanEqual, Value: 18}},
			{ID: "approve", Type: domain.NodeTypeAction, Config: domain.ActionConfig{ActionType: domain.ActionApprove}},
			{ID: "reject", Type: domain.NodeTypeAction, Config: domain.ActionConfig{ActionType: domain.ActionReject, Comment: "Under age"}},
		},
		Connections: []domain.Connection{
			{Source: "start", Target: "adult", Type: domain.ConnectionDefault},
			{Source: "adult", Target: "approve", Type: domain.ConnectionTrue},
			{Source: "adult", Target: "reject", Type: domain.ConnectionFalse},
		},
	})
	require.NoError(t, err)

	return NewServer(workflows, applications), wf.ID
}

func TestServer_ListWorkflows(t *testing.T) {
	s, id := newTestServer(t)

	resp, err := s.handleListWorkflows(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Workflows, 1)
	assert.Equal(t, id, resp.Workflows[0].ID)
	assert.Equal(t, "Age gate", resp.Workflows[0].Name)
	assert.Equal(t, 4, resp.Workflows[0].Nodes)
	assert.Equal(t, []string{"age"}, resp.Workflows[0].Variables)
}

func TestServer_Execute(t *testing.T) {
	s, id := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		vars    interface{}
		status  domain.Status
		comment string
	}{
		{"JSON string adult", `{"age": 30}`, domain.StatusApproved, ""},
		{"object minor", map[string]interface{}{"age": 16}, domain.StatusRejected, "Under age"},
		{"numeric string", `{"age": "18"}`, domain.StatusApproved, ""},
		{"missing variable", nil, domain.StatusRejected, "Under age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{
				"workflow_id": id,
				"variables":   tt.vars,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.comment, resp.Comment)
			assert.Nil(t, resp.CreditScore)
			assert.Equal(t, "start", resp.Path[0])
			assert.Equal(t, 3, resp.Steps)
		})
	}
}

func TestServer_Execute_Errors(t *testing.T) {
	s, id := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.ErrorContains(t, err, "workflow_id is required")

	_, err = s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{"workflow_id": "missing"})
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)

	_, err = s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{"workflow_id": id, "variables": "{not json"})
	assert.ErrorContains(t, err, "invalid variables JSON")

	_, err = s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{"workflow_id": id, "variables": 42.0})
	assert.ErrorContains(t, err, "variables must be a JSON object")
}

func TestServer_Preview(t *testing.T) {
	s, id := newTestServer(t)

	resp, err := s.handlePreview(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"workflow_id": id,
		"variables":   `{"age": 20}`,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.CreditScore)
	assert.InDelta(t, 240.0, resp.Variables["age_months"], 1e-9)
}

func TestServer_Graph(t *testing.T) {
	s, id := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleGraph(ctx, mcp.CallToolRequest{}, map[string]interface{}{"workflow_id": id})
	require.NoError(t, err)
	assert.Contains(t, resp.Mermaid, "graph TD")
	assert.Contains(t, resp.Mermaid, `adult -- "yes" --> approve`)
	assert.NotContains(t, resp.Mermaid, "classDef")

	resp, err = s.handleGraph(ctx, mcp.CallToolRequest{}, map[string]interface{}{"workflow_id": id, "variables": `{"age": 12}`})
	require.NoError(t, err)
	assert.Contains(t, resp.Mermaid, "class adult visited;")
	assert.Contains(t, resp.Mermaid, "class reject rejected;")
}

func TestServer_ReadWorkflowsResource(t *testing.T) {
	s, id := newTestServer(t)

	contents, err := s.readWorkflows(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, WorkflowsURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var summaries []WorkflowSummary
	require.NoError(t, json.Unmarshal([]byte(text.Text), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].ID)
}

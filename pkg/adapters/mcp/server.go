package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/finecision/finecision"
	"github.com/finecision/finecision/internal/logging"
	"github.com/finecision/finecision/internal/presentation/graph"
	"github.com/finecision/finecision/internal/runtime"
	"github.com/finecision/finecision/pkg/domain"
)

// WorkflowsURI is the resource listing the active workflows.
const WorkflowsURI = "finecision://workflows"

// WorkflowCatalog reads active workflows.
type WorkflowCatalog interface {
	List(ctx context.Context) ([]*domain.Workflow, error)
	Get(ctx context.Context, id string) (*domain.Workflow, error)
}

// Decider evaluates applicant data against a stored workflow without persisting anything.
type Decider interface {
	Evaluate(ctx context.Context, workflowID string, inputs map[string]any) (*domain.Trace, error)
	Preview(ctx context.Context, workflowID string, inputs map[string]any) (runtime.Preview, error)
}

// DecisionResponse aligns with the HTTP decision schema.
type DecisionResponse struct {
	Status      domain.Status      `json:"status" jsonschema_description:"approved, rejected or review"`
	CreditScore *float64           `json:"creditScore,omitempty" jsonschema_description:"Primary credit score, present when the workflow scores applicants"`
	Comment     string             `json:"comment,omitempty" jsonschema_description:"Comment attached to the decision"`
	Path        []string           `json:"path" jsonschema_description:"Visited node ids, trigger first"`
	Scores      map[string]float64 `json:"scores,omitempty" jsonschema_description:"Score of every credit-score node"`
	Steps       int                `json:"steps" jsonschema_description:"Number of traversal steps"`
}

// PreviewResponse is the score computed for partially filled applicant data.
type PreviewResponse struct {
	Variables   map[string]any     `json:"variables" jsonschema_description:"Inputs extended with calculated variables"`
	CreditScore *float64           `json:"creditScore,omitempty" jsonschema_description:"Primary credit score"`
	Scores      map[string]float64 `json:"scores,omitempty" jsonschema_description:"Score of every credit-score node"`
}

// WorkflowSummary describes an active workflow.
type WorkflowSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Variables []string  `json:"variables,omitempty" jsonschema_description:"Input variables the trigger expects"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// WorkflowListResponse lists the active workflows.
type WorkflowListResponse struct {
	Workflows []WorkflowSummary `json:"workflows"`
}

// GraphResponse carries a Mermaid rendering of a workflow.
type GraphResponse struct {
	Mermaid string `json:"mermaid" jsonschema_description:"Mermaid flowchart of the workflow"`
}

// Server exposes workflow evaluation as an MCP Server.
type Server struct {
	workflows WorkflowCatalog
	decider   Decider
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(workflows WorkflowCatalog, decider Decider, opts ...Option) *Server {
	s := &Server{
		workflows: workflows,
		decider:   decider,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("finecision-mcp", strings.TrimSpace(finecision.Version),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_workflows
	listTool := mcp.NewTool("list_workflows",
		mcp.WithDescription("List the active credit workflows and the input variables they expect."),
		mcp.WithOutputSchema[WorkflowListResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListWorkflows))

	// TOOL: execute_workflow
	executeTool := mcp.NewTool("execute_workflow",
		mcp.WithDescription("Decide an applicant against a workflow. Nothing is stored."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("ID of an active workflow")),
		mcp.WithString("variables", mcp.Description("JSON object of applicant variables")),
		mcp.WithOutputSchema[DecisionResponse](),
	)
	s.mcpServer.AddTool(executeTool, mcp.NewStructuredToolHandler(s.handleExecute))

	// TOOL: preview_score
	previewTool := mcp.NewTool("preview_score",
		mcp.WithDescription("Compute calculated variables and the credit score for partially filled applicant data."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("ID of an active workflow")),
		mcp.WithString("variables", mcp.Description("JSON object of applicant variables")),
		mcp.WithOutputSchema[PreviewResponse](),
	)
	s.mcpServer.AddTool(previewTool, mcp.NewStructuredToolHandler(s.handlePreview))

	// TOOL: get_workflow_graph
	graphTool := mcp.NewTool("get_workflow_graph",
		mcp.WithDescription("Render a workflow as a Mermaid flowchart. With variables, the decision path is highlighted."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("ID of an active workflow")),
		mcp.WithString("variables", mcp.Description("JSON object of applicant variables (optional)")),
		mcp.WithOutputSchema[GraphResponse](),
	)
	s.mcpServer.AddTool(graphTool, mcp.NewStructuredToolHandler(s.handleGraph))
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (WorkflowListResponse, error) {
	workflows, err := s.workflows.List(ctx)
	if err != nil {
		return WorkflowListResponse{}, fmt.Errorf("failed to list workflows: %w", err)
	}
	return WorkflowListResponse{Workflows: summarize(workflows)}, nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DecisionResponse, error) {
	workflowID, vars, err := parseArgs(args)
	if err != nil {
		return DecisionResponse{}, err
	}

	trace, err := s.decider.Evaluate(ctx, workflowID, vars)
	if err != nil {
		return DecisionResponse{}, err
	}
	s.logger.Debug("workflow executed via MCP", "workflow_id", workflowID, "status", trace.Result.Status)

	return DecisionResponse{
		Status:      trace.Result.Status,
		CreditScore: trace.Result.CreditScore,
		Comment:     trace.Result.Comment,
		Path:        trace.Path,
		Scores:      trace.Scores,
		Steps:       trace.Steps,
	}, nil
}

func (s *Server) handlePreview(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PreviewResponse, error) {
	workflowID, vars, err := parseArgs(args)
	if err != nil {
		return PreviewResponse{}, err
	}

	preview, err := s.decider.Preview(ctx, workflowID, vars)
	if err != nil {
		return PreviewResponse{}, err
	}
	return PreviewResponse(preview), nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResponse, error) {
	workflowID, vars, err := parseArgs(args)
	if err != nil {
		return GraphResponse{}, err
	}

	wf, err := s.workflows.Get(ctx, workflowID)
	if err != nil {
		return GraphResponse{}, err
	}

	var overlay *graph.GraphOverlay
	if vars != nil {
		trace, err := s.decider.Evaluate(ctx, workflowID, vars)
		if err != nil {
			return GraphResponse{}, err
		}
		overlay = graph.OverlayOf(trace)
	}
	return GraphResponse{Mermaid: graph.GenerateMermaid(wf, overlay)}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: finecision://workflows
	s.mcpServer.AddResource(mcp.NewResource(WorkflowsURI, "Active Workflows",
		mcp.WithMIMEType("application/json"),
	), s.readWorkflows)
}

func (s *Server) readWorkflows(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workflows, err := s.workflows.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	jsonBytes, err := json.Marshal(summarize(workflows))
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      WorkflowsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func summarize(workflows []*domain.Workflow) []WorkflowSummary {
	summaries := make([]WorkflowSummary, 0, len(workflows))
	for _, wf := range workflows {
		summary := WorkflowSummary{
			ID:        wf.ID,
			Name:      wf.Name,
			Nodes:     len(wf.Nodes),
			UpdatedAt: wf.UpdatedAt,
		}
		for _, v := range domain.InputVariables(wf.Variables()) {
			summary.Variables = append(summary.Variables, v.ID)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// parseArgs extracts the workflow id and the applicant variables.
// Variables may arrive as a JSON string or as an object. Absent variables are nil.
func parseArgs(args map[string]interface{}) (string, map[string]any, error) {
	workflowID, _ := args["workflow_id"].(string)
	if workflowID == "" {
		return "", nil, errors.New("workflow_id is required")
	}

	switch raw := args["variables"].(type) {
	case nil:
		return workflowID, nil, nil
	case map[string]interface{}:
		return workflowID, raw, nil
	case string:
		if strings.TrimSpace(raw) == "" {
			return workflowID, nil, nil
		}
		var vars map[string]any
		if err := json.Unmarshal([]byte(raw), &vars); err != nil {
			return "", nil, fmt.Errorf("invalid variables JSON: %w", err)
		}
		return workflowID, vars, nil
	default:
		return "", nil, fmt.Errorf("variables must be a JSON object, got %T", raw)
	}
}

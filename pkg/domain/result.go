package domain

// Status is the outcome of a workflow execution.
type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusReview   Status = "review"
)

// Diagnostic comments attached to review results the engine produces on its own.
const (
	CommentNoDecision       = "Workflow ended without decision"
	CommentNotTerminated    = "Workflow did not terminate"
	CommentScoreUnavailable = "Credit score not available"
)

// ExecutionResult is the decision reached for a set of applicant variables.
type ExecutionResult struct {
	Status Status `json:"status"`
	// CreditScore is set iff the workflow declares a credit-score node.
	CreditScore *float64 `json:"creditScore,omitempty"`
	Comment     string   `json:"comment,omitempty"`
}

// Trace records how a decision was reached.
type Trace struct {
	Result ExecutionResult `json:"result"`
	// Path lists the visited node ids, trigger first.
	Path []string `json:"path"`
	// Scores holds the score of every credit-score node, keyed by node id.
	Scores map[string]float64 `json:"scores,omitempty"`
	Steps  int                `json:"steps"`
}

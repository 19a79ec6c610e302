package domain

import "time"

// ApplicationStatus tracks a credit application through processing.
type ApplicationStatus string

// StatusPending marks an application that has not been processed yet.
const StatusPending ApplicationStatus = "pending"

// Application is a credit application submitted against a workflow.
type Application struct {
	ID          string            `json:"id"`
	WorkflowID  string            `json:"workflowId"`
	Variables   map[string]any    `json:"variables"`
	Status      ApplicationStatus `json:"status"`
	CreditScore *float64          `json:"creditScore,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Apply records the decision on the application.
func (a *Application) Apply(result ExecutionResult) {
	a.Status = ApplicationStatus(result.Status)
	a.CreditScore = result.CreditScore
	a.Comment = result.Comment
}

// Clone returns a copy of a with its own variables map.
func (a *Application) Clone() *Application {
	c := *a
	if a.Variables != nil {
		c.Variables = make(map[string]any, len(a.Variables))
		for k, v := range a.Variables {
			c.Variables[k] = v
		}
	}
	if a.CreditScore != nil {
		score := *a.CreditScore
		c.CreditScore = &score
	}
	return &c
}

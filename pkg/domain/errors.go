package domain

import (
	"errors"
	"fmt"
)

// ErrNoTriggerNode is returned when a workflow has no trigger node to start from.
var ErrNoTriggerNode = errors.New("no trigger node found")

// ErrWorkflowNotFound is returned when a workflow id does not resolve to an active workflow.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrApplicationNotFound is returned when an application id cannot be found in the store.
var ErrApplicationNotFound = errors.New("application not found")

// ErrInvalidWorkflow matches every error returned by Validate.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// ErrLockAcquire is returned when a distributed lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire lock")

// StructuralError reports a workflow that cannot be executed at all.
type StructuralError struct {
	WorkflowID string
	Err        error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("workflow %q: %v", e.WorkflowID, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// ValidationError describes one problem in a workflow definition.
type ValidationError struct {
	NodeID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.NodeID == "" {
		return e.Reason
	}
	return fmt.Sprintf("node %q: %s", e.NodeID, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Is makes errors.Is(err, ErrInvalidWorkflow) hold for validation failures.
func (e *AggregateError) Is(target error) bool {
	return target == ErrInvalidWorkflow
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

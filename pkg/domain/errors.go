package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoStartNode is reported when a graph has no start-typed node.
var ErrNoStartNode = errors.New("no start node found in the workflow")

// ErrRunActive is returned when Start is called while a run is in progress.
var ErrRunActive = errors.New("simulation already running")

// ErrNotReset is returned when Start is called on a finished simulator that was not reset.
var ErrNotReset = errors.New("simulation finished; reset before starting again")

// ErrStepLimit is reported when a run exceeds its configured step budget.
var ErrStepLimit = errors.New("step limit exceeded")

// ErrWorkflowNotFound is returned when a workflow name cannot be found in the store.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrInvalidGraph is wrapped by ValidationError.
var ErrInvalidGraph = errors.New("invalid graph")

// ValidationError reports the blocking issues found in a graph.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidGraph, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidGraph
}

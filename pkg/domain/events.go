package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter    EventType = "node_enter"
	EventNodeComplete EventType = "node_complete"
	EventStepAdded    EventType = "step_added"
	EventRunComplete  EventType = "run_complete"
	EventRunError     EventType = "run_error"
	EventRunCancelled EventType = "run_cancelled"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// NodeEvent represents entry into or completion of a node.
// Output is only set on EventNodeComplete.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
	Label    string   `json:"label"`
	Output   string   `json:"output,omitempty"`
}

// StepEvent carries a copy of a freshly recorded step.
type StepEvent struct {
	EventBase
	Step SimulationStep `json:"step"`
}

// RunEvent represents the end of a run: completed, failed or cancelled.
type RunEvent struct {
	EventBase
	FinalOutput string `json:"final_output,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SimulatorHooks is the simulator's only outward notification channel.
// Hooks are invoked from the run goroutine, one at a time, in event order.
// OnCancel is the last event of a cancelled run; it fires before Stop returns,
// with a context that is no longer cancelled.
type SimulatorHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnNodeComplete func(context.Context, *NodeEvent)
	OnStepAdded    func(context.Context, *StepEvent)
	OnComplete     func(context.Context, *RunEvent)
	OnError        func(context.Context, *RunEvent)
	OnCancel       func(context.Context, *RunEvent)
}

// MergeHooks fans every event out to each of the given hook sets, in argument order.
func MergeHooks(hooks ...SimulatorHooks) SimulatorHooks {
	return SimulatorHooks{
		OnNodeEnter: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeComplete: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeComplete != nil {
					h.OnNodeComplete(ctx, e)
				}
			}
		},
		OnStepAdded: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStepAdded != nil {
					h.OnStepAdded(ctx, e)
				}
			}
		},
		OnComplete: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnComplete != nil {
					h.OnComplete(ctx, e)
				}
			}
		},
		OnError: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnError != nil {
					h.OnError(ctx, e)
				}
			}
		},
		OnCancel: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnCancel != nil {
					h.OnCancel(ctx, e)
				}
			}
		},
	}
}

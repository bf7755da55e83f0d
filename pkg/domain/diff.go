package domain

// StateDiff represents the changes between two simulation states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// RunID is always present to identify the run the diff applies to.
	RunID string `json:"run_id"`

	// Reset is set when the diff describes a whole new run (or a reset) and
	// clients should drop what they have before applying it.
	Reset bool `json:"reset,omitempty"`

	Status        *SimulationStatus `json:"status,omitempty"`
	CurrentNodeID *string           `json:"current_node_id,omitempty"`

	// Steps contains steps appended or updated since the old state, keyed by index.
	Steps map[int]SimulationStep `json:"steps,omitempty"`

	// NodeStatuses contains only changed entries.
	NodeStatuses map[string]NodeStatus `json:"node_statuses,omitempty"`

	FinalOutput *string `json:"final_output,omitempty"`
	Error       *string `json:"error,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil or belongs to another run, the diff represents the entire newState.
// It returns nil when nothing changed.
func Diff(oldState, newState *SimulationState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{RunID: newState.RunID}

	if oldState == nil || oldState.RunID != newState.RunID {
		diff.Reset = true
		oldState = &SimulationState{}
	}

	if diff.Reset || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}
	if diff.Reset || oldState.CurrentNodeID != newState.CurrentNodeID {
		diff.CurrentNodeID = &newState.CurrentNodeID
	}

	diff.Steps = diffSteps(oldState.Steps, newState.Steps)
	diff.NodeStatuses = diffStatuses(oldState.NodeStatuses, newState.NodeStatuses)

	if !equalStringPtr(oldState.FinalOutput, newState.FinalOutput) {
		diff.FinalOutput = newState.FinalOutput
	}
	if !equalStringPtr(oldState.Error, newState.Error) {
		diff.Error = newState.Error
	}

	if !diff.Reset && diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffSteps assumes the append-only step log: only the tail and in-place status updates change.
func diffSteps(old, new []SimulationStep) map[int]SimulationStep {
	delta := make(map[int]SimulationStep)
	for i, step := range new {
		if i >= len(old) || old[i] != step {
			delta[i] = step
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffStatuses(old, new map[string]NodeStatus) map[string]NodeStatus {
	delta := make(map[string]NodeStatus)
	for id, st := range new {
		if prev, ok := old[id]; !ok || prev != st {
			delta[id] = st
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Status == nil &&
		d.CurrentNodeID == nil &&
		len(d.Steps) == 0 &&
		len(d.NodeStatuses) == 0 &&
		d.FinalOutput == nil &&
		d.Error == nil
}

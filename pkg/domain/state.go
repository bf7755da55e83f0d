package domain

import "time"

// SimulationStatus is the overall status of a simulation run.
type SimulationStatus string

const (
	StatusIdle      SimulationStatus = "idle"
	StatusRunning   SimulationStatus = "running"
	StatusPaused    SimulationStatus = "paused"
	StatusCompleted SimulationStatus = "completed"
	StatusError     SimulationStatus = "error"
)

// Terminal reports whether no further progress can happen without a reset.
func (s SimulationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Active reports whether a run is in progress (possibly paused).
func (s SimulationStatus) Active() bool {
	return s == StatusRunning || s == StatusPaused
}

// NodeStatus is the per-node progress within a run.
type NodeStatus string

const (
	NodePending   NodeStatus = "pending"
	NodeRunning   NodeStatus = "running"
	NodeCompleted NodeStatus = "completed"
	NodeError     NodeStatus = "error"
)

// SimulationStep is one recorded execution of a node within a run.
type SimulationStep struct {
	NodeID    string     `json:"node_id"`
	NodeType  NodeType   `json:"node_type"`
	Label     string     `json:"label"`
	Status    NodeStatus `json:"status"`
	Output    string     `json:"output,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// SimulationState is a snapshot of a run.
type SimulationState struct {
	RunID         string                `json:"run_id,omitempty"`
	Status        SimulationStatus      `json:"status"`
	CurrentNodeID string                `json:"current_node_id,omitempty"`
	Steps         []SimulationStep      `json:"steps"`
	NodeStatuses  map[string]NodeStatus `json:"node_statuses"`
	FinalOutput   *string               `json:"final_output,omitempty"`
	Error         *string               `json:"error,omitempty"`
}

// NewSimulationState returns an idle state with every node of g pending.
func NewSimulationState(g Graph) *SimulationState {
	statuses := make(map[string]NodeStatus, len(g.Nodes))
	for _, n := range g.Nodes {
		statuses[n.ID] = NodePending
	}
	return &SimulationState{
		Status:       StatusIdle,
		Steps:        []SimulationStep{},
		NodeStatuses: statuses,
	}
}

// Clone returns a deep copy of the state.
func (s *SimulationState) Clone() *SimulationState {
	if s == nil {
		return nil
	}
	out := *s
	out.Steps = make([]SimulationStep, len(s.Steps))
	copy(out.Steps, s.Steps)
	out.NodeStatuses = make(map[string]NodeStatus, len(s.NodeStatuses))
	for k, v := range s.NodeStatuses {
		out.NodeStatuses[k] = v
	}
	if s.FinalOutput != nil {
		v := *s.FinalOutput
		out.FinalOutput = &v
	}
	if s.Error != nil {
		v := *s.Error
		out.Error = &v
	}
	return &out
}

// NodeStatus returns the tracked status of id, or NodePending if unknown.
func (s *SimulationState) NodeStatus(id string) NodeStatus {
	if s == nil {
		return NodePending
	}
	if st, ok := s.NodeStatuses[id]; ok {
		return st
	}
	return NodePending
}

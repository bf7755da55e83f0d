package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDiff(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	running := SimulationStep{NodeID: "a", NodeType: NodeTypeAgent, Label: "A", Status: NodeRunning, Timestamp: ts}
	done := running
	done.Status = NodeCompleted
	done.Output = "out"

	tests := []struct {
		name  string
		old   *SimulationState
		new   *SimulationState
		check func(t *testing.T, d *StateDiff)
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &SimulationState{
				RunID:        "run-1",
				Status:       StatusRunning,
				Steps:        []SimulationStep{running},
				NodeStatuses: map[string]NodeStatus{"a": NodeRunning},
			},
			check: func(t *testing.T, d *StateDiff) {
				require.NotNil(t, d)
				assert.True(t, d.Reset)
				assert.Equal(t, StatusRunning, *d.Status)
				assert.Equal(t, map[int]SimulationStep{0: running}, d.Steps)
				assert.Equal(t, map[string]NodeStatus{"a": NodeRunning}, d.NodeStatuses)
			},
		},
		{
			name: "No Changes",
			old: &SimulationState{
				RunID: "run-1", Status: StatusRunning, CurrentNodeID: "a",
				Steps: []SimulationStep{running}, NodeStatuses: map[string]NodeStatus{"a": NodeRunning},
			},
			new: &SimulationState{
				RunID: "run-1", Status: StatusRunning, CurrentNodeID: "a",
				Steps: []SimulationStep{running}, NodeStatuses: map[string]NodeStatus{"a": NodeRunning},
			},
			check: func(t *testing.T, d *StateDiff) {
				assert.Nil(t, d)
			},
		},
		{
			name: "Step Completed In Place",
			old: &SimulationState{
				RunID: "run-1", Status: StatusRunning, CurrentNodeID: "a",
				Steps: []SimulationStep{running}, NodeStatuses: map[string]NodeStatus{"a": NodeRunning, "b": NodePending},
			},
			new: &SimulationState{
				RunID: "run-1", Status: StatusRunning, CurrentNodeID: "a",
				Steps: []SimulationStep{done}, NodeStatuses: map[string]NodeStatus{"a": NodeCompleted, "b": NodePending},
			},
			check: func(t *testing.T, d *StateDiff) {
				require.NotNil(t, d)
				assert.False(t, d.Reset)
				assert.Nil(t, d.Status)
				assert.Nil(t, d.CurrentNodeID)
				assert.Equal(t, map[int]SimulationStep{0: done}, d.Steps)
				assert.Equal(t, map[string]NodeStatus{"a": NodeCompleted}, d.NodeStatuses)
			},
		},
		{
			name: "Run Completed",
			old:  &SimulationState{RunID: "run-1", Status: StatusRunning},
			new:  &SimulationState{RunID: "run-1", Status: StatusCompleted, FinalOutput: strPtr("bye")},
			check: func(t *testing.T, d *StateDiff) {
				require.NotNil(t, d)
				assert.Equal(t, StatusCompleted, *d.Status)
				assert.Equal(t, "bye", *d.FinalOutput)
			},
		},
		{
			name: "New Run Is A Reset",
			old:  &SimulationState{RunID: "run-1", Status: StatusCompleted},
			new:  &SimulationState{RunID: "run-2", Status: StatusCompleted},
			check: func(t *testing.T, d *StateDiff) {
				require.NotNil(t, d)
				assert.True(t, d.Reset)
				assert.Equal(t, "run-2", d.RunID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Diff(tt.old, tt.new))
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Fields Omitted", func(t *testing.T) {
		old := &SimulationState{RunID: "r", Status: StatusRunning, CurrentNodeID: "a"}
		next := &SimulationState{RunID: "r", Status: StatusPaused, CurrentNodeID: "a"}
		diff := Diff(old, next)
		require.NotNil(t, diff)

		bytes, err := json.Marshal(diff)
		require.NoError(t, err)
		assert.Contains(t, string(bytes), `"status":"paused"`)
		assert.False(t, strings.Contains(string(bytes), `"steps"`), "steps should be omitted, got %s", bytes)
		assert.False(t, strings.Contains(string(bytes), `"reset"`), "reset should be omitted, got %s", bytes)
	})
}

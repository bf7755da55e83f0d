package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "s", Type: NodeTypeStart, Data: map[string]string{"icon": "play"}},
			{ID: "a", Type: NodeTypeAgent, Label: "Helper"},
			{ID: "b", Type: NodeTypeTool},
		},
		Edges: []Edge{
			{ID: "e1", Source: "s", Target: "b"},
			{ID: "e2", Source: "s", Target: "ghost"},
			{ID: "e3", Source: "s", Target: "a"},
		},
	}
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g := sampleGraph()
	c := g.Clone()

	c.Nodes[0].Data["icon"] = "changed"
	c.Nodes[1].Label = "Changed"
	c.Edges[0].Target = "a"

	assert.Equal(t, "play", g.Nodes[0].Data["icon"])
	assert.Equal(t, "Helper", g.Nodes[1].Label)
	assert.Equal(t, "b", g.Edges[0].Target)
}

func TestGraph_SuccessorsKeepOrderAndDropDangling(t *testing.T) {
	next := sampleGraph().Successors("s")
	require.Len(t, next, 2)
	assert.Equal(t, "b", next[0].ID)
	assert.Equal(t, "a", next[1].ID)
}

func TestNode_DisplayLabel(t *testing.T) {
	assert.Equal(t, "Helper", Node{Type: NodeTypeAgent, Label: "Helper"}.DisplayLabel())
	assert.Equal(t, "tool", Node{Type: NodeTypeTool}.DisplayLabel())
	assert.Equal(t, "Unknown", Node{}.DisplayLabel())
}

func TestValidate(t *testing.T) {
	t.Run("Tolerant graph reports dangling edge", func(t *testing.T) {
		issues := Validate(sampleGraph())
		require.Len(t, issues, 1)
		assert.Equal(t, "e2", issues[0].EdgeID)
		assert.Equal(t, SeverityError, issues[0].Severity)
	})

	t.Run("Missing and duplicate start", func(t *testing.T) {
		err := CheckGraph(Graph{Nodes: []Node{{ID: "a", Type: NodeTypeAgent}}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidGraph)

		issues := Validate(Graph{Nodes: []Node{
			{ID: "s1", Type: NodeTypeStart},
			{ID: "s2", Type: NodeTypeStart},
		}})
		require.Len(t, issues, 1)
		assert.Equal(t, "s2", issues[0].NodeID)
	})

	t.Run("Unknown type is only a warning", func(t *testing.T) {
		g := Graph{Nodes: []Node{{ID: "s", Type: NodeTypeStart}, {ID: "x", Type: "webhook"}}}
		assert.NoError(t, CheckGraph(g))
		issues := Validate(g)
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
	})
}

func TestSimulationState_CloneAndNodeStatus(t *testing.T) {
	s := NewSimulationState(sampleGraph())
	s.FinalOutput = strPtr("x")
	c := s.Clone()
	c.NodeStatuses["a"] = NodeCompleted
	*c.FinalOutput = "y"
	c.Steps = append(c.Steps, SimulationStep{NodeID: "a"})

	assert.Equal(t, NodePending, s.NodeStatus("a"))
	assert.Equal(t, "x", *s.FinalOutput)
	assert.Empty(t, s.Steps)
	assert.Equal(t, NodePending, s.NodeStatus("nope"))
}

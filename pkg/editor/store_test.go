package editor_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// sequentialIDs makes generated ids predictable.
func sequentialIDs() editor.IDGenerator {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newStore(opts ...editor.Option) *editor.Store {
	opts = append([]editor.Option{editor.WithIDGenerator(sequentialIDs())}, opts...)
	return editor.New(domain.DefaultGraph(), opts...)
}

func TestStore_AddNodeAndConnect(t *testing.T) {
	s := newStore()

	agent := s.AddNode(domain.NodeTypeAgent, "", domain.Position{X: 10, Y: 20})
	assert.Equal(t, "agent-1", agent.ID)
	assert.Equal(t, "agent", agent.Label, "label defaults to the type name")

	edge := s.Connect("start-1", agent.ID, "")
	assert.Equal(t, "start-1", edge.Source)
	assert.Equal(t, agent.ID, edge.Target)

	g := s.Graph()
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)

	idx, n := s.HistoryPosition()
	assert.Equal(t, 2, idx)
	assert.Equal(t, 3, n)
}

func TestStore_ConnectDoesNotValidateIDs(t *testing.T) {
	s := newStore()
	s.Connect("nope", "ghost", domain.HandleTrue)

	g := s.Graph()
	require.Len(t, g.Edges, 1)
	assert.Equal(t, domain.HandleTrue, g.Edges[0].SourceHandle)
}

func TestStore_UndoRedoAtBoundsAreNoOps(t *testing.T) {
	s := newStore()
	assert.False(t, s.Undo())
	assert.False(t, s.Redo())
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())

	s.AddNode(domain.NodeTypeEnd, "Done", domain.Position{})
	assert.True(t, s.CanUndo())
	assert.False(t, s.Redo())

	require.True(t, s.Undo())
	assert.Equal(t, domain.DefaultGraph(), s.Graph())
	assert.False(t, s.Undo())
	assert.True(t, s.CanRedo())
}

func TestStore_EditAfterUndoDiscardsRedo(t *testing.T) {
	s := newStore()
	s.AddNode(domain.NodeTypeAgent, "A", domain.Position{})
	s.AddNode(domain.NodeTypeTool, "B", domain.Position{})

	require.True(t, s.Undo())
	require.True(t, s.CanRedo())

	s.AddNode(domain.NodeTypeNote, "C", domain.Position{})
	assert.False(t, s.CanRedo())
	assert.False(t, s.Redo())

	labels := []string{}
	for _, n := range s.Graph().Nodes {
		labels = append(labels, n.Label)
	}
	assert.Equal(t, []string{"Start", "A", "C"}, labels)
}

func TestStore_SnapshotsAreNotAliased(t *testing.T) {
	s := newStore()
	a := s.AddNode(domain.NodeTypeAgent, "A", domain.Position{})

	// Mutating a returned graph never reaches the store.
	g := s.Graph()
	g.Nodes[0].Label = "Hacked"
	assert.Equal(t, "Start", s.Graph().Nodes[0].Label)

	// A later live edit never rewrites a past entry.
	require.True(t, s.Relabel(a.ID, "Renamed"))
	require.True(t, s.Undo())
	assert.Equal(t, "A", s.Graph().Nodes[1].Label)
	require.True(t, s.Redo())
	assert.Equal(t, "Renamed", s.Graph().Nodes[1].Label)
}

func TestStore_RemoveNodeDropsIncidentEdges(t *testing.T) {
	s := newStore()
	a := s.AddNode(domain.NodeTypeAgent, "A", domain.Position{})
	e := s.AddNode(domain.NodeTypeEnd, "E", domain.Position{})
	s.Connect("start-1", a.ID, "")
	s.Connect(a.ID, e.ID, "")

	require.True(t, s.RemoveNode(a.ID))
	g := s.Graph()
	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges)

	assert.False(t, s.RemoveNode("missing"))
	assert.False(t, s.Disconnect("missing"))
	assert.False(t, s.MoveNode("missing", domain.Position{}))

	require.True(t, s.Undo())
	assert.Len(t, s.Graph().Edges, 2)
}

func TestStore_DisconnectAndMove(t *testing.T) {
	s := newStore()
	edge := s.Connect("start-1", "x", "")
	require.True(t, s.Disconnect(edge.ID))
	assert.Empty(t, s.Graph().Edges)

	require.True(t, s.MoveNode("start-1", domain.Position{X: 1, Y: 2}))
	assert.Equal(t, domain.Position{X: 1, Y: 2}, s.Graph().Nodes[0].Position)
}

func TestStore_LoadResetsHistory(t *testing.T) {
	s := newStore()
	s.AddNode(domain.NodeTypeAgent, "A", domain.Position{})

	s.Load(domain.Graph{Nodes: []domain.Node{{ID: "s", Type: domain.NodeTypeStart}}})
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Equal(t, "s", s.Graph().Nodes[0].ID)
}

func TestStore_HistoryIsBounded(t *testing.T) {
	s := newStore(editor.WithHistoryLimit(3))
	for i := 0; i < 5; i++ {
		s.AddNode(domain.NodeTypeNote, fmt.Sprintf("n%d", i), domain.Position{})
	}

	idx, n := s.HistoryPosition()
	assert.Equal(t, 2, idx)
	assert.Equal(t, 3, n)

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.False(t, s.Undo())
	// Oldest surviving entry holds the first four nodes (start + n0..n2).
	assert.Len(t, s.Graph().Nodes, 4)
}

// TestStore_UndoRedoRoundTrip checks that undoing then redoing N edits reproduces the graph.
func TestStore_UndoRedoRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := newStore()
		edits := rapid.IntRange(1, 20).Draw(t, "edits")
		for i := 0; i < edits; i++ {
			g := s.Graph()
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				typ := rapid.SampledFrom(domain.NodeTypes).Draw(t, "type")
				s.AddNode(typ, "", domain.Position{X: float64(i)})
			case 1:
				src := rapid.SampledFrom(g.Nodes).Draw(t, "src")
				dst := rapid.SampledFrom(g.Nodes).Draw(t, "dst")
				s.Connect(src.ID, dst.ID, "")
			case 2:
				n := rapid.SampledFrom(g.Nodes).Draw(t, "node")
				s.Relabel(n.ID, fmt.Sprintf("label-%d", i))
			}
		}

		before := s.Graph()
		n := rapid.IntRange(0, edits).Draw(t, "n")
		for i := 0; i < n; i++ {
			if !s.Undo() {
				t.Fatalf("undo %d of %d failed", i+1, n)
			}
		}
		for i := 0; i < n; i++ {
			if !s.Redo() {
				t.Fatalf("redo %d of %d failed", i+1, n)
			}
		}
		if !assert.ObjectsAreEqual(before, s.Graph()) {
			t.Fatalf("graph changed after %d undo/redo pairs", n)
		}
	})
}

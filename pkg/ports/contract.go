package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractWorkflow(name string) *domain.Workflow {
	return &domain.Workflow{
		Name: name,
		Graph: domain.Graph{
			Nodes: []domain.Node{
				{ID: "start-1", Type: domain.NodeTypeStart, Label: "Start", Position: domain.Position{X: 100, Y: 200}},
				{ID: "agent-1", Type: domain.NodeTypeAgent, Label: "Helper", Data: map[string]string{"model": "gpt-4"}},
				{ID: "cond-1", Type: domain.NodeTypeCondition, Label: "Check"},
			},
			Edges: []domain.Edge{
				{ID: "e1", Source: "start-1", Target: "agent-1"},
				{ID: "e2", Source: "agent-1", Target: "cond-1"},
				{ID: "e3", Source: "cond-1", Target: "agent-1", SourceHandle: domain.HandleFalse},
			},
		},
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// RunWorkflowStoreContract runs a suite of tests to verify that a WorkflowStore implementation
// adheres to the defined interface contract.
func RunWorkflowStoreContract(t *testing.T, store WorkflowStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		wf := contractWorkflow(name)
		require.NoError(t, store.Save(ctx, wf), "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, wf.Name, loaded.Name)
		assert.Equal(t, wf.Graph, loaded.Graph)
		assert.True(t, wf.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		wf := contractWorkflow(name)
		wf.Graph.Nodes = wf.Graph.Nodes[:1]
		wf.Graph.Edges = []domain.Edge{}
		require.NoError(t, store.Save(ctx, wf))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Len(t, loaded.Graph.Nodes, 1)
		assert.Empty(t, loaded.Graph.Edges)
	})

	t.Run("Loaded Copy Is Independent", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractWorkflow(name)))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		loaded.Graph.Nodes[0].Label = "Mutated"
		loaded.Graph.Nodes[1].Data["model"] = "mutated"

		again, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "Start", again.Graph.Nodes[0].Label)
		assert.Equal(t, "gpt-4", again.Graph.Nodes[1].Data["model"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractWorkflow(name)))
		require.NoError(t, store.Delete(ctx, name), "Delete should not return error")

		_, err := store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound, "Load after Delete should return ErrWorkflowNotFound")

		assert.NoError(t, store.Delete(ctx, name), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		n1 := name + "-1"
		n2 := name + "-2"
		require.NoError(t, store.Save(ctx, contractWorkflow(n1)))
		require.NoError(t, store.Save(ctx, contractWorkflow(n2)))

		defer func() {
			_ = store.Delete(ctx, n1)
			_ = store.Delete(ctx, n2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, n1)
		assert.Contains(t, names, n2)
	})
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

type harness struct {
	t      *testing.T
	srv    *Server
	nextID int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mgr := session.NewManager(memory.NewStore())
	t.Cleanup(mgr.Close)
	h := &harness{t: t, srv: NewServer(mgr)}
	h.rpc("initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"clientInfo":      map[string]any{"name": "test", "version": "1"},
		"capabilities":    map[string]any{},
	})
	return h
}

func (h *harness) rpc(method string, params any) json.RawMessage {
	h.t.Helper()
	h.nextID++
	msg, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": h.nextID, "method": method, "params": params})
	require.NoError(h.t, err)

	out := h.srv.MCPServer().HandleMessage(context.Background(), msg)
	raw, err := json.Marshal(out)
	require.NoError(h.t, err)

	var resp rpcResponse
	require.NoError(h.t, json.Unmarshal(raw, &resp))
	require.Nil(h.t, resp.Error, "rpc error: %s", raw)
	return resp.Result
}

func (h *harness) call(name string, args map[string]any) (string, bool) {
	h.t.Helper()
	raw := h.rpc("tools/call", map[string]any{"name": name, "arguments": args})
	var res toolResult
	require.NoError(h.t, json.Unmarshal(raw, &res))
	require.NotEmpty(h.t, res.Content)
	return res.Content[0].Text, res.IsError
}

func (h *harness) graph(workspace string) domain.Graph {
	h.t.Helper()
	text, isErr := h.call("get_graph", map[string]any{"workspace": workspace})
	require.False(h.t, isErr, text)
	var g domain.Graph
	require.NoError(h.t, json.Unmarshal([]byte(text), &g))
	return g
}

func TestTools_Listed(t *testing.T) {
	h := newHarness(t)
	raw := h.rpc("tools/list", map[string]any{})
	var res struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{"add_node", "connect", "remove_node", "undo", "redo", "get_graph", "get_mermaid", "generate_code", "save", "simulate"} {
		assert.Contains(t, names, want)
	}
}

func TestTools_EditGraph(t *testing.T) {
	h := newHarness(t)

	text, isErr := h.call("add_node", map[string]any{"type": "agent", "label": "Helper", "x": 5, "y": 6})
	require.False(t, isErr, text)
	var node domain.Node
	require.NoError(t, json.Unmarshal([]byte(text), &node))
	assert.Equal(t, domain.NodeTypeAgent, node.Type)
	assert.Equal(t, domain.Position{X: 5, Y: 6}, node.Position)

	text, isErr = h.call("connect", map[string]any{"source": "start-1", "target": node.ID})
	require.False(t, isErr, text)

	g := h.graph("")
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)

	text, _ = h.call("undo", map[string]any{})
	var hist historyResult
	require.NoError(t, json.Unmarshal([]byte(text), &hist))
	assert.True(t, hist.Changed)
	assert.Empty(t, hist.Graph.Edges)

	text, _ = h.call("redo", map[string]any{})
	require.NoError(t, json.Unmarshal([]byte(text), &hist))
	assert.Len(t, hist.Graph.Edges, 1)

	_, isErr = h.call("remove_node", map[string]any{"node_id": node.ID})
	assert.False(t, isErr)
	_, isErr = h.call("remove_node", map[string]any{"node_id": node.ID})
	assert.True(t, isErr)

	assert.Len(t, h.graph(DefaultWorkspace).Nodes, 1)
}

func TestTools_WorkspacesAreIsolated(t *testing.T) {
	h := newHarness(t)
	_, isErr := h.call("add_node", map[string]any{"workspace": "other", "type": "tool"})
	require.False(t, isErr)

	assert.Len(t, h.graph("other").Nodes, 2)
	assert.Len(t, h.graph("").Nodes, 1)
}

func TestTools_Simulate(t *testing.T) {
	h := newHarness(t)
	text, _ := h.call("add_node", map[string]any{"type": "tool", "label": "Search"})
	var node domain.Node
	require.NoError(t, json.Unmarshal([]byte(text), &node))
	h.call("connect", map[string]any{"source": "start-1", "target": node.ID})

	raw := h.rpc("tools/call", map[string]any{"name": "simulate", "arguments": map[string]any{"input": "find"}})
	assert.Contains(t, string(raw), `completed`)
	assert.Contains(t, string(raw), "Search")
	assert.Contains(t, string(raw), "executed successfully")
}

func TestTools_SimulateWithoutStart(t *testing.T) {
	h := newHarness(t)
	h.call("remove_node", map[string]any{"node_id": "start-1"})

	raw := h.rpc("tools/call", map[string]any{"name": "simulate", "arguments": map[string]any{"input": "x"}})
	assert.Contains(t, string(raw), domain.ErrNoStartNode.Error())
}

func TestTools_MermaidAndCode(t *testing.T) {
	h := newHarness(t)

	text, isErr := h.call("get_mermaid", map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, "graph TD")

	text, isErr = h.call("generate_code", map[string]any{"language": "typescript"})
	require.False(t, isErr)
	assert.Contains(t, text, "export async function main")

	_, isErr = h.call("generate_code", map[string]any{"language": "cobol"})
	assert.True(t, isErr)
}

func TestTools_Save(t *testing.T) {
	h := newHarness(t)
	text, isErr := h.call("save", map[string]any{"workspace": "keep"})
	require.False(t, isErr)
	assert.Contains(t, text, "keep")
}

func TestResources(t *testing.T) {
	h := newHarness(t)
	h.call("add_node", map[string]any{"workspace": "demo", "type": "note", "label": "hi"})

	for uri, nodes := range map[string]int{
		graphURI:                 1,
		workspacePrefix + "demo": 2,
	} {
		raw := h.rpc("resources/read", map[string]any{"uri": uri})
		var res struct {
			Contents []struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"contents"`
		}
		require.NoError(t, json.Unmarshal(raw, &res))
		require.Len(t, res.Contents, 1)
		assert.Equal(t, uri, res.Contents[0].URI)
		var g domain.Graph
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &g))
		assert.Len(t, g.Nodes, nodes, fmt.Sprint(g.Nodes))
	}
}

package domain

import "time"

// Graph is a value snapshot of the workflow nodes and edges.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Clone returns a deep copy of the graph. Mutating the copy never affects g.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, g.Edges)
	return out
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// StartNodes returns every start-typed node in declaration order.
func (g Graph) StartNodes() []Node {
	var starts []Node
	for _, n := range g.Nodes {
		if n.Type == NodeTypeStart {
			starts = append(starts, n)
		}
	}
	return starts
}

// Successors resolves the outgoing edges of id to nodes, in edge-declaration order.
// Edges pointing at unknown nodes are dropped.
func (g Graph) Successors(id string) []Node {
	var next []Node
	for _, e := range g.Edges {
		if e.Source != id {
			continue
		}
		if n, ok := g.Node(e.Target); ok {
			next = append(next, n)
		}
	}
	return next
}

// DefaultGraph is the graph a new canvas starts with: a single start node.
func DefaultGraph() Graph {
	return Graph{
		Nodes: []Node{{
			ID:       "start-1",
			Type:     NodeTypeStart,
			Label:    "Start",
			Position: Position{X: 100, Y: 200},
		}},
		Edges: []Edge{},
	}
}

// Workflow is a named graph, the unit of persistence.
type Workflow struct {
	Name      string    `json:"name" yaml:"name"`
	Graph     Graph     `json:"graph" yaml:"graph"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	out := *w
	out.Graph = w.Graph.Clone()
	return &out
}

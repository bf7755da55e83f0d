package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Layout spacing applied to nodes without an explicit position.
const (
	ColumnWidth = 250
	RowHeight   = 150
)

// Builder manages the graph construction.
type Builder struct {
	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID: id,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build compiles the builder into a graph.
// Nodes keep their declaration order; nodes without a position are laid out by depth
// from the start nodes. Every node needs a type and every link must target a declared node.
func (b *Builder) Build() (domain.Graph, error) {
	g := domain.Graph{
		Nodes: make([]domain.Node, 0, len(b.order)),
		Edges: []domain.Edge{},
	}

	var errs []error
	for _, id := range b.order {
		nb := b.nodes[id]
		if nb.node.Type == "" {
			errs = append(errs, fmt.Errorf("node %q has no type", id))
		}
		g.Nodes = append(g.Nodes, nb.node.Clone())

		for _, l := range nb.links {
			if _, ok := b.nodes[l.target]; !ok {
				errs = append(errs, fmt.Errorf("node %q links to undeclared node %q", id, l.target))
				continue
			}
			g.Edges = append(g.Edges, domain.Edge{
				ID:           edgeID(id, l),
				Source:       id,
				Target:       l.target,
				SourceHandle: l.handle,
			})
		}
	}
	if len(errs) > 0 {
		return domain.Graph{}, fmt.Errorf("failed to build graph: %w", errors.Join(errs...))
	}

	layout(g, b)
	return g, nil
}

func edgeID(source string, l link) string {
	if l.handle != "" {
		return fmt.Sprintf("e-%s-%s-%s", source, l.handle, l.target)
	}
	return fmt.Sprintf("e-%s-%s", source, l.target)
}

// layout places unpositioned nodes in columns by breadth-first depth.
// Nodes unreachable from any start node go to a trailing column.
func layout(g domain.Graph, b *Builder) {
	depth := make(map[string]int, len(g.Nodes))
	var queue []string
	for _, n := range g.StartNodes() {
		depth[n.ID] = 0
		queue = append(queue, n.ID)
	}
	maxDepth := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(id) {
			if _, seen := depth[next.ID]; seen {
				continue
			}
			depth[next.ID] = depth[id] + 1
			maxDepth = max(maxDepth, depth[next.ID])
			queue = append(queue, next.ID)
		}
	}

	rows := make(map[int]int)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		d, ok := depth[n.ID]
		if !ok {
			d = maxDepth + 1
		}
		row := rows[d]
		rows[d]++
		if b.nodes[n.ID].positioned {
			continue
		}
		n.Position = domain.Position{
			X: float64(d * ColumnWidth),
			Y: float64(row * RowHeight),
		}
	}
}

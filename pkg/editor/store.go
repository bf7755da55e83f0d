package editor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/google/uuid"
)

// IDGenerator produces a fresh identifier for a new node of the given type.
type IDGenerator func(prefix string) string

// NewID is the default IDGenerator: "<prefix>-<uuid>".
func NewID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// Store owns the authoritative live graph and its undo/redo history.
// Every structural mutation pushes an independent snapshot. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	graph   domain.Graph
	history *History

	limit  int
	newID  IDGenerator
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithHistoryLimit bounds the number of snapshots kept for undo.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		s.limit = n
	}
}

// WithIDGenerator replaces the node and edge id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store whose live graph and first history entry are initial.
func New(initial domain.Graph, opts ...Option) *Store {
	s := &Store{
		newID:  NewID,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.graph = initial.Clone()
	s.history = NewHistory(s.graph, s.limit)
	return s
}

// commit records the live graph as a new history entry. Caller holds s.mu.
func (s *Store) commit(action string) {
	s.history.Push(s.graph)
	idx, n := s.history.Position()
	s.logger.Debug("graph edited", "action", action, "history_index", idx, "history_len", n)
}

// AddNode appends a node with a fresh id. An empty label defaults to the type name.
func (s *Store) AddNode(nodeType domain.NodeType, label string, pos domain.Position) domain.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if label == "" {
		label = string(nodeType)
	}
	node := domain.Node{
		ID:       s.newID(string(nodeType)),
		Type:     nodeType,
		Label:    label,
		Position: pos,
	}
	s.graph.Nodes = append(s.graph.Nodes, node)
	s.commit("add_node")
	return node.Clone()
}

// Connect appends an edge. Ids are not checked: the editor surface supplies them from its own node set.
func (s *Store) Connect(sourceID, targetID, sourceHandle string) domain.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge := domain.Edge{
		ID:           s.newID("edge"),
		Source:       sourceID,
		Target:       targetID,
		SourceHandle: sourceHandle,
	}
	s.graph.Edges = append(s.graph.Edges, edge)
	s.commit("connect")
	return edge
}

// Disconnect removes the edge with the given id.
func (s *Store) Disconnect(edgeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.Edge, 0, len(s.graph.Edges))
	for _, e := range s.graph.Edges {
		if e.ID != edgeID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(s.graph.Edges) {
		return false
	}
	s.graph.Edges = kept
	s.commit("disconnect")
	return true
}

// RemoveNode deletes a node and every edge touching it.
func (s *Store) RemoveNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	nodes := make([]domain.Node, 0, len(s.graph.Nodes)-1)
	nodes = append(nodes, s.graph.Nodes[:idx]...)
	nodes = append(nodes, s.graph.Nodes[idx+1:]...)

	edges := make([]domain.Edge, 0, len(s.graph.Edges))
	for _, e := range s.graph.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	s.graph.Nodes = nodes
	s.graph.Edges = edges
	s.commit("remove_node")
	return true
}

// MoveNode changes the canvas position of a node.
func (s *Store) MoveNode(id string, pos domain.Position) bool {
	return s.updateNode(id, "move_node", func(n *domain.Node) {
		n.Position = pos
	})
}

// Relabel changes the label of a node.
func (s *Store) Relabel(id, label string) bool {
	return s.updateNode(id, "relabel", func(n *domain.Node) {
		n.Label = label
	})
}

func (s *Store) updateNode(id, action string, fn func(*domain.Node)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	fn(&s.graph.Nodes[idx])
	s.commit(action)
	return true
}

func (s *Store) indexOf(id string) int {
	for i, n := range s.graph.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Undo restores the previous snapshot. It reports false, and does nothing, at the first entry.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.history.Undo()
	if ok {
		s.graph = g
	}
	return ok
}

// Redo restores the next snapshot. It reports false, and does nothing, at the last entry.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.history.Redo()
	if ok {
		s.graph = g
	}
	return ok
}

// Load replaces the live graph and restarts the history from it.
func (s *Store) Load(g domain.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = g.Clone()
	s.history.Reset(s.graph)
}

// Graph returns a copy of the live graph.
func (s *Store) Graph() domain.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// HistoryPosition returns the history index and length.
func (s *Store) HistoryPosition() (index, length int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Position()
}

package dto

import (
	"fmt"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Document is the loose on-disk shape of a workflow.
// It accepts both the native layout ({name, graph: {nodes, edges}}) and
// canvas exports that put nodes and edges at the top level with labels under data.
type Document struct {
	Name      string    `json:"name" mapstructure:"name"`
	UpdatedAt any       `json:"updated_at" mapstructure:"updated_at"`
	Graph     *GraphDoc `json:"graph" mapstructure:"graph"`
	Nodes     []NodeDoc `json:"nodes" mapstructure:"nodes"`
	Edges     []EdgeDoc `json:"edges" mapstructure:"edges"`
}

type GraphDoc struct {
	Nodes []NodeDoc `json:"nodes" mapstructure:"nodes"`
	Edges []EdgeDoc `json:"edges" mapstructure:"edges"`
}

type NodeDoc struct {
	ID       string      `json:"id" mapstructure:"id"`
	Type     string      `json:"type" mapstructure:"type"`
	Label    string      `json:"label" mapstructure:"label"`
	Position PositionDoc `json:"position" mapstructure:"position"`
	Data     NodeData    `json:"data" mapstructure:"data"`
}

type PositionDoc struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// NodeData holds the label of canvas exports; every other key is presentation metadata.
type NodeData struct {
	Label string         `json:"label" mapstructure:"label"`
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

type EdgeDoc struct {
	ID                string `json:"id" mapstructure:"id"`
	Source            string `json:"source" mapstructure:"source"`
	Target            string `json:"target" mapstructure:"target"`
	SourceHandle      string `json:"source_handle" mapstructure:"source_handle"`
	SourceHandleCamel string `json:"sourceHandle" mapstructure:"sourceHandle"`
}

// DecodeWorkflow converts a generic document (as produced by yaml.v3 or encoding/json)
// into a workflow. fallbackName is used when the document carries no name.
func DecodeWorkflow(raw map[string]any, fallbackName string) (*domain.Workflow, error) {
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode workflow document: %w", err)
	}

	nodes, edges := doc.Nodes, doc.Edges
	if doc.Graph != nil {
		nodes, edges = doc.Graph.Nodes, doc.Graph.Edges
	}

	wf := &domain.Workflow{
		Name: doc.Name,
		Graph: domain.Graph{
			Nodes: make([]domain.Node, 0, len(nodes)),
			Edges: make([]domain.Edge, 0, len(edges)),
		},
	}
	if wf.Name == "" {
		wf.Name = fallbackName
	}
	if wf.UpdatedAt, err = parseTime(doc.UpdatedAt); err != nil {
		return nil, err
	}

	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node #%d has no id", i)
		}
		wf.Graph.Nodes = append(wf.Graph.Nodes, n.toDomain())
	}
	for i, e := range edges {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("edge-%d", i)
		}
		handle := e.SourceHandle
		if handle == "" {
			handle = e.SourceHandleCamel
		}
		wf.Graph.Edges = append(wf.Graph.Edges, domain.Edge{
			ID:           id,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: handle,
		})
	}
	return wf, nil
}

func (n NodeDoc) toDomain() domain.Node {
	out := domain.Node{
		ID:       n.ID,
		Type:     domain.NodeType(n.Type),
		Label:    n.Label,
		Position: domain.Position{X: n.Position.X, Y: n.Position.Y},
	}
	if out.Label == "" {
		out.Label = n.Data.Label
	}
	if len(n.Data.Extra) > 0 {
		out.Data = make(map[string]string, len(n.Data.Extra))
		for k, v := range n.Data.Extra {
			out.Data[k] = fmt.Sprint(v)
		}
	}
	return out
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid updated_at %q: %w", t, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("invalid updated_at type %T", v)
	}
}

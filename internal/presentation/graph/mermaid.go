package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	Statuses    map[string]domain.NodeStatus
	CurrentNode string
}

// OverlayFromState builds an overlay from a simulation snapshot.
func OverlayFromState(st domain.SimulationState) *GraphOverlay {
	return &GraphOverlay{Statuses: st.NodeStatuses, CurrentNode: st.CurrentNodeID}
}

// GenerateMermaid produces a Mermaid flowchart of g.
// It applies semantic styling:
// - Start/End: ((Circle))
// - Tool: [[Subroutine]]
// - Condition: {Rhombus}
// - Guardrail: {{Hexagon}}
// - Note: >Flag]
// - Default: [Rectangle]
// Edges leaving a condition carry their branch handle as a label.
// Overlay styles are applied for completed, running and errored nodes if provided.
func GenerateMermaid(g domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	ids := mermaidIDs(g.Nodes)

	for _, node := range g.Nodes {
		opener, closer := shape(node.Type)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids.of(node.ID), opener, escapeMermaidLabel(node.DisplayLabel()), closer)
	}

	for _, e := range g.Edges {
		arrow := "-->"
		if e.SourceHandle != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeMermaidLabel(e.SourceHandle))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", ids.of(e.Source), arrow, ids.of(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps labels readable on both themes.
		sb.WriteString("    classDef completed fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef running fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		// Graph order keeps the output deterministic.
		for _, node := range g.Nodes {
			class := ""
			switch overlay.Statuses[node.ID] {
			case domain.NodeCompleted:
				class = "completed"
			case domain.NodeRunning:
				class = "running"
			case domain.NodeError:
				class = "failed"
			}
			if class != "" {
				fmt.Fprintf(&sb, "    class %s %s;\n", ids.of(node.ID), class)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", ids.of(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func shape(t domain.NodeType) (string, string) {
	switch t {
	case domain.NodeTypeStart, domain.NodeTypeEnd:
		return "((", "))"
	case domain.NodeTypeTool:
		return "[[", "]]"
	case domain.NodeTypeCondition:
		return "{", "}"
	case domain.NodeTypeGuardrail:
		return "{{", "}}"
	case domain.NodeTypeNote:
		return ">", "]"
	default:
		return "[", "]"
	}
}

// idMap assigns each node a distinct Mermaid identifier.
type idMap map[string]string

// mermaidIDs sanitizes node ids in graph order. An id whose sanitized form is
// taken, or is a Mermaid keyword, gets the first free numeric suffix.
func mermaidIDs(nodes []domain.Node) idMap {
	ids := make(idMap, len(nodes))
	used := map[string]bool{"end": true, "graph": true, "subgraph": true}
	for _, n := range nodes {
		if _, ok := ids[n.ID]; ok {
			continue
		}
		base := sanitizeMermaidID(n.ID)
		id := base
		for i := 1; used[strings.ToLower(id)]; i++ {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		used[strings.ToLower(id)] = true
		ids[n.ID] = id
	}
	return ids
}

// of falls back to the plain sanitized form for ids that are not nodes.
func (m idMap) of(id string) string {
	if v, ok := m[id]; ok {
		return v
	}
	return sanitizeMermaidID(id)
}

var mermaidLabelEscaper = strings.NewReplacer(
	"#", "#35;",
	"\"", "#quot;",
	"[", "#91;",
	"]", "#93;",
	"<", "#lt;",
	">", "#gt;",
	"\r\n", "<br/>",
	"\n", "<br/>",
	"\r", "<br/>",
)

// escapeMermaidLabel encodes text for a quoted Mermaid label using entity codes.
func escapeMermaidLabel(s string) string {
	return mermaidLabelEscaper.Replace(s)
}

// sanitizeMermaidID maps every character outside [A-Za-z0-9_] to an underscore.
func sanitizeMermaidID(id string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	if s == "" {
		return "_"
	}
	return s
}

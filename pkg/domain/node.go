package domain

// NodeType identifies the behaviour of a workflow step.
type NodeType string

// Known node types. Unknown types are tolerated and simulated generically.
const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeAgent     NodeType = "agent"
	NodeTypeTool      NodeType = "tool"
	NodeTypeCondition NodeType = "condition"
	NodeTypeGuardrail NodeType = "guardrail"
	NodeTypeNote      NodeType = "note"
)

// NodeTypes lists the known node types in palette order.
var NodeTypes = []NodeType{
	NodeTypeStart,
	NodeTypeAgent,
	NodeTypeTool,
	NodeTypeCondition,
	NodeTypeGuardrail,
	NodeTypeNote,
	NodeTypeEnd,
}

// Known reports whether t is one of the built-in node types.
func (t NodeType) Known() bool {
	for _, k := range NodeTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Condition branch handles used on edges leaving a condition node.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// Position is the canvas location of a node. It has no effect on simulation.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a typed vertex in the workflow graph.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Type     NodeType `json:"type" yaml:"type"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Position Position `json:"position" yaml:"position"`

	// Data holds presentation-only attributes (icon, colour, description...).
	Data map[string]string `json:"data,omitempty" yaml:"data,omitempty"`
}

// DisplayLabel returns the label, falling back to the type name and then "Unknown".
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	if n.Type != "" {
		return string(n.Type)
	}
	return "Unknown"
}

// Clone returns a copy of the node that shares no memory with n.
func (n Node) Clone() Node {
	out := n
	if n.Data != nil {
		out.Data = make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			out.Data[k] = v
		}
	}
	return out
}

// Edge is a directed connection between two nodes.
// SourceHandle tags condition branches and is otherwise ignored by the simulator.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"source_handle,omitempty" yaml:"source_handle,omitempty"`
}

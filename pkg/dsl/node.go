package dsl

import "github.com/aretw0/flowcanvas/pkg/domain"

type link struct {
	target string
	handle string
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node       domain.Node
	links      []link
	positioned bool
	builder    *Builder
}

// As sets the node type and label.
func (n *NodeBuilder) As(t domain.NodeType, label string) *NodeBuilder {
	n.node.Type = t
	n.node.Label = label
	return n
}

// Start marks the node as an entry point of the workflow.
func (n *NodeBuilder) Start(label string) *NodeBuilder {
	return n.As(domain.NodeTypeStart, label)
}

// Agent marks the node as an agent step.
func (n *NodeBuilder) Agent(label string) *NodeBuilder {
	return n.As(domain.NodeTypeAgent, label)
}

// Tool marks the node as a tool call.
func (n *NodeBuilder) Tool(label string) *NodeBuilder {
	return n.As(domain.NodeTypeTool, label)
}

// Condition marks the node as a condition. Use Branch to label its outgoing edges.
func (n *NodeBuilder) Condition(label string) *NodeBuilder {
	return n.As(domain.NodeTypeCondition, label)
}

// Guardrail marks the node as an input check.
func (n *NodeBuilder) Guardrail(label string) *NodeBuilder {
	return n.As(domain.NodeTypeGuardrail, label)
}

// Note marks the node as an annotation.
func (n *NodeBuilder) Note(text string) *NodeBuilder {
	return n.As(domain.NodeTypeNote, text)
}

// End marks the node as a terminal step.
func (n *NodeBuilder) End(label string) *NodeBuilder {
	return n.As(domain.NodeTypeEnd, label)
}

// At pins the canvas position of the node, opting it out of automatic layout.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	n.positioned = true
	return n
}

// Data adds a presentation attribute to the node.
func (n *NodeBuilder) Data(key, value string) *NodeBuilder {
	if n.node.Data == nil {
		n.node.Data = make(map[string]string)
	}
	n.node.Data[key] = value
	return n
}

// Go adds an edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.links = append(n.links, link{target: target})
	return n
}

// Branch adds an edge to the target node tagged with a source handle (true/false on conditions).
func (n *NodeBuilder) Branch(handle, target string) *NodeBuilder {
	n.links = append(n.links, link{target: target, handle: handle})
	return n
}

// Then declares the next node and links it from this one.
func (n *NodeBuilder) Then(id string) *NodeBuilder {
	n.Go(id)
	return n.builder.Add(id)
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}

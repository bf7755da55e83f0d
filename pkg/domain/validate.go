package domain

import "fmt"

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single structural finding about a graph.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	EdgeID   string   `json:"edge_id,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.NodeID != "":
		return fmt.Sprintf("node %q: %s", i.NodeID, i.Message)
	case i.EdgeID != "":
		return fmt.Sprintf("edge %q: %s", i.EdgeID, i.Message)
	}
	return i.Message
}

// Validate inspects g and reports structural problems.
// The simulator tolerates everything but a missing start node; Validate is stricter.
func Validate(g Graph) []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			issues = append(issues, Issue{Severity: SeverityError, NodeID: n.ID, Message: "duplicate node id"})
		}
		seen[n.ID] = true
		if !n.Type.Known() {
			issues = append(issues, Issue{Severity: SeverityWarning, NodeID: n.ID, Message: fmt.Sprintf("unknown node type %q", n.Type)})
		}
	}

	switch starts := g.StartNodes(); len(starts) {
	case 0:
		issues = append(issues, Issue{Severity: SeverityError, Message: ErrNoStartNode.Error()})
	case 1:
	default:
		for _, s := range starts[1:] {
			issues = append(issues, Issue{Severity: SeverityError, NodeID: s.ID, Message: "additional start node"})
		}
	}

	for _, e := range g.Edges {
		if !seen[e.Source] {
			issues = append(issues, Issue{Severity: SeverityError, EdgeID: e.ID, Message: fmt.Sprintf("source %q does not exist", e.Source)})
		}
		if !seen[e.Target] {
			issues = append(issues, Issue{Severity: SeverityError, EdgeID: e.ID, Message: fmt.Sprintf("target %q does not exist", e.Target)})
		}
	}

	return issues
}

// CheckGraph returns a *ValidationError holding the error-severity issues of g, or nil.
func CheckGraph(g Graph) error {
	var blocking []Issue
	for _, is := range Validate(g) {
		if is.Severity == SeverityError {
			blocking = append(blocking, is)
		}
	}
	if len(blocking) == 0 {
		return nil
	}
	return &ValidationError{Issues: blocking}
}

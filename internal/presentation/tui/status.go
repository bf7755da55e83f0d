package tui

import (
	"io"
	"os"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Styler colours runner output for a terminal.
type Styler struct {
	out *termenv.Output
}

// NewStyler detects the colour profile of w. Writers that are not terminals get plain text.
func NewStyler(w io.Writer) *Styler {
	return &Styler{out: termenv.NewOutput(w)}
}

// Status colours text according to a run status.
func (s *Styler) Status(status domain.SimulationStatus, text string) string {
	p := s.out.ColorProfile()
	str := s.out.String(text)
	switch status {
	case domain.StatusCompleted:
		return str.Foreground(p.Color("#22c55e")).Bold().String()
	case domain.StatusError:
		return str.Foreground(p.Color("#ef4444")).Bold().String()
	case domain.StatusPaused:
		return str.Foreground(p.Color("#eab308")).String()
	case domain.StatusRunning:
		return str.Foreground(p.Color("#3b82f6")).String()
	default:
		return str.Faint().String()
	}
}

// Node colours a node header by its type.
func (s *Styler) Node(t domain.NodeType, text string) string {
	p := s.out.ColorProfile()
	colors := map[domain.NodeType]string{
		domain.NodeTypeStart:     "#22c55e",
		domain.NodeTypeAgent:     "#818cf8",
		domain.NodeTypeTool:      "#f59e0b",
		domain.NodeTypeCondition: "#06b6d4",
		domain.NodeTypeGuardrail: "#ef4444",
		domain.NodeTypeNote:      "#a3a3a3",
		domain.NodeTypeEnd:       "#22c55e",
	}
	c, ok := colors[t]
	if !ok {
		return text
	}
	return s.out.String(text).Foreground(p.Color(c)).String()
}

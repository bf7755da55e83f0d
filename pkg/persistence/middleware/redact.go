package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// Mask replaces redacted node data values.
const Mask = "***"

// DefaultSecretPatterns matches the node data keys commonly used for credentials.
var DefaultSecretPatterns = []string{`(?i)(api_?key|secret|token|password)`}

type redactMiddleware struct {
	next     ports.WorkflowStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks node data values whose key matches
// one of the patterns before the workflow is persisted. Loads are passed through.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.WorkflowStore) ports.WorkflowStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, wf *domain.Workflow) error {
	// Clone so the live workspace graph keeps its values.
	cloned := wf.Clone()
	for i := range cloned.Graph.Nodes {
		m.mask(cloned.Graph.Nodes[i].Data)
	}
	return m.next.Save(ctx, cloned)
}

func (m *redactMiddleware) mask(data map[string]string) {
	for k := range data {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				data[k] = Mask
				break
			}
		}
	}
}

func (m *redactMiddleware) Load(ctx context.Context, name string) (*domain.Workflow, error) {
	return m.next.Load(ctx, name)
}

func (m *redactMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

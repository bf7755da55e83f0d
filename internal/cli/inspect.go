package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/flowcanvas/internal/presentation/codegen"
	"github.com/aretw0/flowcanvas/internal/presentation/graph"
	"github.com/aretw0/flowcanvas/internal/presentation/tui"
	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Graph writes the Mermaid flowchart of a workflow.
func Graph(ctx context.Context, opts Options, target string, out io.Writer) error {
	b, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	wf, err := resolveWorkflow(ctx, b.Store, target)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, graph.GenerateMermaid(wf.Graph, nil))
	return err
}

// Codegen writes the program skeleton of a workflow in lang.
// With pretty set the code is syntax highlighted for the terminal.
func Codegen(ctx context.Context, opts Options, target, lang string, pretty bool, out io.Writer) error {
	l, err := codegen.ParseLanguage(lang)
	if err != nil {
		return err
	}
	b, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	wf, err := resolveWorkflow(ctx, b.Store, target)
	if err != nil {
		return err
	}
	code, err := codegen.Generate(l, wf.Graph, wf.Name)
	if err != nil {
		return err
	}
	if pretty {
		if code, err = tui.RenderCode(l.Fence(), code); err != nil {
			return err
		}
	}
	_, err = io.WriteString(out, code)
	return err
}

// Validate reports the structural issues of a workflow.
// It fails with a *domain.ValidationError when any issue is an error.
func Validate(ctx context.Context, opts Options, target string, out io.Writer) error {
	b, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	wf, err := resolveWorkflow(ctx, b.Store, target)
	if err != nil {
		return err
	}
	for _, is := range domain.Validate(wf.Graph) {
		fmt.Fprintf(out, "%s: %s\n", is.Severity, is)
	}
	return domain.CheckGraph(wf.Graph)
}

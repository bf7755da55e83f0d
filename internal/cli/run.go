package cli

import (
	"context"
	"io"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/presentation/tui"
	"github.com/aretw0/flowcanvas/pkg/domain"
)

// RunOptions contains the configuration of the run command.
type RunOptions struct {
	Options
	Target   string
	Input    string
	Headless bool
	Pretty   bool
}

// Run simulates a workflow on the console until it completes, fails, or ctx is done.
func Run(ctx context.Context, opts RunOptions, in io.Reader, out io.Writer) (domain.SimulationState, error) {
	logger := createLogger(opts.Debug)

	b, err := OpenBackend(opts.Options)
	if err != nil {
		return domain.SimulationState{}, err
	}
	defer b.Close()

	wf, err := resolveWorkflow(ctx, b.Store, opts.Target)
	if err != nil {
		return domain.SimulationState{}, err
	}

	ws := flowcanvas.New(wf.Name, workspaceOptions(opts.Options, logger)...)
	ws.LoadWorkflow(wf)

	r := flowcanvas.Runner{Input: in, Output: out, Headless: opts.Headless}
	if opts.Pretty {
		r.Renderer = tui.NewRenderer()
	}
	if !opts.Headless && isTerminal(out) {
		tui.PrintBanner(out, flowcanvas.Version)
	}
	logger.Info("running workflow", "workflow", wf.Name, "nodes", len(wf.Graph.Nodes))
	return r.Run(ctx, ws, opts.Input)
}

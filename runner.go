package flowcanvas

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Runner drives a workspace run to completion, printing one line per event.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms node output before it is printed.
// This allows for TUI rendering (colours, markdown) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Run simulates the workspace graph with input and blocks until the run ends.
// Unless Headless, lines read from Input control the run: "p" toggles pause, "s" stops.
func (r *Runner) Run(ctx context.Context, ws *Workspace, input string) (domain.SimulationState, error) {
	if r.Output == nil {
		return domain.SimulationState{}, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	var mu sync.Mutex
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(r.Output, format, args...)
	}

	if !r.Headless {
		printf("--- flowcanvas runner (p: pause/resume, s: stop) ---\n")
	}

	hooks := domain.SimulatorHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			printf("-> [%s] %s\n", e.NodeType, e.Label)
		},
		OnNodeComplete: func(_ context.Context, e *domain.NodeEvent) {
			printf("   %s\n", r.render(e.Output))
		},
		OnComplete: func(_ context.Context, e *domain.RunEvent) {
			printf("== completed: %s\n", r.render(e.FinalOutput))
		},
		OnError: func(_ context.Context, e *domain.RunEvent) {
			printf("!! error: %s\n", e.Error)
		},
	}

	if err := ws.Run(ctx, input, hooks); err != nil {
		return ws.State(), err
	}

	finished := make(chan struct{})
	defer close(finished)
	if !r.Headless && r.Input != nil {
		go r.control(ws, finished, printf)
	}

	st, err := ws.Wait(ctx)
	if err != nil {
		return st, err
	}
	switch st.Status {
	case domain.StatusIdle:
		printf("== stopped\n")
	case domain.StatusError:
		return st, fmt.Errorf("run failed: %s", *st.Error)
	}
	return st, nil
}

func (r *Runner) control(ws *Workspace, finished <-chan struct{}, printf func(string, ...any)) {
	scanner := bufio.NewScanner(r.Input)
	for scanner.Scan() {
		select {
		case <-finished:
			return
		default:
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "p", "pause", "resume":
			if ws.State().Status == domain.StatusPaused {
				ws.Resume()
				printf("== resumed\n")
			} else {
				ws.Pause()
				printf("== paused\n")
			}
		case "s", "stop", "exit", "quit":
			ws.Stop()
			return
		}
	}
}

func (r *Runner) render(s string) string {
	if r.Renderer == nil {
		return s
	}
	if out, err := r.Renderer(s); err == nil {
		return strings.TrimSpace(out)
	}
	return s
}

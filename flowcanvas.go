package flowcanvas

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/internal/runtime"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
)

// ConditionEvaluator decides the outcome reported by condition nodes.
type ConditionEvaluator = runtime.ConditionEvaluator

// watchBuffer is the per-watcher backlog before snapshots are dropped.
const watchBuffer = 32

// Workspace is the high-level entry point for the flowcanvas library.
// It pairs one editable graph with the simulator of its most recent run.
type Workspace struct {
	Name string

	editor     *editor.Store
	editorOpts []editor.Option
	simOpts    []runtime.Option
	hooks      domain.SimulatorHooks
	logger     *slog.Logger

	runMu sync.Mutex
	sim   atomic.Pointer[runtime.Simulator]

	watchMu  sync.Mutex
	watchers map[int]chan domain.SimulationState
	nextID   int
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithLifecycleHooks registers observability hooks for every run.
func WithLifecycleHooks(hooks domain.SimulatorHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// WithStepDelay sets the base synthetic delay of each run.
func WithStepDelay(d time.Duration) Option {
	return func(w *Workspace) {
		w.simOpts = append(w.simOpts, runtime.WithStepDelay(d))
	}
}

// WithConditionEvaluator sets a custom outcome policy for condition nodes.
func WithConditionEvaluator(eval ConditionEvaluator) Option {
	return func(w *Workspace) {
		w.simOpts = append(w.simOpts, runtime.WithConditionEvaluator(eval))
	}
}

// WithStrictValidation rejects graphs with blocking validation issues at run start.
func WithStrictValidation() Option {
	return func(w *Workspace) {
		w.simOpts = append(w.simOpts, runtime.WithStrictValidation())
	}
}

// WithMaxSteps bounds the number of steps of a run (0 = unlimited).
func WithMaxSteps(n int) Option {
	return func(w *Workspace) {
		w.simOpts = append(w.simOpts, runtime.WithMaxSteps(n))
	}
}

// WithHistoryLimit bounds the undo history of the editor.
func WithHistoryLimit(n int) Option {
	return func(w *Workspace) {
		w.editorOpts = append(w.editorOpts, editor.WithHistoryLimit(n))
	}
}

// New creates a workspace holding the default single-start-node graph.
func New(name string, opts ...Option) *Workspace {
	w := &Workspace{
		Name:     name,
		watchers: make(map[int]chan domain.SimulationState),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if w.Name != "" {
		w.logger = w.logger.With("workspace", w.Name)
	}

	editorOpts := append([]editor.Option{editor.WithLogger(w.logger)}, w.editorOpts...)
	w.editor = editor.New(domain.DefaultGraph(), editorOpts...)
	return w
}

// Editor returns the graph store that edits are applied to.
func (w *Workspace) Editor() *editor.Store {
	return w.editor
}

// Graph returns a copy of the live graph.
func (w *Workspace) Graph() domain.Graph {
	return w.editor.Graph()
}

// Workflow returns the persistable form of the workspace.
func (w *Workspace) Workflow() *domain.Workflow {
	return &domain.Workflow{
		Name:      w.Name,
		Graph:     w.editor.Graph(),
		UpdatedAt: time.Now().UTC(),
	}
}

// LoadWorkflow stops any run and replaces the graph, restarting the undo history.
func (w *Workspace) LoadWorkflow(wf *domain.Workflow) {
	w.Stop()
	w.editor.Load(wf.Graph)
}

// Run stops the previous run, if any, and simulates a snapshot of the current graph.
// Extra hooks apply to this run only. The run ends when it completes, fails, or ctx is done.
func (w *Workspace) Run(ctx context.Context, input string, hooks ...domain.SimulatorHooks) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if prev := w.sim.Load(); prev != nil {
		prev.Stop()
	}
	return w.startLocked(ctx, input, hooks)
}

// Start is Run without the takeover: it fails with domain.ErrRunActive while a
// run is running or paused, and replaces a finished run.
func (w *Workspace) Start(ctx context.Context, input string, hooks ...domain.SimulatorHooks) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if prev := w.sim.Load(); prev != nil {
		if prev.State().Status.Active() {
			return domain.ErrRunActive
		}
		prev.Stop()
	}
	return w.startLocked(ctx, input, hooks)
}

func (w *Workspace) startLocked(ctx context.Context, input string, hooks []domain.SimulatorHooks) error {
	var sim *runtime.Simulator
	publish := func() { w.broadcast(sim.State()) }
	notify := domain.SimulatorHooks{
		OnNodeEnter:    func(context.Context, *domain.NodeEvent) { publish() },
		OnNodeComplete: func(context.Context, *domain.NodeEvent) { publish() },
		OnStepAdded:    func(context.Context, *domain.StepEvent) { publish() },
		OnComplete:     func(context.Context, *domain.RunEvent) { publish() },
		OnError:        func(context.Context, *domain.RunEvent) { publish() },
		OnCancel:       func(context.Context, *domain.RunEvent) { publish() },
	}
	all := append([]domain.SimulatorHooks{logging.Hooks(w.logger), w.hooks}, hooks...)
	all = append(all, notify)

	opts := append([]runtime.Option{runtime.WithLogger(w.logger)}, w.simOpts...)
	opts = append(opts, runtime.WithLifecycleHooks(domain.MergeHooks(all...)))
	sim = runtime.NewSimulator(w.editor.Graph(), opts...)
	w.sim.Store(sim)

	return sim.Start(ctx, input)
}

// Pause suspends the current run before its next node.
func (w *Workspace) Pause() {
	if sim := w.sim.Load(); sim != nil {
		sim.Pause()
		w.broadcast(sim.State())
	}
}

// Resume continues a paused run.
func (w *Workspace) Resume() {
	if sim := w.sim.Load(); sim != nil {
		sim.Resume()
		w.broadcast(sim.State())
	}
}

// Stop cancels the current run and resets its state to idle.
func (w *Workspace) Stop() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if sim := w.sim.Load(); sim != nil {
		sim.Stop()
		w.broadcast(sim.State())
	}
}

// State returns a snapshot of the current run, or an idle state if nothing ran yet.
func (w *Workspace) State() domain.SimulationState {
	if sim := w.sim.Load(); sim != nil {
		return sim.State()
	}
	return *domain.NewSimulationState(w.editor.Graph())
}

// NodeStatus returns the status of a node in the current run.
func (w *Workspace) NodeStatus(id string) domain.NodeStatus {
	if sim := w.sim.Load(); sim != nil {
		return sim.NodeStatus(id)
	}
	return domain.NodePending
}

// Wait blocks until the current run ends or ctx is done.
func (w *Workspace) Wait(ctx context.Context) (domain.SimulationState, error) {
	if sim := w.sim.Load(); sim != nil {
		return sim.Wait(ctx)
	}
	return w.State(), nil
}

// Watch streams a snapshot after every run event until ctx is done.
// A watcher that falls behind misses snapshots rather than blocking the run.
func (w *Workspace) Watch(ctx context.Context) <-chan domain.SimulationState {
	ch := make(chan domain.SimulationState, watchBuffer)

	w.watchMu.Lock()
	id := w.nextID
	w.nextID++
	w.watchers[id] = ch
	w.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		w.watchMu.Lock()
		delete(w.watchers, id)
		close(ch)
		w.watchMu.Unlock()
	}()
	return ch
}

func (w *Workspace) broadcast(st domain.SimulationState) {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()

	for id, ch := range w.watchers {
		select {
		case ch <- *st.Clone():
		default:
			w.logger.Debug("watcher lagging, snapshot dropped", "watcher", id)
		}
	}
}

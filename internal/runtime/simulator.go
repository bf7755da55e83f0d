package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/google/uuid"
)

// Simulator drives one run at a time over an immutable graph snapshot.
//
// The run goroutine is the only writer of the run state; every other entry point
// reads the last published snapshot or touches the pause gate and the run token.
// Hooks are called from the run goroutine and must not call Start, Stop or Reset.
// Apart from OnCancel, no hook fires once the run's context is cancelled.
type Simulator struct {
	graph domain.Graph

	hooks     domain.SimulatorHooks
	logger    *slog.Logger
	stepDelay time.Duration
	evaluate  ConditionEvaluator
	strict    bool
	maxSteps  int
	now       func() time.Time
	newRunID  func() string

	ctrl  sync.Mutex
	state atomic.Pointer[domain.SimulationState]
	run   atomic.Pointer[runToken]
	gate  gate
}

// runToken is the cancellation signal and exit notification of one run.
type runToken struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type workItem struct {
	node  domain.Node
	input string
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NewSimulator creates an idle simulator over a private copy of g.
func NewSimulator(g domain.Graph, opts ...Option) *Simulator {
	s := &Simulator{
		graph:     g.Clone(),
		logger:    logging.NewNop(),
		stepDelay: DefaultStepDelay,
		evaluate:  RandomCondition,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(domain.NewSimulationState(s.graph))
	return s
}

// Start begins a run with the given user input.
// The traversal runs on its own goroutine; ctx bounds its lifetime like Stop does.
// A graph without a start node fails synchronously with domain.ErrNoStartNode.
func (s *Simulator) Start(ctx context.Context, input string) error {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	switch cur := s.state.Load(); {
	case cur.Status.Active():
		return domain.ErrRunActive
	case cur.Status.Terminal():
		return domain.ErrNotReset
	}

	s.gate.release()
	st := domain.NewSimulationState(s.graph)
	st.RunID = s.newRunID()
	st.Status = domain.StatusRunning

	if err := s.preflight(); err != nil {
		s.failNow(ctx, st, err)
		return err
	}
	start := s.graph.StartNodes()[0]

	runCtx, cancel := context.WithCancel(ctx)
	tok := &runToken{cancel: cancel, done: make(chan struct{})}
	s.run.Store(tok)
	s.publish(st)

	s.logger.Debug("run started", "run_id", st.RunID, "start_node", start.ID)
	go func() {
		defer cancel()
		defer close(tok.done)
		s.traverse(runCtx, st, workItem{node: start, input: input})
	}()
	return nil
}

func (s *Simulator) preflight() error {
	if s.strict {
		if err := domain.CheckGraph(s.graph); err != nil {
			return err
		}
	}
	if len(s.graph.StartNodes()) == 0 {
		return domain.ErrNoStartNode
	}
	return nil
}

// failNow records a failure that happened before any traversal.
func (s *Simulator) failNow(ctx context.Context, st *domain.SimulationState, err error) {
	s.run.Store(&runToken{cancel: func() {}, done: closedDone})
	msg := err.Error()
	st.Status = domain.StatusError
	st.Error = &msg
	s.publish(st)
	s.logger.Warn("run rejected", "run_id", st.RunID, "error", err)
	s.emitRun(ctx, s.hooks.OnError, domain.EventRunError, st.RunID, "", msg)
}

func (s *Simulator) traverse(ctx context.Context, st *domain.SimulationState, first workItem) {
	stack := []workItem{first}
	var final string

	for len(stack) > 0 {
		if err := s.gate.wait(ctx); err != nil {
			s.abandon(ctx, st)
			return
		}
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.maxSteps > 0 && len(st.Steps) >= s.maxSteps {
			s.fail(ctx, st, fmt.Errorf("%w: %d", domain.ErrStepLimit, s.maxSteps))
			return
		}

		output, err := s.visit(ctx, st, item)
		if err != nil {
			s.abandon(ctx, st)
			return
		}

		if item.node.Type == domain.NodeTypeEnd {
			final = output
			continue
		}
		next := s.graph.Successors(item.node.ID)
		if len(next) == 0 {
			final = output
			continue
		}
		// Reverse push so the first declared successor is popped first.
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, workItem{node: next[i], input: output})
		}
	}

	// A cancel that lands after the last delay still ends the run like Stop.
	if ctx.Err() != nil {
		s.abandon(ctx, st)
		return
	}
	st.Status = domain.StatusCompleted
	st.FinalOutput = &final
	s.publish(st)
	s.logger.Debug("run completed", "run_id", st.RunID, "steps", len(st.Steps))
	s.emitRun(ctx, s.hooks.OnComplete, domain.EventRunComplete, st.RunID, final, "")
}

// visit executes a single node and returns its output.
// The only error is the run's cancellation.
func (s *Simulator) visit(ctx context.Context, st *domain.SimulationState, item workItem) (string, error) {
	node := item.node

	st.CurrentNodeID = node.ID
	st.NodeStatuses[node.ID] = domain.NodeRunning
	s.publish(st)
	s.emitNode(ctx, s.hooks.OnNodeEnter, domain.EventNodeEnter, st.RunID, node, "")

	st.Steps = append(st.Steps, domain.SimulationStep{
		NodeID:    node.ID,
		NodeType:  node.Type,
		Label:     node.DisplayLabel(),
		Status:    domain.NodeRunning,
		Timestamp: s.now(),
	})
	idx := len(st.Steps) - 1
	s.publish(st)
	if s.hooks.OnStepAdded != nil && ctx.Err() == nil {
		s.hooks.OnStepAdded(ctx, &domain.StepEvent{
			EventBase: s.eventBase(domain.EventStepAdded, st.RunID),
			Step:      st.Steps[idx],
		})
	}

	if err := sleep(ctx, delayFor(node.Type, s.stepDelay)); err != nil {
		return "", err
	}
	output := synthesize(ctx, node, item.input, s.evaluate)

	st.Steps[idx].Status = domain.NodeCompleted
	st.Steps[idx].Output = output
	st.NodeStatuses[node.ID] = domain.NodeCompleted
	s.publish(st)
	s.emitNode(ctx, s.hooks.OnNodeComplete, domain.EventNodeComplete, st.RunID, node, output)
	return output, nil
}

func (s *Simulator) fail(ctx context.Context, st *domain.SimulationState, err error) {
	msg := err.Error()
	st.Status = domain.StatusError
	st.Error = &msg
	s.publish(st)
	s.logger.Warn("run failed", "run_id", st.RunID, "error", err)
	s.emitRun(ctx, s.hooks.OnError, domain.EventRunError, st.RunID, "", msg)
}

// abandon restores the idle state and reports the cancellation through OnCancel only.
func (s *Simulator) abandon(ctx context.Context, st *domain.SimulationState) {
	s.logger.Debug("run cancelled", "run_id", st.RunID, "steps", len(st.Steps))
	s.state.Store(domain.NewSimulationState(s.graph))
	if s.hooks.OnCancel != nil {
		s.hooks.OnCancel(context.WithoutCancel(ctx), &domain.RunEvent{
			EventBase: s.eventBase(domain.EventRunCancelled, st.RunID),
		})
	}
}

func (s *Simulator) publish(st *domain.SimulationState) {
	s.state.Store(st.Clone())
}

func (s *Simulator) eventBase(t domain.EventType, runID string) domain.EventBase {
	return domain.EventBase{Timestamp: s.now(), Type: t, RunID: runID}
}

func (s *Simulator) emitNode(ctx context.Context, fn func(context.Context, *domain.NodeEvent), t domain.EventType, runID string, node domain.Node, output string) {
	if fn == nil || ctx.Err() != nil {
		return
	}
	fn(ctx, &domain.NodeEvent{
		EventBase: s.eventBase(t, runID),
		NodeID:    node.ID,
		NodeType:  node.Type,
		Label:     node.DisplayLabel(),
		Output:    output,
	})
}

func (s *Simulator) emitRun(ctx context.Context, fn func(context.Context, *domain.RunEvent), t domain.EventType, runID, final, errMsg string) {
	if fn == nil || ctx.Err() != nil {
		return
	}
	fn(ctx, &domain.RunEvent{
		EventBase:   s.eventBase(t, runID),
		FinalOutput: final,
		Error:       errMsg,
	})
}

// Pause sets the pause flag. It only has an effect while running.
// An in-flight delay is not interrupted; the next node waits.
func (s *Simulator) Pause() {
	if s.state.Load().Status != domain.StatusRunning {
		return
	}
	if s.gate.pause() {
		s.logger.Debug("run paused", "run_id", s.state.Load().RunID)
	}
}

// Resume clears the pause flag. It only has an effect while paused.
func (s *Simulator) Resume() {
	if s.gate.release() {
		s.logger.Debug("run resumed", "run_id", s.state.Load().RunID)
	}
}

// Stop cancels the current run, waits for its goroutine to exit and restores an idle state.
// No hook fires for the cancelled run once Stop returns.
func (s *Simulator) Stop() {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	if tok := s.run.Load(); tok != nil {
		tok.cancel()
		<-tok.done
	}
	s.gate.release()
	s.state.Store(domain.NewSimulationState(s.graph))
}

// Reset is Stop: both return the simulator to a pristine idle state.
func (s *Simulator) Reset() {
	s.Stop()
}

// State returns an independent copy of the latest snapshot.
func (s *Simulator) State() domain.SimulationState {
	snap := s.state.Load().Clone()
	if snap.Status == domain.StatusRunning && s.gate.isPaused() {
		snap.Status = domain.StatusPaused
	}
	return *snap
}

// NodeStatus returns the tracked status of id, or pending if id is unknown.
func (s *Simulator) NodeStatus(id string) domain.NodeStatus {
	return s.state.Load().NodeStatus(id)
}

// Done is closed when the current run's goroutine exits.
// It is already closed when no run was ever started.
func (s *Simulator) Done() <-chan struct{} {
	if tok := s.run.Load(); tok != nil {
		return tok.done
	}
	return closedDone
}

// Wait blocks until the current run ends or ctx is done and returns the final snapshot.
func (s *Simulator) Wait(ctx context.Context) (domain.SimulationState, error) {
	select {
	case <-s.Done():
		return s.State(), nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

package flowcanvas_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainWorkspace(t *testing.T, opts ...flowcanvas.Option) *flowcanvas.Workspace {
	t.Helper()
	ws := flowcanvas.New("test", opts...)
	ed := ws.Editor()
	a := ed.AddNode(domain.NodeTypeAgent, "Helper", domain.Position{})
	e := ed.AddNode(domain.NodeTypeEnd, "Done", domain.Position{})
	ed.Connect("start-1", a.ID, "")
	ed.Connect(a.ID, e.ID, "")
	return ws
}

func waitRun(t *testing.T, ws *flowcanvas.Workspace) domain.SimulationState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := ws.Wait(ctx)
	require.NoError(t, err)
	return st
}

func TestWorkspace_DefaultGraph(t *testing.T) {
	ws := flowcanvas.New("fresh")
	g := ws.Graph()
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "start-1", g.Nodes[0].ID)
	assert.Equal(t, domain.NodeTypeStart, g.Nodes[0].Type)
	assert.Equal(t, domain.StatusIdle, ws.State().Status)
	assert.Equal(t, domain.NodePending, ws.NodeStatus("start-1"))
}

func TestWorkspace_RunCompletes(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(0))

	require.NoError(t, ws.Run(context.Background(), "hi"))
	st := waitRun(t, ws)

	assert.Equal(t, domain.StatusCompleted, st.Status)
	assert.Len(t, st.Steps, 3)
	assert.Equal(t, "Workflow completed successfully.", *st.FinalOutput)
}

func TestWorkspace_RunUsesSnapshot(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(20*time.Millisecond))
	require.NoError(t, ws.Run(context.Background(), "hi"))

	// Editing during a run does not affect it.
	ws.Editor().AddNode(domain.NodeTypeNote, "late", domain.Position{})
	st := waitRun(t, ws)
	assert.Len(t, st.Steps, 3)
}

func TestWorkspace_RunReplacesPreviousRun(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(time.Hour))

	var mu sync.Mutex
	var finals []string
	hooks := domain.SimulatorHooks{OnComplete: func(_ context.Context, e *domain.RunEvent) {
		mu.Lock()
		finals = append(finals, e.FinalOutput)
		mu.Unlock()
	}}
	require.NoError(t, ws.Run(context.Background(), "first", hooks))
	first := ws.State().RunID

	require.NoError(t, ws.Run(context.Background(), "second"))
	assert.NotEqual(t, first, ws.State().RunID)
	assert.Equal(t, domain.StatusRunning, ws.State().Status)

	ws.Stop()
	assert.Equal(t, domain.StatusIdle, ws.State().Status)
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, finals, "the replaced run never completes")
}

func TestWorkspace_StartRejectsActiveRun(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(time.Hour))
	defer ws.Stop()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ws.Start(context.Background(), "hi")
		}(i)
	}
	wg.Wait()

	started := 0
	for _, err := range errs {
		if err == nil {
			started++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRunActive)
	}
	assert.Equal(t, 1, started)

	ws.Pause()
	assert.ErrorIs(t, ws.Start(context.Background(), "paused"), domain.ErrRunActive)
}

func TestWorkspace_StartAfterFinishedRun(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(0))

	require.NoError(t, ws.Start(context.Background(), "one"))
	first := waitRun(t, ws)
	require.Equal(t, domain.StatusCompleted, first.Status)

	require.NoError(t, ws.Start(context.Background(), "two"))
	second := waitRun(t, ws)
	assert.Equal(t, domain.StatusCompleted, second.Status)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestWorkspace_StopReportsCancel(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(time.Hour))

	var mu sync.Mutex
	var cancelled []string
	hooks := domain.SimulatorHooks{OnCancel: func(_ context.Context, e *domain.RunEvent) {
		mu.Lock()
		cancelled = append(cancelled, e.RunID)
		mu.Unlock()
	}}
	require.NoError(t, ws.Run(context.Background(), "hi", hooks))
	runID := ws.State().RunID

	ws.Stop()
	ws.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{runID}, cancelled)
}

func TestWorkspace_NoStartNode(t *testing.T) {
	ws := flowcanvas.New("broken", flowcanvas.WithStepDelay(0))
	ws.Editor().RemoveNode("start-1")

	err := ws.Run(context.Background(), "hi")
	require.ErrorIs(t, err, domain.ErrNoStartNode)
	assert.Equal(t, domain.StatusError, ws.State().Status)
}

func TestWorkspace_WatchStreamsSnapshots(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := ws.Watch(ctx)

	require.NoError(t, ws.Run(context.Background(), "hi"))
	waitRun(t, ws)

	var last domain.SimulationState
	timeout := time.After(5 * time.Second)
	for last.Status != domain.StatusCompleted {
		select {
		case st := <-updates:
			last = st
		case <-timeout:
			t.Fatal("no completed snapshot received")
		}
	}
	assert.Len(t, last.Steps, 3)

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-updates
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestWorkspace_PauseResumeStop(t *testing.T) {
	ws := chainWorkspace(t, flowcanvas.WithStepDelay(time.Hour))
	require.NoError(t, ws.Run(context.Background(), "hi"))

	ws.Pause()
	assert.Equal(t, domain.StatusPaused, ws.State().Status)
	ws.Resume()
	assert.Equal(t, domain.StatusRunning, ws.State().Status)

	ws.Stop()
	assert.Equal(t, domain.StatusIdle, ws.State().Status)
}

func TestWorkspace_WorkflowRoundTrip(t *testing.T) {
	ws := chainWorkspace(t)
	wf := ws.Workflow()
	assert.Equal(t, "test", wf.Name)
	assert.Len(t, wf.Graph.Nodes, 3)

	other := flowcanvas.New("other")
	other.LoadWorkflow(wf)
	assert.Equal(t, wf.Graph, other.Graph())
	assert.False(t, other.Editor().CanUndo())
}

func TestWorkspace_StrictAndMaxSteps(t *testing.T) {
	ws := flowcanvas.New("strict", flowcanvas.WithStrictValidation())
	ws.Editor().Connect("start-1", "ghost", "")
	assert.ErrorIs(t, ws.Run(context.Background(), ""), domain.ErrInvalidGraph)

	loop := flowcanvas.New("loop", flowcanvas.WithStepDelay(0), flowcanvas.WithMaxSteps(4))
	n := loop.Editor().AddNode(domain.NodeTypeNote, "again", domain.Position{})
	loop.Editor().Connect("start-1", n.ID, "")
	loop.Editor().Connect(n.ID, n.ID, "")
	require.NoError(t, loop.Run(context.Background(), ""))
	st := waitRun(t, loop)
	assert.Equal(t, domain.StatusError, st.Status)
	assert.Len(t, st.Steps, 4)
}

func TestWorkspace_ConditionEvaluator(t *testing.T) {
	ws := flowcanvas.New("cond",
		flowcanvas.WithStepDelay(0),
		flowcanvas.WithConditionEvaluator(func(context.Context, domain.Node, string) bool { return false }))
	c := ws.Editor().AddNode(domain.NodeTypeCondition, "Gate", domain.Position{})
	ws.Editor().Connect("start-1", c.ID, "")

	require.NoError(t, ws.Run(context.Background(), ""))
	st := waitRun(t, ws)
	assert.Equal(t, `Condition "Gate" evaluated to: false`, *st.FinalOutput)
}

package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeCancelled labels runs stopped before they ended.
const OutcomeCancelled = "cancelled"

// Metrics holds the Prometheus collectors fed by simulator hooks.
type Metrics struct {
	runs         *prometheus.CounterVec
	nodeVisits   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec

	mu      sync.Mutex
	entered map[string]time.Time // run id -> entry time of its in-flight node
}

// NewMetrics creates the collectors and registers them with reg, if not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_runs_total",
				Help: "Finished simulation runs by outcome (completed, error, cancelled)",
			},
			[]string{"status"},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node_type"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowcanvas_step_duration_seconds",
				Help:    "Time between entering and completing a node",
				Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"node_type"},
		),
		entered: make(map[string]time.Time),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.runs, m.nodeVisits, m.stepDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Hooks returns simulator hooks that record into m.
func (m *Metrics) Hooks() domain.SimulatorHooks {
	return domain.SimulatorHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(string(e.NodeType)).Inc()
			m.mu.Lock()
			m.entered[e.RunID] = e.Timestamp
			m.mu.Unlock()
		},
		OnNodeComplete: func(_ context.Context, e *domain.NodeEvent) {
			m.mu.Lock()
			start, ok := m.entered[e.RunID]
			delete(m.entered, e.RunID)
			m.mu.Unlock()
			if ok {
				m.stepDuration.WithLabelValues(string(e.NodeType)).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnComplete: func(_ context.Context, e *domain.RunEvent) {
			m.finish(e.RunID, string(domain.StatusCompleted))
		},
		OnError: func(_ context.Context, e *domain.RunEvent) {
			m.finish(e.RunID, string(domain.StatusError))
		},
		OnCancel: func(_ context.Context, e *domain.RunEvent) {
			m.finish(e.RunID, OutcomeCancelled)
		},
	}
}

// InFlight returns the number of runs with a node entered but not completed.
func (m *Metrics) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entered)
}

func (m *Metrics) finish(runID, outcome string) {
	m.mu.Lock()
	delete(m.entered, runID)
	m.mu.Unlock()
	m.runs.WithLabelValues(outcome).Inc()
}

package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// DefaultStepDelay is the base synthetic delay used when none is configured.
const DefaultStepDelay = time.Second

// Option configures a Simulator.
type Option func(*Simulator)

// WithStepDelay sets the base delay D that node delays are scaled from.
func WithStepDelay(d time.Duration) Option {
	return func(s *Simulator) {
		s.stepDelay = d
	}
}

// WithConditionEvaluator replaces the random condition outcome. A nil fn keeps RandomCondition.
func WithConditionEvaluator(fn ConditionEvaluator) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.evaluate = fn
		}
	}
}

// WithLifecycleHooks registers the observer sink for run events.
func WithLifecycleHooks(hooks domain.SimulatorHooks) Option {
	return func(s *Simulator) {
		s.hooks = hooks
	}
}

// WithLogger configures a logger for the Simulator.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithStrictValidation makes Start reject graphs with blocking validation issues.
func WithStrictValidation() Option {
	return func(s *Simulator) {
		s.strict = true
	}
}

// WithMaxSteps fails a run once it has recorded n steps. Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(s *Simulator) {
		s.maxSteps = n
	}
}

// WithClock overrides the step timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		s.now = now
	}
}

// WithRunIDGenerator overrides how run ids are minted.
func WithRunIDGenerator(gen func() string) Option {
	return func(s *Simulator) {
		s.newRunID = gen
	}
}

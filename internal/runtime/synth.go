package runtime

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// ConditionEvaluator decides the outcome reported by a condition node.
// It never selects a branch: every successor runs regardless of the result.
type ConditionEvaluator func(ctx context.Context, node domain.Node, input string) bool

// RandomCondition is true with probability 0.7.
func RandomCondition(context.Context, domain.Node, string) bool {
	return rand.Float64() < 0.7
}

// FixedCondition always reports v.
func FixedCondition(v bool) ConditionEvaluator {
	return func(context.Context, domain.Node, string) bool { return v }
}

// delayFor scales the base step delay by node type.
func delayFor(t domain.NodeType, base time.Duration) time.Duration {
	switch t {
	case domain.NodeTypeAgent:
		return base
	case domain.NodeTypeTool:
		return base * 7 / 10
	case domain.NodeTypeCondition, domain.NodeTypeGuardrail:
		return base / 2
	default:
		return 0
	}
}

// synthesize renders the placeholder output of a node. Condition results are decided by eval.
func synthesize(ctx context.Context, node domain.Node, input string, eval ConditionEvaluator) string {
	label := node.DisplayLabel()
	switch node.Type {
	case domain.NodeTypeStart:
		return fmt.Sprintf(`Workflow started with input: "%s"`, input)
	case domain.NodeTypeAgent:
		return fmt.Sprintf(`Agent "%s" processed input and generated response: "I understand you need help with: %s. Here's my assistance..."`, label, input)
	case domain.NodeTypeTool:
		return fmt.Sprintf(`Tool "%s" executed successfully. Result: { "status": "success", "data": "processed" }`, label)
	case domain.NodeTypeCondition:
		return fmt.Sprintf(`Condition "%s" evaluated to: %t`, label, eval(ctx, node, input))
	case domain.NodeTypeGuardrail:
		return fmt.Sprintf(`Guardrail "%s" check passed. Input validated successfully.`, label)
	case domain.NodeTypeNote:
		return "Note: " + label
	case domain.NodeTypeEnd:
		return "Workflow completed successfully."
	default:
		return fmt.Sprintf(`Node "%s" processed.`, label)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

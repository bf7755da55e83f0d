package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// New creates a configured application logger.
// It writes to Stderr so that Stdout stays free for run output and JSON-RPC.
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

// NewJSON creates a JSON logger writing to w, used by long-running servers.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	// Standardize 'error' key to 'err'
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Hooks returns simulator hooks that write every run event to logger.
// Node transitions log at Debug, run outcomes at Info and Error.
func Hooks(logger *slog.Logger) domain.SimulatorHooks {
	return domain.SimulatorHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node entered",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"node_type", e.NodeType,
			)
		},
		OnNodeComplete: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node completed",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"output", e.Output,
			)
		},
		OnComplete: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run completed",
				"run_id", e.RunID,
				"final_output", e.FinalOutput,
			)
		},
		OnError: func(ctx context.Context, e *domain.RunEvent) {
			logger.ErrorContext(ctx, "run failed",
				"run_id", e.RunID,
				"error", e.Error,
			)
		},
		OnCancel: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run cancelled", "run_id", e.RunID)
		},
	}
}

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestHooks_WritesRunEvents(t *testing.T) {
	var buf bytes.Buffer
	hooks := Hooks(NewJSON(&buf, slog.LevelDebug))
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: domain.EventBase{RunID: "r1"}, NodeID: "start-1", NodeType: domain.NodeTypeStart})
	hooks.OnError(ctx, &domain.RunEvent{EventBase: domain.EventBase{RunID: "r1"}, Error: "boom"})

	out := buf.String()
	assert.Contains(t, out, `"msg":"node entered"`)
	assert.Contains(t, out, `"node_id":"start-1"`)
	assert.Contains(t, out, `"err":"boom"`, "error key is renamed")
}

func TestNewJSON_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

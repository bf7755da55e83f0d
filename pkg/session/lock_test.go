package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 2000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("ws-%d", i)
		_, _ = mgr.Get(ctx, id)
		_ = mgr.Save(ctx, id)
		_ = mgr.Delete(ctx, id)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
	if liveCount := len(mgr.live); liveCount != 0 {
		t.Errorf("%d workspaces still live after Delete", liveCount)
	}
}

package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, "hoist")
	p.OnStageProgress(ctx, "hoist", 1, 2)
	p.OnStageComplete(ctx, "hoist", time.Second, nil)

	// Dedupe hooks
	d := NoopDedupeHooks{}
	d.OnRemoved(ctx, "b@1.0.0", "/p/node_modules/a/node_modules/b")
	d.OnHoisted(ctx, "b@1.0.0", "/p/node_modules/a/node_modules/b", "/p/node_modules/b")
	d.OnAnomaly(ctx, "/p/node_modules/a", "parent mismatch")
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Dedupe().(NoopDedupeHooks); !ok {
		t.Error("Dedupe() should return NoopDedupeHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customDedupe := &testDedupeHooks{}
	SetDedupeHooks(customDedupe)
	if Dedupe() != customDedupe {
		t.Error("SetDedupeHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Dedupe().(NoopDedupeHooks); !ok {
		t.Error("Reset() should restore NoopDedupeHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestTrackerReportsProgress(t *testing.T) {
	Reset()
	defer Reset()

	rec := &testPipelineHooks{}
	SetPipelineHooks(rec)

	tr := NewTracker(context.Background(), "load")
	tr.AddWork(3)

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.CompleteWork(1)
		}()
	}
	wg.Wait()

	done, total := tr.Progress()
	if done != 3 || total != 3 {
		t.Errorf("Progress() = %d/%d, want 3/3", done, total)
	}
	if got := rec.count(); got != 4 {
		t.Errorf("progress events = %d, want 4", got)
	}
}

// Test implementations
type testPipelineHooks struct {
	NoopPipelineHooks
	mu     sync.Mutex
	events int
}

func (h *testPipelineHooks) OnStageProgress(context.Context, string, int, int) {
	h.mu.Lock()
	h.events++
	h.mu.Unlock()
}

func (h *testPipelineHooks) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events
}

type testDedupeHooks struct{ NoopDedupeHooks }

package observability

import (
	"context"
	"sync"
)

// Tracker counts units of work for one stage and forwards every change to
// the registered pipeline hooks. It is safe for concurrent use.
type Tracker struct {
	ctx   context.Context
	stage string

	mu    sync.Mutex
	done  int
	total int
}

// NewTracker creates a Tracker reporting under stage.
func NewTracker(ctx context.Context, stage string) *Tracker {
	return &Tracker{ctx: ctx, stage: stage}
}

// AddWork announces n more units of work.
func (t *Tracker) AddWork(n int) {
	t.mu.Lock()
	t.total += n
	done, total := t.done, t.total
	t.mu.Unlock()
	Pipeline().OnStageProgress(t.ctx, t.stage, done, total)
}

// CompleteWork marks n units of work finished.
func (t *Tracker) CompleteWork(n int) {
	t.mu.Lock()
	t.done += n
	done, total := t.done, t.total
	t.mu.Unlock()
	Pipeline().OnStageProgress(t.ctx, t.stage, done, total)
}

// Progress returns the units finished and announced so far.
func (t *Tracker) Progress() (done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done, t.total
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/stacktrim/pkg/observability"
)

// Stage runs fn as the named stage: it reports start and completion to the
// pipeline hooks and the logger, records timing in r.Stages and prefixes
// any error with the stage name. A cancelled context stops the run before
// the stage starts.
func (r *Run) Stage(ctx context.Context, name string, fn func(context.Context, *observability.Tracker) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name)
	r.Logger.Debug("stage start", "stage", name)

	start := time.Now()
	err := fn(ctx, observability.NewTracker(ctx, name))
	duration := time.Since(start)

	hooks.OnStageComplete(ctx, name, duration, err)
	r.Stages = append(r.Stages, StageStat{Name: name, Duration: duration, Failed: err != nil})
	if err != nil {
		r.Logger.Debug("stage failed", "stage", name, "duration", duration, "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	r.Logger.Debug("stage complete", "stage", name, "duration", duration)
	return nil
}

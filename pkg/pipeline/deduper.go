package pipeline

import (
	"context"

	"github.com/matzehuels/stacktrim/pkg/dedupe"
	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/observability"
	"github.com/matzehuels/stacktrim/pkg/resolve"
	"github.com/matzehuels/stacktrim/pkg/tree"
)

// Deduper is the Strategy that takes the current tree as it is and hoists
// duplicates out of it. No package is fetched or resolved anew.
type Deduper struct {
	resolver *resolve.Resolver
	jobs     int
}

// NewDeduper creates a Deduper placing packages per opts and processing up
// to jobs subtrees at once.
func NewDeduper(opts resolve.Options, jobs int) *Deduper {
	return &Deduper{resolver: resolve.New(opts), jobs: jobs}
}

func (d *Deduper) Name() string { return "dedupe" }

// Validate rejects settings the hoist pass would refuse.
func (d *Deduper) Validate() error {
	if d.jobs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "jobs must not be negative, got %d", d.jobs)
	}
	return nil
}

// LoadIdealTree clones the current tree, loads every installed package into
// it, links requirements, hoists, and relinks the result.
func (d *Deduper) LoadIdealTree(ctx context.Context, run *Run) error {
	steps := []struct {
		name string
		fn   func(context.Context, *observability.Tracker) error
	}{
		{StageCloneCurrentTree, func(context.Context, *observability.Tracker) error {
			run.Ideal = tree.Clone(run.Current)
			return nil
		}},
		{StageLoadAllDeps, func(ctx context.Context, tr *observability.Tracker) error {
			return resolve.LoadExtraneous(ctx, run.Ideal, tr)
		}},
		{StageRecalculateMetadata, func(ctx context.Context, _ *observability.Tracker) error {
			return d.resolver.RecalculateMetadata(ctx, run.Ideal, run.Logger)
		}},
		{StageHoist, func(ctx context.Context, tr *observability.Tracker) error {
			tr.AddWork(1)
			engine := dedupe.New(d.resolver, run.Obsolete, dedupe.Options{Jobs: d.jobs, Logger: run.Logger})
			report, err := engine.Hoist(ctx, run.Ideal)
			if err != nil {
				return err
			}
			run.Report = report
			tr.CompleteWork(1)
			return nil
		}},
		{StageRecalculateMetadata, func(ctx context.Context, _ *observability.Tracker) error {
			return d.resolver.RecalculateMetadata(ctx, run.Ideal, run.Logger)
		}},
	}

	for _, s := range steps {
		if err := run.Stage(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

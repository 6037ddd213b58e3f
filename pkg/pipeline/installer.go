// Package pipeline drives an install run over a project directory.
//
// An [Installer] is a fixed sequence of stages:
//
//  1. loadCurrentTree: read what is installed under node_modules
//  2. the [Strategy]'s stages, which compute the ideal tree
//  3. plan: diff the ideal tree into ordered move/remove actions
//  4. apply: hand the plan to an [Applier] (skipped on dry runs)
//
// Each stage runs to completion before the next starts; the first failure
// aborts the run. Lifecycle scripts are never run and a missing root
// package.json is accepted.
//
// # Usage
//
//	in := &pipeline.Installer{
//	    Where:    "/path/to/project",
//	    DryRun:   true,
//	    Strategy: pipeline.NewDeduper(resolve.Options{}, 1),
//	}
//	result, err := in.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Plan.Moves())
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/matzehuels/stacktrim/pkg/dedupe"
	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/installed"
	"github.com/matzehuels/stacktrim/pkg/observability"
	"github.com/matzehuels/stacktrim/pkg/resolve"
	"github.com/matzehuels/stacktrim/pkg/tree"
)

// Stage names reported to hooks and logs.
const (
	StageLoadCurrentTree     = "loadCurrentTree"
	StageCloneCurrentTree    = "cloneCurrentTree"
	StageLoadAllDeps         = "loadAllDepsIntoIdealTree"
	StageRecalculateMetadata = "recalculateMetadata"
	StageHoist               = "hoist"
	StagePlan                = "plan"
	StageApply               = "apply"
)

// Strategy computes the ideal tree of a run from its current tree.
// Implementations run their work through [Run.Stage].
type Strategy interface {
	Name() string
	LoadIdealTree(ctx context.Context, run *Run) error
}

// Installer runs a Strategy over the project at Where.
type Installer struct {
	Where  string
	DryRun bool

	// FS defaults to the OS filesystem.
	FS afero.Fs

	// Logger defaults to log.Default().
	Logger *log.Logger

	Strategy Strategy

	// Applier defaults to a PlanWriter on FS.
	Applier Applier
}

// Run is the state shared by the stages of one install run.
type Run struct {
	Where  string
	Logger *log.Logger

	Current  *tree.Node
	Ideal    *tree.Node
	Obsolete *resolve.ObsoleteList
	Report   *dedupe.Report

	Stages []StageStat
}

// StageStat records how a stage went.
type StageStat struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Failed   bool          `json:"failed,omitempty"`
}

// Result is the outcome of a successful run.
type Result struct {
	Plan    *Plan
	Ideal   *tree.Node
	Stages  []StageStat
	Applied bool
}

// Run executes every stage in order. Invalid configuration is reported
// before anything is read.
func (in *Installer) Run(ctx context.Context) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fs := in.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := in.Logger
	if logger == nil {
		logger = log.Default()
	}
	applier := in.Applier
	if applier == nil {
		applier = NewPlanWriter(fs)
	}

	run := &Run{
		Where:    in.Where,
		Logger:   logger,
		Obsolete: &resolve.ObsoleteList{},
	}

	err := run.Stage(ctx, StageLoadCurrentTree, func(ctx context.Context, _ *observability.Tracker) error {
		current, err := installed.NewReader(fs, logger).ReadTree(ctx, in.Where)
		if err != nil {
			return err
		}
		run.Current = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("computing ideal tree", "strategy", in.Strategy.Name())
	if err := in.Strategy.LoadIdealTree(ctx, run); err != nil {
		return nil, err
	}
	if run.Ideal == nil {
		return nil, errors.New(errors.ErrCodeInternal, "strategy %s produced no ideal tree", in.Strategy.Name())
	}

	var plan *Plan
	if err := run.Stage(ctx, StagePlan, func(context.Context, *observability.Tracker) error {
		plan = NewPlan(run)
		return nil
	}); err != nil {
		return nil, err
	}

	result := &Result{Plan: plan, Ideal: run.Ideal}
	if in.DryRun {
		logger.Info("dry run, nothing applied", "moves", plan.Moves(), "removals", plan.Removals())
	} else {
		if err := run.Stage(ctx, StageApply, func(ctx context.Context, _ *observability.Tracker) error {
			return applier.Apply(ctx, plan)
		}); err != nil {
			return nil, err
		}
		result.Applied = true
	}
	result.Stages = run.Stages
	return result, nil
}

func (in *Installer) validate() error {
	if in.Where == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no project directory given")
	}
	if in.Strategy == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no ideal tree strategy configured")
	}
	if v, ok := in.Strategy.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

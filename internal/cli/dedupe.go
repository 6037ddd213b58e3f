package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacktrim/pkg/dedupe"
	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/observability"
	"github.com/matzehuels/stacktrim/pkg/pipeline"
	"github.com/matzehuels/stacktrim/pkg/render/nodelink"
)

// dedupeOpts holds the command-line flags shared by dedupe and find-dupes.
type dedupeOpts struct {
	jobs           int    // subtrees processed concurrently
	globalStyle    bool   // keep packages under their top-level dependency
	legacyBundling bool   // never hoist
	json           bool   // print the plan as JSON on stdout
	dot            string // write the resulting tree as DOT to this file
	svg            string // write the resulting tree as SVG to this file
	detailed       bool   // paths in diagram labels
	requires       bool   // requirement edges in diagrams
}

// dedupeCommand creates the dedupe command, which hoists duplicates and
// writes the resulting plan unless --dry-run is given.
func (c *CLI) dedupeCommand() *cobra.Command {
	var opts dedupeOpts
	cmd := &cobra.Command{
		Use:     "dedupe",
		Aliases: []string{"ddp"},
		Short:   "Hoist and remove duplicate packages in node_modules",
		Long: `Dedupe rebuilds the installed node_modules tree in memory, moves every
package as high up as its requirements allow, and removes the copies that
are made redundant by a compatible copy further up.

The resulting moves and removals are written to node_modules/` + pipeline.PlanFile + `.
Nothing is downloaded and no lifecycle scripts are run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDedupe(cmd, &opts, false)
		},
	}
	addDedupeFlags(cmd, &opts)
	return cmd
}

// findDupesCommand creates find-dupes, a dedupe that never writes the plan.
func (c *CLI) findDupesCommand() *cobra.Command {
	var opts dedupeOpts
	cmd := &cobra.Command{
		Use:   "find-dupes",
		Short: "Show what dedupe would change without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDedupe(cmd, &opts, true)
		},
	}
	addDedupeFlags(cmd, &opts)
	return cmd
}

func addDedupeFlags(cmd *cobra.Command, opts *dedupeOpts) {
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 1, "subtrees to process concurrently")
	cmd.Flags().BoolVar(&opts.globalStyle, "global-style", false, "keep packages under the top-level dependency that needs them")
	cmd.Flags().BoolVar(&opts.legacyBundling, "legacy-bundling", false, "do not hoist at all")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the plan as JSON")
	cmd.Flags().StringVar(&opts.dot, "dot", "", "write the deduplicated tree as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "write the deduplicated tree as SVG")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show install paths in diagrams")
	cmd.Flags().BoolVar(&opts.requires, "requires", false, "draw requirement edges in diagrams")
}

func (c *CLI) runDedupe(cmd *cobra.Command, opts *dedupeOpts, forceDry bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = withLogger(ctx, c.Logger)

	if c.prefix == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--prefix must not be empty")
	}
	where, err := filepath.Abs(c.prefix)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", c.prefix)
	}

	cfg, err := loadConfig(c.FS, where, c.configPath)
	if err != nil {
		return err
	}
	cfg.overrideFromFlags(cmd, opts, c.dryRun)
	if forceDry {
		cfg.DryRun = true
	}

	c.logPreviousPlan(where)

	in := &pipeline.Installer{
		Where:    where,
		DryRun:   cfg.DryRun,
		FS:       c.FS,
		Logger:   c.Logger,
		Strategy: pipeline.NewDeduper(cfg.resolveOptions(), cfg.Jobs),
	}

	result, err := c.install(ctx, in, !opts.json)
	if err != nil {
		return err
	}

	if err := c.writeDiagrams(ctx, result, opts); err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Plan)
	}
	printPlan(result, pipeline.NewPlanWriter(c.FS).Path(where))
	return nil
}

// logPreviousPlan reports the plan left by an earlier dedupe, if any.
func (c *CLI) logPreviousPlan(where string) {
	path := pipeline.NewPlanWriter(c.FS).Path(where)
	if ok, _ := afero.Exists(c.FS, path); !ok {
		return
	}
	prev, err := pipeline.ReadPlan(c.FS, where)
	if err != nil {
		c.Logger.Warn("ignoring previous plan", "err", errors.UserMessage(err))
		return
	}
	c.Logger.Debug("previous plan", "path", path, "moves", prev.Moves(), "removals", prev.Removals())
}

// install runs the installer, with a spinner on interactive output.
func (c *CLI) install(ctx context.Context, in *pipeline.Installer, spin bool) (*pipeline.Result, error) {
	prog := newProgress(loggerFromContext(ctx))
	if !spin {
		result, err := in.Run(ctx)
		if err == nil {
			prog.done("Computed ideal tree", "moves", result.Plan.Moves(), "removals", result.Plan.Removals())
		}
		return result, err
	}

	s := newSpinnerWithContext(ctx, "Deduplicating "+in.Where+"...")
	observability.SetPipelineHooks(stageSpinner{s: s})
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})

	s.Start()
	result, err := in.Run(ctx)
	if err != nil {
		if s.Cancelled() {
			s.Stop()
			return nil, err
		}
		s.StopWithError(errors.UserMessage(err))
		return nil, err
	}
	s.Stop()
	prog.done("Computed ideal tree", "moves", result.Plan.Moves(), "removals", result.Plan.Removals())
	return result, nil
}

func (c *CLI) writeDiagrams(ctx context.Context, result *pipeline.Result, opts *dedupeOpts) error {
	if opts.dot == "" && opts.svg == "" {
		return nil
	}
	dot := nodelink.ToDOT(result.Ideal, nodelink.Options{Detailed: opts.detailed, Requires: opts.requires})

	if opts.dot != "" {
		if err := afero.WriteFile(c.FS, opts.dot, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.dot, err)
		}
		c.Logger.Debug("wrote diagram", "path", opts.dot)
	}
	if opts.svg != "" {
		svg, err := nodelink.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		if err := afero.WriteFile(c.FS, opts.svg, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.svg, err)
		}
		c.Logger.Debug("wrote diagram", "path", opts.svg)
	}
	return nil
}

// printPlan shows the outcome of a run on the terminal.
func printPlan(result *pipeline.Result, planPath string) {
	plan := result.Plan
	if plan.Empty() {
		printSuccess("No duplicates found")
	} else {
		printSuccess("Deduplicated %s", StyleHighlight.Render(plan.Where))
		for _, a := range plan.Actions {
			printAction(a)
		}
	}
	printDetail(formatStats(plan.Moves(), plan.Removals(), plan.Retained))

	for _, a := range plan.Anomalies {
		printWarning("skipped %s: %s", a.Path, a.Reason)
	}

	if result.Applied {
		printFile(planPath)
		return
	}
	printInfo("Dry run, nothing written")
	if !plan.Empty() {
		printNewline()
		printNextStep("Write the plan", appName+" dedupe -C "+plan.Where)
	}
}

func printAction(a dedupe.Action) {
	switch a.Kind {
	case dedupe.ActionMove:
		printDetail(formatMove(a.ID, a.To))
	case dedupe.ActionRemove:
		printDetail(formatRemove(a.ID, a.From))
	}
}

package pipeline

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/matzehuels/stacktrim/pkg/dedupe"
	"github.com/matzehuels/stacktrim/pkg/errors"
)

// PlanFile is the name of the plan a PlanWriter leaves in node_modules.
const PlanFile = ".stacktrim-plan.json"

// Plan is the ordered list of on-disk changes that turns the current tree
// into the ideal tree. Replaying Actions in order is safe: every path is
// the one in effect at that point.
type Plan struct {
	Where     string           `json:"where"`
	RunID     string           `json:"run_id,omitempty"`
	Actions   []dedupe.Action  `json:"actions"`
	Obsolete  []string         `json:"obsolete"`
	Retained  int              `json:"retained"`
	Anomalies []dedupe.Anomaly `json:"anomalies,omitempty"`
}

// NewPlan builds the plan of a run whose ideal tree is computed.
func NewPlan(run *Run) *Plan {
	p := &Plan{Where: run.Where, Actions: []dedupe.Action{}, Obsolete: []string{}}
	if run.Report != nil {
		p.RunID = run.Report.RunID
		p.Actions = append(p.Actions, run.Report.Actions...)
		p.Retained = run.Report.Retained
		p.Anomalies = run.Report.Anomalies
	}
	if run.Obsolete != nil {
		for _, n := range run.Obsolete.Nodes() {
			p.Obsolete = append(p.Obsolete, n.ID())
		}
	}
	return p
}

// Moves returns the number of move actions.
func (p *Plan) Moves() int { return p.count(dedupe.ActionMove) }

// Removals returns the number of remove actions.
func (p *Plan) Removals() int { return p.count(dedupe.ActionRemove) }

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool { return len(p.Actions) == 0 }

func (p *Plan) count(kind dedupe.ActionKind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Applier reconciles the disk with a plan.
type Applier interface {
	Apply(ctx context.Context, plan *Plan) error
}

// PlanWriter is an Applier that records the plan as JSON in the project's
// node_modules for the installer that performs the moves.
type PlanWriter struct {
	fs afero.Fs
}

// NewPlanWriter creates a PlanWriter on fs.
func NewPlanWriter(fs afero.Fs) *PlanWriter {
	return &PlanWriter{fs: fs}
}

// Path returns where the plan of the project at where is written.
func (w *PlanWriter) Path(where string) string {
	return filepath.Join(where, "node_modules", PlanFile)
}

func (w *PlanWriter) Apply(ctx context.Context, plan *Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeApply, err, "encode plan")
	}
	path := w.Path(plan.Where)
	if err := w.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeApply, err, "create %s", filepath.Dir(path))
	}
	if err := afero.WriteFile(w.fs, path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeApply, err, "write %s", path)
	}
	return nil
}

// ReadPlan loads a plan written by a PlanWriter.
func ReadPlan(fs afero.Fs, where string) (*Plan, error) {
	path := filepath.Join(where, "node_modules", PlanFile)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "read %s", path)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "decode %s", path)
	}
	return &p, nil
}

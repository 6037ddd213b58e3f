package dedupe

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/observability"
	"github.com/matzehuels/stacktrim/pkg/tree"
	"github.com/matzehuels/stacktrim/pkg/version"
)

// Oracle answers the compatibility and placement questions of the pass.
type Oracle interface {
	// FindRequirement returns the copy of name a requester at from would
	// load if it satisfies req, or nil.
	FindRequirement(from *tree.Node, name string, req *version.Requested) (*tree.Node, error)

	// EarliestInstallable returns the shallowest ancestor of from (inclusive)
	// node could be installed under, or nil.
	EarliestInstallable(requiredBy, from, node *tree.Node) (*tree.Node, error)
}

// Options configures an [Engine].
type Options struct {
	// Jobs bounds how many subtrees are processed at once. Zero means one,
	// which makes the pass fully deterministic.
	Jobs int

	// Logger receives per-node decisions at debug level and anomalies as
	// warnings. Defaults to log.Default().
	Logger *log.Logger
}

// Engine runs hoist passes. It keeps no state between passes.
type Engine struct {
	oracle Oracle
	marker tree.ObsoleteMarker
	opts   Options
}

// New creates an Engine. marker may be nil.
func New(oracle Oracle, marker tree.ObsoleteMarker, opts Options) *Engine {
	return &Engine{oracle: oracle, marker: marker, opts: opts}
}

// Hoist runs one pass over the tree under root, rewriting it in place.
//
// The root's own children are never moved or removed. The first error from
// the oracle aborts the pass; changes made up to that point are kept.
func (e *Engine) Hoist(ctx context.Context, root *tree.Node) (*Report, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil tree root")
	}
	if root.Parent != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hoist root %s has a parent", root.Path)
	}
	if e.oracle == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no oracle configured")
	}
	if e.opts.Jobs < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "jobs must not be negative, got %d", e.opts.Jobs)
	}

	jobs := max(e.opts.Jobs, 1)
	logger := e.opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	r := &run{
		engine:  e,
		ctx:     gctx,
		group:   g,
		logger:  logger,
		entered: make(map[string]bool),
		warned:  make(map[string]bool),
		report:  Report{RunID: uuid.NewString()},
	}
	r.logger = logger.With("run", r.report.RunID)

	g.Go(func() error { return r.hoist(root) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("hoist complete",
		"moved", r.report.Moves(), "removed", r.report.Removals(),
		"retained", r.report.Retained, "anomalies", len(r.report.Anomalies))
	return &r.report, nil
}

// run is the traversal state of a single pass.
type run struct {
	engine *Engine
	ctx    context.Context
	group  *errgroup.Group
	logger *log.Logger

	mu      sync.Mutex
	entered map[string]bool
	warned  map[string]bool
	report  Report
}

// hoist processes the children of n, then recurses into the ones that are
// still in the tree. Subtrees go to the errgroup when a slot is free and
// run inline otherwise, so the number of workers never exceeds Jobs.
func (r *run) hoist(n *tree.Node) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	next, err := r.enter(n)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	for _, c := range next {
		if r.group.TryGo(func() error { return r.hoist(c) }) {
			continue
		}
		if err := r.hoist(c); err != nil {
			return err
		}
	}
	return nil
}

// enter marks n as visited and decides the fate of each of its children.
// It returns the children to recurse into. Must be called with r.mu held.
func (r *run) enter(n *tree.Node) ([]*tree.Node, error) {
	if r.entered[n.Path] {
		r.anomaly(n.Path, "path already visited in this pass")
		return nil, nil
	}
	r.entered[n.Path] = true

	var next []*tree.Node
	for _, c := range orderSiblings(n.Children) {
		if c.Parent != n {
			r.anomaly(c.Path, "parent link does not point at "+n.Path)
			continue
		}
		if n.Parent == nil {
			next = append(next, c)
			continue
		}
		keep, err := r.evaluate(n, c)
		if err != nil {
			return nil, fmt.Errorf("hoist %s: %w", c.Path, err)
		}
		if keep {
			next = append(next, c)
		}
	}
	return next, nil
}

// evaluate removes, moves or retains child. It reports whether child is
// still part of the tree.
func (r *run) evaluate(parent, child *tree.Node) (bool, error) {
	id := child.ID()
	r.logger.Debug("hoisting", "package", id, "path", child.Path)

	specs, err := requestSpecs(child)
	if err != nil {
		return false, err
	}

	better, err := r.sharedCopy(parent, child, specs)
	if err != nil {
		return false, err
	}
	if better != nil {
		path := child.Path
		gone := tree.All(child)
		tree.Remove(child, r.engine.marker)
		tree.Redirect(child, better)
		for _, n := range gone {
			tree.Unlink(n)
		}
		r.report.Actions = append(r.report.Actions, Action{Kind: ActionRemove, ID: id, From: path})
		r.logger.Debug("removed duplicate", "package", id, "path", path, "kept", better.Path)
		observability.Dedupe().OnRemoved(r.ctx, id, path)
		return false, nil
	}

	to, err := r.placement(parent, child)
	if err != nil {
		return false, err
	}
	if to == nil || to == parent {
		r.report.Retained++
		return true, nil
	}

	from := child.Path
	tree.Move(child, to)
	tree.CarryDescendants(child)
	r.report.Actions = append(r.report.Actions, Action{Kind: ActionMove, ID: id, From: from, To: child.Path})
	r.logger.Debug("hoisted", "package", id, "from", from, "to", child.Path)
	observability.Dedupe().OnHoisted(r.ctx, id, from, child.Path)
	return true, nil
}

// sharedCopy returns the node every spec resolves to from parent with child
// hidden, or nil if any spec resolves nowhere or two specs disagree.
func (r *run) sharedCopy(parent, child *tree.Node, specs []*version.Requested) (*tree.Node, error) {
	child.Removed = true
	defer func() { child.Removed = false }()

	var found *tree.Node
	for _, spec := range specs {
		n, err := r.engine.oracle.FindRequirement(parent, child.Name, spec)
		if err != nil {
			return nil, err
		}
		if n == nil || (found != nil && n != found) {
			return nil, nil
		}
		found = n
	}
	return found, nil
}

func (r *run) placement(parent, child *tree.Node) (*tree.Node, error) {
	child.Removed = true
	defer func() { child.Removed = false }()
	return r.engine.oracle.EarliestInstallable(parent, parent, child)
}

// anomaly logs a skipped branch once per path. Must be called with r.mu held.
func (r *run) anomaly(path, reason string) {
	if r.warned[path] {
		return
	}
	r.warned[path] = true
	r.report.Anomalies = append(r.report.Anomalies, Anomaly{Path: path, Reason: reason})
	r.logger.Warn("skipping inconsistent branch", "path", path, "reason", reason)
	observability.Dedupe().OnAnomaly(r.ctx, path, reason)
}

// requestSpecs returns the specifiers child has to keep satisfying: the
// ranges its requesters declare, else the one it was installed for, else its
// exact version.
func requestSpecs(child *tree.Node) ([]*version.Requested, error) {
	var specs []*version.Requested
	for _, req := range child.RequiredBy {
		raw, ok := req.Requirement(child.Name)
		if !ok {
			continue
		}
		spec, err := version.Parse(child.Name, raw)
		if err != nil {
			return nil, fmt.Errorf("requirement of %s: %w", req.ID(), err)
		}
		specs = append(specs, spec)
	}
	if len(specs) > 0 {
		return specs, nil
	}
	if child.Package != nil && child.Package.Requested != nil {
		return []*version.Requested{child.Package.Requested}, nil
	}
	spec, err := version.Exact(child.Name, child.Version())
	if err != nil {
		return nil, err
	}
	return []*version.Requested{spec}, nil
}

// orderSiblings returns children with every sibling a child depends on
// placed before it, keeping the original order otherwise. Repeated entries
// appear once.
func orderSiblings(children []*tree.Node) []*tree.Node {
	children = slices.Clone(children)
	byName := make(map[string]*tree.Node, len(children))
	for _, c := range children {
		if _, ok := byName[c.Name]; !ok {
			byName[c.Name] = c
		}
	}

	ordered := make([]*tree.Node, 0, len(children))
	visited := make(map[*tree.Node]bool, len(children))
	var visit func(*tree.Node)
	visit = func(c *tree.Node) {
		if visited[c] {
			return
		}
		visited[c] = true
		for _, dep := range c.DependencyNames() {
			if s, ok := byName[dep]; ok {
				visit(s)
			}
		}
		ordered = append(ordered, c)
	}
	for _, c := range children {
		visit(c)
	}
	return ordered
}

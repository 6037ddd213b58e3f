package resolve

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/tree"
	"github.com/matzehuels/stacktrim/pkg/version"
)

// RecalculateMetadata rebuilds the logical graph of the tree under root from
// its current shape: Requires/RequiredBy edges, Missing dependencies, the
// Extraneous flag and IsTop. A node's Package.Requested is filled from the
// first requester that resolves to it when it was not known yet.
//
// It fails on a node without package data or with an unparseable declared
// dependency; the tree may then be partially linked.
func (r *Resolver) RecalculateMetadata(ctx context.Context, root *tree.Node, logger *log.Logger) error {
	if root == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil tree root")
	}
	if logger == nil {
		logger = log.Default()
	}

	nodes := tree.All(root)
	for _, n := range nodes {
		n.Requires = nil
		n.RequiredBy = nil
		n.Missing = nil
		n.Extraneous = false
		n.IsTop = n == root
	}

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.Package == nil {
			return errors.New(errors.ErrCodeMetadata, "no package data for %s", n.Path)
		}
		if err := r.linkDependencies(n, logger); err != nil {
			return err
		}
	}

	for _, n := range nodes {
		if n != root && len(n.RequiredBy) == 0 {
			n.Extraneous = true
		}
	}
	return nil
}

func (r *Resolver) linkDependencies(n *tree.Node, logger *log.Logger) error {
	for _, dep := range n.DependencyNames() {
		raw, _ := n.Requirement(dep)
		req, err := version.Parse(dep, raw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeMetadata, err, "dependency %s of %s", dep, n.ID())
		}
		found, err := r.FindRequirement(n, dep, req)
		if err != nil {
			return errors.Wrap(errors.ErrCodeMetadata, err, "resolve %s from %s", dep, n.Path)
		}
		if found == nil {
			if isOptionalOnly(n.Package, dep) {
				continue
			}
			if n.Missing == nil {
				n.Missing = make(map[string]string)
			}
			n.Missing[dep] = raw
			logger.Debug("missing dependency", "package", n.ID(), "dependency", dep, "range", raw)
			continue
		}
		link(n, found)
		if found.Package.Requested == nil {
			found.Package.Requested = req
		}
	}
	return nil
}

func link(from, to *tree.Node) {
	if !slices.Contains(from.Requires, to) {
		from.Requires = append(from.Requires, to)
	}
	if !slices.Contains(to.RequiredBy, from) {
		to.RequiredBy = append(to.RequiredBy, from)
	}
}

func isOptionalOnly(pkg *tree.Package, name string) bool {
	if _, ok := pkg.Dependencies[name]; ok {
		return false
	}
	_, ok := pkg.OptionalDependencies[name]
	return ok
}

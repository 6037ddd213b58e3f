package resolve

import (
	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/tree"
	"github.com/matzehuels/stacktrim/pkg/version"
)

// Options tunes placement the way npm's install flags do.
type Options struct {
	// GlobalStyle keeps packages under the top-level dependency that pulled
	// them in instead of hoisting to the project root.
	GlobalStyle bool

	// LegacyBundling disables hoisting altogether.
	LegacyBundling bool
}

// Resolver implements the compatibility and placement queries.
// It holds no per-tree state and is safe to share.
type Resolver struct {
	opts Options
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// FindRequirement returns the node a requester at from would load for name,
// provided it satisfies req. The walk goes up one ancestor at a time. At each
// level, if that node is itself the package it answers; otherwise the first
// non-removed child called name answers. A copy that does not satisfy req
// shadows anything further up, so the result is nil. The walk stops at the
// top node.
func (r *Resolver) FindRequirement(from *tree.Node, name string, req *version.Requested) (*tree.Node, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeResolve, "no requested specifier for %s at %s", name, from.Path)
	}
	for t := from; t != nil; t = t.Parent {
		if t.Name == name && t.Parent != nil && !t.Removed {
			if matches(t, req) {
				return t, nil
			}
			return nil, nil
		}
		found := false
		for _, c := range t.Children {
			if c.Name != name || c.Removed {
				continue
			}
			found = true
			if matches(c, req) {
				return c, nil
			}
		}
		if found || t.IsTop {
			return nil, nil
		}
	}
	return nil, nil
}

// EarliestInstallable returns the shallowest node at or above from under
// which node could be installed, or nil if it cannot live under from at all.
// requiredBy is where node is wanted; its own declaration of node's name does
// not count as a conflict.
func (r *Resolver) EarliestInstallable(requiredBy, from, node *tree.Node) (*tree.Node, error) {
	if node.Package == nil {
		return nil, errors.New(errors.ErrCodeResolve, "no package data for %s", node.Path)
	}
	ok, err := r.installableAt(requiredBy, from, node)
	if err != nil || !ok {
		return nil, err
	}

	switch {
	case from.IsTop || from.Parent == nil:
		return from, nil
	case r.opts.LegacyBundling:
		return from, nil
	case r.opts.GlobalStyle && from.Parent.IsTop:
		return from, nil
	}

	up, err := r.EarliestInstallable(requiredBy, from.Parent, node)
	if err != nil {
		return nil, err
	}
	if up != nil {
		return up, nil
	}
	return from, nil
}

func (r *Resolver) installableAt(requiredBy, t, node *tree.Node) (bool, error) {
	name := node.Name
	pkg := node.Package

	if t.Child(name) != nil {
		return false, nil
	}
	// FindRequirement answers name with t itself for everything below t.
	if t.Name == name && t.Parent != nil {
		return false, nil
	}
	if binConflict(t, pkg) {
		return false, nil
	}

	// If this location declared the package itself, the copy it resolves is
	// already known not to be this one, or FindRequirement would have found it.
	if t.Package != nil && !t.Removed && requiredBy != t {
		if _, ok := t.Package.Dependencies[name]; ok {
			return false, nil
		}
	}

	if t.IsTop && t.Package != nil {
		if raw, ok := t.Package.DevDependencies[name]; ok {
			req, err := version.Parse(name, raw)
			if err != nil {
				return false, errors.Wrap(errors.ErrCodeResolve, err, "devDependency %s of %s", name, t.Path)
			}
			if !version.Satisfies(pkg.Version, pkg.Requested, req) {
				return false, nil
			}
		}
	}

	if t == requiredBy {
		return true, nil
	}
	if shadows(t, node) {
		return false, nil
	}
	return keepsOwnDependencies(t, node)
}

// shadows reports whether installing node under t would hide a copy further
// up from one of its requesters living below t.
func shadows(t, node *tree.Node) bool {
	if t.Parent == nil {
		return false
	}
	above := lookup(t.Parent, node.Name)
	if above == nil {
		return false
	}
	for _, req := range above.RequiredBy {
		if req == t || tree.HasAncestor(req, t) {
			return true
		}
	}
	return false
}

// keepsOwnDependencies reports whether every dependency node resolves from
// outside its own subtree would, with node installed under t, still resolve
// to the same copy or to one satisfying node's declared range.
func keepsOwnDependencies(t, node *tree.Node) (bool, error) {
	if node.Parent == nil {
		return true, nil
	}
	for _, dep := range node.DependencyNames() {
		if dep == node.Name || node.Child(dep) != nil {
			continue
		}
		current := lookup(node.Parent, dep)
		if current == nil {
			continue
		}
		candidate := lookup(t, dep)
		if candidate == current {
			continue
		}
		if candidate == nil {
			return false, nil
		}
		raw, _ := node.Requirement(dep)
		req, err := version.Parse(dep, raw)
		if err != nil {
			return false, errors.Wrap(errors.ErrCodeResolve, err, "dependency %s of %s", dep, node.ID())
		}
		if !matches(candidate, req) {
			return false, nil
		}
	}
	return true, nil
}

// lookup returns the first non-removed child named name found walking up
// from n, i.e. the copy a package installed under n would load.
func lookup(n *tree.Node, name string) *tree.Node {
	for t := n; t != nil; t = t.Parent {
		if c := t.Child(name); c != nil {
			return c
		}
	}
	return nil
}

func binConflict(t *tree.Node, pkg *tree.Package) bool {
	if len(pkg.Bin) == 0 {
		return false
	}
	for _, c := range t.Children {
		if c.Removed || c.Package == nil {
			continue
		}
		for bin := range c.Package.Bin {
			if _, ok := pkg.Bin[bin]; ok {
				return true
			}
		}
	}
	return false
}

func matches(n *tree.Node, req *version.Requested) bool {
	if n.Package == nil {
		return false
	}
	return version.Satisfies(n.Package.Version, n.Package.Requested, req)
}

package resolve

import (
	"context"

	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/tree"
	"github.com/matzehuels/stacktrim/pkg/version"
)

// Tracker receives progress for long-running tree stages.
type Tracker interface {
	AddWork(n int)
	CompleteWork(n int)
}

// LoadExtraneous brings every node of the tree that has not been loaded yet
// into the ideal tree: it is flagged Loaded and, if the specifier it was
// installed for is unknown, one is derived from the parent's declaration or,
// failing that, from the exact installed version.
//
// tracker may be nil.
func LoadExtraneous(ctx context.Context, root *tree.Node, tracker Tracker) error {
	if root == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil tree root")
	}

	var pending []*tree.Node
	tree.Walk(root, func(n *tree.Node) bool {
		if !n.Loaded {
			pending = append(pending, n)
		}
		return true
	})
	if tracker != nil {
		tracker.AddWork(len(pending))
	}

	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.Package == nil {
			return errors.New(errors.ErrCodeLoad, "no package data for %s", n.Path)
		}
		if n.Parent != nil && n.Package.Requested == nil {
			req, err := requestedFor(n)
			if err != nil {
				return errors.Wrap(errors.ErrCodeLoad, err, "load %s", n.Path)
			}
			n.Package.Requested = req
		}
		n.Loaded = true
		if tracker != nil {
			tracker.CompleteWork(1)
		}
	}
	return nil
}

func requestedFor(n *tree.Node) (*version.Requested, error) {
	if raw, ok := n.Parent.Requirement(n.Name); ok {
		return version.Parse(n.Name, raw)
	}
	return version.Exact(n.Name, n.Package.Version)
}

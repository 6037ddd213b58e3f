package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrParentMismatch is returned by [Validate] when a child's Parent does
	// not point back at the node listing it.
	ErrParentMismatch = errors.New("child parent link does not match")

	// ErrBadPath is returned by [Validate] when a node's Path is not the
	// join of its parent's path and its name.
	ErrBadPath = errors.New("path does not match parent path")

	// ErrCycle is returned by [Validate] when a node is reachable twice.
	ErrCycle = errors.New("node reachable more than once")

	// ErrNotRoot is returned by [Validate] when the start node has a parent.
	ErrNotRoot = errors.New("tree root has a parent")
)

// Walk calls fn for n and every node below it, depth first, parents before
// children. Returning false from fn skips that node's subtree. Each node is
// visited at most once, so malformed trees terminate.
func Walk(n *Node, fn func(*Node) bool) {
	walk(n, make(map[*Node]bool), fn)
}

func walk(n *Node, seen map[*Node]bool, fn func(*Node) bool) {
	if seen[n] {
		return
	}
	seen[n] = true
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, seen, fn)
	}
}

// All returns n and every node below it in Walk order.
func All(n *Node) []*Node {
	var nodes []*Node
	Walk(n, func(c *Node) bool {
		nodes = append(nodes, c)
		return true
	})
	return nodes
}

// HasAncestor reports whether a is a proper ancestor of n.
func HasAncestor(n, a *Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of the tree under root: it is
// single-rooted and acyclic, Parent/Children agree, and every path is derived
// from its parent's path.
func Validate(root *Node) error {
	if root.Parent != nil {
		return fmt.Errorf("%w: %s", ErrNotRoot, root.Path)
	}
	seen := make(map[*Node]bool)
	var check func(*Node) error
	check = func(n *Node) error {
		if seen[n] {
			return fmt.Errorf("%w: %s", ErrCycle, n.Path)
		}
		seen[n] = true
		for _, c := range n.Children {
			if c.Parent != n {
				return fmt.Errorf("%w: %s", ErrParentMismatch, c.Path)
			}
			if want := ChildPath(n.Path, c.Name); c.Path != want {
				return fmt.Errorf("%w: %s (want %s)", ErrBadPath, c.Path, want)
			}
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	return check(root)
}

// Clone deep-copies the tree under root. Package records are copied by value
// so per-copy fields (Requested) can diverge; dependency maps are shared.
// Logical edges are not copied.
func Clone(root *Node) *Node {
	return clone(root, nil, make(map[*Node]bool))
}

func clone(n, parent *Node, seen map[*Node]bool) *Node {
	seen[n] = true
	c := &Node{
		Name:       n.Name,
		Path:       n.Path,
		FromPath:   n.FromPath,
		Parent:     parent,
		IsTop:      n.IsTop,
		Loaded:     n.Loaded,
		Extraneous: n.Extraneous,
	}
	if n.Package != nil {
		pkg := *n.Package
		c.Package = &pkg
	}
	for _, child := range n.Children {
		if seen[child] {
			continue
		}
		c.Children = append(c.Children, clone(child, c, seen))
	}
	return c
}

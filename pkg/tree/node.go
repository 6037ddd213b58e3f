package tree

import (
	"github.com/matzehuels/stacktrim/pkg/version"
)

// Package is the identity and constraint metadata read from a package.json.
type Package struct {
	Name                 string
	Version              string
	Dependencies         map[string]string
	DevDependencies      map[string]string
	OptionalDependencies map[string]string
	PeerDependencies     map[string]string
	Bin                  map[string]string

	// Requested is the specifier this copy was installed for, if known.
	Requested *version.Requested
}

// Node is one installed package location.
type Node struct {
	Name     string
	Path     string
	FromPath string // path before the most recent Move
	Parent   *Node
	Children []*Node
	Package  *Package

	// Removed hides the node from compatibility queries while the node itself
	// is being evaluated.
	Removed bool

	IsTop      bool
	Loaded     bool
	Obsolete   bool
	Extraneous bool

	Requires   []*Node
	RequiredBy []*Node
	// Missing lists declared dependencies nothing in the tree resolves,
	// name -> requested range.
	Missing map[string]string
}

// NewRoot creates a root node for the project at dir.
func NewRoot(dir string, pkg *Package) *Node {
	name := ""
	if pkg != nil {
		name = pkg.Name
	}
	return &Node{Name: name, Path: dir, Package: pkg, IsTop: true}
}

// AddChild creates a node for pkg under parent and returns it.
// The child's name is the package name.
func AddChild(parent *Node, pkg *Package) *Node {
	child := &Node{Name: pkg.Name, Package: pkg, Parent: parent}
	child.Path = ChildPath(parent.Path, child.Name)
	parent.Children = append(parent.Children, child)
	return child
}

// ID returns "name@version" for the node's package.
func (n *Node) ID() string {
	if n.Package == nil {
		return n.Name
	}
	return PackageID(n.Name, n.Package.Version)
}

// Version returns the installed version, or "" without package data.
func (n *Node) Version() string {
	if n.Package == nil {
		return ""
	}
	return n.Package.Version
}

// Child returns the first child named name that is not flagged Removed.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name && !c.Removed {
			return c
		}
	}
	return nil
}

// Requirement returns the range n declares for the dependency name, looking
// at dependencies, optionalDependencies and, for the top node only,
// devDependencies. The second result is false when n does not depend on name.
func (n *Node) Requirement(name string) (string, bool) {
	if n.Package == nil {
		return "", false
	}
	if spec, ok := n.Package.Dependencies[name]; ok {
		return spec, true
	}
	if spec, ok := n.Package.OptionalDependencies[name]; ok {
		return spec, true
	}
	if n.IsTop {
		if spec, ok := n.Package.DevDependencies[name]; ok {
			return spec, true
		}
	}
	return "", false
}

// DependencyNames returns the names of every dependency n declares, in the
// same precedence order as Requirement, without duplicates.
func (n *Node) DependencyNames() []string {
	if n.Package == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	add := func(m map[string]string) {
		for _, name := range sortedKeys(m) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	add(n.Package.Dependencies)
	add(n.Package.OptionalDependencies)
	if n.IsTop {
		add(n.Package.DevDependencies)
	}
	return names
}

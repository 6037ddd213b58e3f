package tree

import "slices"

// ObsoleteMarker records that a node is going away so a later install step
// can delete it from disk.
type ObsoleteMarker interface {
	MarkObsolete(n *Node)
}

// Move detaches node from its parent, appends it to newParent's children and
// recomputes its path, keeping the previous one in FromPath.
//
// newParent must not be node or one of its descendants; Move does not check.
// Paths below node are stale afterwards, see CarryDescendants.
func Move(node, newParent *Node) {
	if node.Parent != nil {
		node.Parent.Children = without(node.Parent.Children, node)
	}
	newParent.Children = append(newParent.Children, node)
	node.FromPath = node.Path
	node.Path = ChildPath(newParent.Path, node.Name)
	node.Parent = newParent
}

// Remove marks node obsolete and detaches it and every descendant from the
// tree. Nodes already detached during this call, keyed by path, are skipped.
func Remove(node *Node, marker ObsoleteMarker) {
	if marker != nil {
		marker.MarkObsolete(node)
	}
	detach(node, make(map[string]bool))
}

func detach(node *Node, seen map[string]bool) {
	if seen[node.Path] {
		return
	}
	seen[node.Path] = true
	if node.Parent != nil {
		node.Parent.Children = without(node.Parent.Children, node)
		node.Parent = nil
	}
	for _, child := range slices.Clone(node.Children) {
		detach(child, seen)
	}
}

// CarryDescendants recomputes the paths of everything below node after node
// itself moved. Nodes whose path changes get their old path in FromPath;
// nodes already at the right place are left alone. Only children whose
// Parent is the node listing them are followed.
func CarryDescendants(node *Node) {
	carry(node, map[*Node]bool{node: true})
}

func carry(node *Node, seen map[*Node]bool) {
	for _, child := range node.Children {
		if child.Parent != node || seen[child] {
			continue
		}
		seen[child] = true
		if p := ChildPath(node.Path, child.Name); p != child.Path {
			child.FromPath = child.Path
			child.Path = p
		}
		carry(child, seen)
	}
}

// Redirect hands every requester of from over to to: each requester now
// requires to instead of from.
func Redirect(from, to *Node) {
	for _, req := range from.RequiredBy {
		req.Requires = without(req.Requires, from)
		if !slices.Contains(req.Requires, to) {
			req.Requires = append(req.Requires, to)
		}
		if !slices.Contains(to.RequiredBy, req) {
			to.RequiredBy = append(to.RequiredBy, req)
		}
	}
	from.RequiredBy = nil
}

// Unlink drops the requirement edges going out of n, so the nodes n
// required no longer list it as a requester.
func Unlink(n *Node) {
	for _, dep := range n.Requires {
		dep.RequiredBy = without(dep.RequiredBy, n)
	}
	n.Requires = nil
}

func without(nodes []*Node, n *Node) []*Node {
	return slices.DeleteFunc(slices.Clone(nodes), func(c *Node) bool { return c == n })
}

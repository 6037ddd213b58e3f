package resolve

import (
	"slices"
	"sync"

	"github.com/matzehuels/stacktrim/pkg/tree"
)

// ObsoleteList is a [tree.ObsoleteMarker] that flags nodes Obsolete and keeps
// them in the order they were marked.
type ObsoleteList struct {
	mu    sync.Mutex
	nodes []*tree.Node
}

// MarkObsolete flags n and records it. Marking a node twice records it once.
func (l *ObsoleteList) MarkObsolete(n *tree.Node) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n.Obsolete {
		return
	}
	n.Obsolete = true
	l.nodes = append(l.nodes, n)
}

// Nodes returns the marked nodes in marking order.
func (l *ObsoleteList) Nodes() []*tree.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.nodes)
}

// Len returns the number of marked nodes.
func (l *ObsoleteList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.nodes)
}

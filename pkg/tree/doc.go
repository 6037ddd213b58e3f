// Package tree models an installed package tree: one [Node] per package
// location under node_modules, linked by owning Children slices and
// non-owning Parent back-references.
//
// # Structure
//
// Every node's Path is the join of its parent's Path, "node_modules" and its
// own Name (see [ChildPath]). The root has no parent and keeps the project
// directory as its path. Parent and Children are kept mutually consistent by
// the mutation primitives:
//
//   - [Move] relocates a node under a new parent and records the old location
//     in FromPath. Descendant paths are left stale until [CarryDescendants].
//   - [Remove] marks a node obsolete through an [ObsoleteMarker] and detaches
//     it together with its whole subtree.
//
// Logical edges (Requires / RequiredBy) are maintained separately by the
// metadata pass in package resolve and are not touched by Move.
//
// # Concurrency
//
// A tree is a single shared mutable structure and is not safe for concurrent
// use. Callers that fan out over children must serialize mutations.
package tree

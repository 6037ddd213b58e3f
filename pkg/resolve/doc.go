// Package resolve answers the questions the dedupe pass asks about an
// installed tree, and rebuilds the logical dependency edges around it.
//
// [Resolver.FindRequirement] follows node's module resolution: starting at a
// node it looks at each ancestor's node_modules in turn and reports the copy
// a requester would load, or nil if that copy does not satisfy the request.
//
// [Resolver.EarliestInstallable] reports the shallowest ancestor a package
// could be installed under without colliding with a different copy, a
// conflicting bin, an ancestor's own declaration, or changing what any
// existing node resolves.
//
// Nodes flagged Removed are invisible to both queries.
package resolve

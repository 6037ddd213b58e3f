// Package dedupe flattens an installed dependency tree.
//
// [Engine.Hoist] visits every package below the root. A package whose
// requesters can all be served by a single copy further up is removed and
// its requesters are pointed at that copy. Otherwise it is moved to the
// shallowest ancestor it can be installed under, and its own children are
// then processed at the new location.
//
// Each node is handled in two phases. First every child is evaluated, with
// siblings a package depends on evaluated before the package itself. Then
// the surviving children are recursed into, concurrently up to
// [Options.Jobs]. All reads and writes of the tree happen under a single
// lock held by the run; only the recursion is concurrent.
//
// The pass never downloads or resolves anything new. Compatibility and
// placement questions are delegated to an [Oracle], usually a
// [github.com/matzehuels/stacktrim/pkg/resolve.Resolver].
package dedupe

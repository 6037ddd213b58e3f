// Package pkg provides the core libraries for Stacktrim.
//
// # Overview
//
// Stacktrim deduplicates an installed node_modules tree. It reads what is on
// disk, rebuilds the tree in memory, moves every package as close to the
// project root as its requirements allow, and removes copies a compatible
// copy further up makes redundant. The pkg directory is organized as:
//
//  1. [tree] - The in-memory install tree and its primitive mutations
//  2. [version] - Requested specifiers and version matching
//  3. [resolve] - Requirement lookup, placement and metadata relinking
//  4. [dedupe] - The hoist pass
//  5. [installed] - Reading node_modules from a filesystem
//  6. [pipeline] - Orchestration (load → ideal tree → plan → apply)
//  7. [render/nodelink] - DOT and SVG diagrams of a tree
//
// # Architecture
//
// The typical data flow through Stacktrim:
//
//	node_modules on disk
//	         ↓
//	    [installed] package (current tree)
//	         ↓
//	    [resolve] package (requirement edges, missing and extraneous)
//	         ↓
//	    [dedupe] package (hoist and remove duplicates)
//	         ↓
//	    [pipeline] package (ordered plan of moves and removals)
//
// # Quick Start
//
// Compute what a dedupe would change without writing anything:
//
//	in := &pipeline.Installer{
//	    Where:    "/path/to/project",
//	    DryRun:   true,
//	    Strategy: pipeline.NewDeduper(resolve.Options{}, 1),
//	}
//	result, err := in.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, a := range result.Plan.Actions {
//	    fmt.Println(a.Kind, a.ID, a.From, a.To)
//	}
//
// # Supporting Packages
//
//   - [errors] - Coded errors shared by every package
//   - [observability] - Stage and hoist hooks for progress reporting
//   - [buildinfo] - Version information set at build time
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/tree
// [version]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/version
// [resolve]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/resolve
// [dedupe]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/dedupe
// [installed]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/installed
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/pipeline
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/render/nodelink
// [errors]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/stacktrim/pkg/buildinfo
package pkg

package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stacktrim/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the install path and, for hoisted nodes, the previous
	// path to each label. When false, only name@version is shown.
	Detailed bool

	// Requires draws the logical requirement edges as dashed arrows in
	// addition to the nesting edges.
	Requires bool
}

// ToDOT converts an installed tree to Graphviz DOT format. Solid edges are
// node_modules nesting. The resulting DOT string can be rendered using
// [RenderSVG].
//
// Hoisted nodes are filled light blue, extraneous ones grey with dashed
// outlines.
func ToDOT(root *tree.Node, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	nodes := tree.All(root)
	for _, n := range nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Path, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, c := range n.Children {
			if c.Parent == n {
				fmt.Fprintf(&buf, "  %q -> %q;\n", n.Path, c.Path)
			}
		}
	}
	if opts.Requires {
		for _, n := range nodes {
			for _, dep := range n.Requires {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey40, constraint=false];\n", n.Path, dep.Path)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *tree.Node, detailed bool) string {
	label := n.ID()
	if n.Parent == nil && label == "" {
		label = n.Path
	}
	if !detailed {
		return label
	}
	parts := []string{label, n.Path}
	if n.FromPath != "" && n.FromPath != n.Path {
		parts = append(parts, "from: "+n.FromPath)
	}
	if len(n.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing: %d", len(n.Missing)))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *tree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.Extraneous:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case n.FromPath != "" && n.FromPath != n.Path:
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

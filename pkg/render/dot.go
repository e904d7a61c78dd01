// Package render draws resolved dependency closures as graphs.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/cinchproject/jpm/pkg/catalog"
	"github.com/cinchproject/jpm/pkg/resolve"
)

// ClosureDOT converts a resolved closure to Graphviz DOT. Nodes are the
// closure's plugins labeled with their resolved versions; edges are the
// catalog's dependency declarations restricted to plugins inside the closure.
// The output can be rendered with [SVG].
func ClosureDOT(closure resolve.Closure, cat *catalog.Catalog) string {
	inClosure := make(map[string]string, len(closure)) // key -> node ID
	for _, ref := range closure {
		inClosure[ref.Key()] = ref.Name
	}

	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, ref := range closure {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", ref.Name, ref.Name+"\n"+ref.Version)
	}

	buf.WriteString("\n")
	for _, ref := range closure {
		deps, ok := cat.DependenciesOf(ref.Name)
		if !ok {
			continue
		}
		for _, dep := range deps {
			to, ok := inClosure[dep.Key()]
			if !ok {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", ref.Name, to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// SVG renders a DOT graph to SVG bytes using Graphviz.
func SVG(ctx context.Context, dot string) ([]byte, error) {
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
	return buf.Bytes(), nil
}

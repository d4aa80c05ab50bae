package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
)

// RootID is the DOT identifier of the tree root.
const RootID = "root"

// Options configures node-link diagram generation.
type Options struct {
	// Aggregate reduces the measurements below each node.
	Aggregate aggregate.Aggregate

	// Detailed adds the aggregated value to every node label.
	// When false, only the display value is shown.
	Detailed bool
}

// node is one distinct path prefix.
type node struct {
	id     string
	label  string
	parent string
	values []float64
}

// ToDOT collapses the display paths of src into a tree and returns it as
// Graphviz DOT. The root is labelled with the aggregated measurement,
// outermost display values hang below it and primary values are the
// leaves. Siblings appear in native value order.
func ToDOT(src dataset.Source, opts Options) (string, error) {
	if _, err := opts.Aggregate.MarshalText(); err != nil {
		return "", err
	}

	type path struct {
		tuple  []any
		values []float64
	}
	paths := map[string]*path{}
	var order []string

	for i := range src.Len() {
		obs, err := src.Observation(i)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "observation %d", i)
		}
		tuple := slices.Clone(obs.Display)
		slices.Reverse(tuple)
		key := pathKey(tuple, len(tuple))
		p, ok := paths[key]
		if !ok {
			p = &path{tuple: tuple}
			paths[key] = p
			order = append(order, key)
		}
		p.values = append(p.values, obs.Value)
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return dataset.CompareTuples(paths[a].tuple, paths[b].tuple)
	})

	root := &node{id: RootID, label: fmt.Sprintf("%s(%s)", opts.Aggregate, src.ValueHeader())}
	nodes := []*node{root}
	byKey := map[string]*node{}
	for _, key := range order {
		p := paths[key]
		root.values = append(root.values, p.values...)
		parent := RootID
		for depth := 1; depth <= len(p.tuple); depth++ {
			prefix := pathKey(p.tuple, depth)
			n, ok := byKey[prefix]
			if !ok {
				n = &node{
					id:     "n" + strconv.Itoa(len(nodes)-1),
					label:  dataset.Format(p.tuple[depth-1]),
					parent: parent,
				}
				byKey[prefix] = n
				nodes = append(nodes, n)
			}
			n.values = append(n.values, p.values...)
			parent = n.id
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.id, fmtLabel(n, opts))
	}

	buf.WriteString("\n")
	for _, n := range nodes[1:] {
		fmt.Fprintf(&buf, "  %q -> %q;\n", n.parent, n.id)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func fmtLabel(n *node, opts Options) string {
	if !opts.Detailed {
		return n.label
	}
	return n.label + "\n[" + aggregate.MinimalPrecision(opts.Aggregate.Apply(n.values)) + "]"
}

// pathKey joins the string projections of the first depth values, each
// terminated by ';'.
func pathKey(tuple []any, depth int) string {
	var b strings.Builder
	for _, v := range tuple[:depth] {
		b.WriteString(dataset.Format(v))
		b.WriteByte(';')
	}
	return b.String()
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
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
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

// normalizeViewBox rewrites the root element so the drawing scales from
// the origin.
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

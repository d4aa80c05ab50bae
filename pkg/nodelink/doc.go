// Package nodelink exports the collapsed path tree of a chart as a
// node-link diagram.
//
// # Overview
//
// The text charts fold shared ancestors into one label per group. This
// package draws the same grouping as a Graphviz tree: the root carries the
// measurement header, outermost display values branch off it and primary
// values are the leaves.
//
// # Usage
//
//	dot, err := nodelink.ToDOT(view, nodelink.Options{Detailed: true})
//	if err != nil {
//	    return err
//	}
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Grouping
//
// Paths are grouped by the string form of their values, exactly like the
// text charts, so 1 and "1" land on the same node.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink

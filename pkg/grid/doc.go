// Package grid lays out rows of typed cells as aligned text lines.
//
// # Overview
//
// A [Grid] is a fixed list of [Column]s plus rows of [Cell]s. Text cells
// size their column; value cells become runs of glyphs whose length is
// proportional to the value. [Render] turns a grid into a [Flat] in two
// passes:
//
//  1. Text columns take the width of their widest cell. An [Overflow]
//     label may spill over the [Skip] cells following it; when it does
//     not fit, the last spanned column is widened.
//  2. Whatever is left of [Options.Width] is split across value columns
//     (at least two characters each). One glyph stands for
//     ceil(max|v| / budget) units, never less than one.
//
// Non-negative values draw [Glyph], negative values draw [NegativeGlyph].
// [Plain] cells are appended verbatim and never affect column widths,
// which makes them suitable for trailing headers.
//
// # Usage
//
//	var cols grid.Columns
//	cols.Text(grid.Left)
//	cols.Text(grid.Left)
//	cols.Value(grid.Left)
//
//	g := grid.New(cols)
//	g.Add(grid.Row{grid.Text("shark"), grid.Text(" |"), grid.Value(2)})
//	g.Add(grid.Row{grid.Text("tiger"), grid.Text(" |"), grid.Value(3)})
//
//	flat, err := grid.Render(g, valueRange, grid.Options{Width: 80})
//	fmt.Println(flat)
//	// shark |**
//	// tiger |***
package grid

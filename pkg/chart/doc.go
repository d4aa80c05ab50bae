// Package chart renders datasets as fixed-width text charts.
//
// # Overview
//
// Every chart is a grid of labels followed by a "|" delimiter and one bar
// per group. Four kinds are supported:
//
//   - [Bar]: one bar per distinct display path.
//   - [Dag]: like Bar, with optional "[value]" annotations on every
//     collapsed ancestor.
//   - [Path]: the display paths as an indented tree.
//   - [Histogram]: one bar per bin of a numeric primary column.
//
// Bars are drawn with "*" for non-negative and "⊖" for negative values.
// When the largest value does not fit the line width, every glyph stands
// for several units; [grid.Flat.Units] reports how many.
//
// # Usage
//
//	d, _ := dataset.New("animal")
//	d.Add("whale")
//	d.Add("shark")
//	view, _ := d.Counting()
//
//	flat, err := chart.Bar(view, chart.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(flat)
//
// Options are shared by every kind; zero values take the Default*
// constants.
package chart

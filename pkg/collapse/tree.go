package collapse

import (
	"slices"
	"strings"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/grid"
)

// indent is the per-level indentation of tree rows.
const indent = 2

// Tree lays out the display paths as a directory listing: primary values
// at the root, each deeper display column one level further in. Children
// are listed in string order. Only root rows carry bars.
func Tree(src dataset.Source, opts Options) (*grid.Grid, aggregate.Range, error) {
	var r aggregate.Range

	acc, err := accumulate(src, opts)
	if err != nil {
		return nil, r, err
	}

	bars := &barSection{
		acc:      acc,
		agg:      opts.Aggregate,
		show:     opts.ShowAggregate,
		brackets: opts.ShowAggregate || opts.ShowAncestorAggregate,
	}
	var cols grid.Columns
	cols.Text(grid.Left)
	bars.columns(&cols)

	g := grid.New(cols)
	for _, row := range bars.preHeaders() {
		if err := g.Add(row); err != nil {
			return nil, r, err
		}
	}

	names := make([]string, len(acc.headers))
	for i, h := range acc.headers {
		names[i] = "/" + h
	}
	header := append(grid.Row{grid.Text(strings.Join(names, " "))}, bars.header()...)
	if err := g.Add(header); err != nil {
		return nil, r, err
	}

	children := acc.children()
	stack := [][]string{nil}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if depth := len(current); depth > 0 {
			part := current[depth-1]
			row := grid.Row{grid.Text(strings.Repeat(" ", (depth-1)*indent) + "/" + part)}

			switch {
			case depth == 1:
				primary, ok := acc.roots[part]
				if !ok {
					return nil, r, errors.New(errors.ErrCodeInternal, "root %q is not mapped to a primary key", part)
				}
				row = append(row, bars.cells(primary, &r)...)
			case opts.ShowAncestorAggregate:
				partial := opts.Aggregate.Apply(acc.partials[pathKey(current)])
				row = append(row, grid.Text(" "), grid.Text("["), grid.Count(partial), grid.Text("]"))
			}
			if err := g.Add(row); err != nil {
				return nil, r, err
			}
		}

		next := children[pathKey(current)]
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, append(slices.Clone(current), next[i]))
		}
	}
	return g, r, nil
}

// children maps every partial path (the empty path included) to its
// distinct child segments in string order.
func (a *accumulation) children() map[string][]string {
	seen := make(map[string]bool)
	out := make(map[string][]string)
	for _, tuple := range a.tuples {
		parts := project(tuple)
		for k := range parts {
			parent := pathKey(parts[:k])
			child := parent + parts[k] + ";"
			if seen[child] {
				continue
			}
			seen[child] = true
			out[parent] = append(out[parent], parts[k])
		}
	}
	for _, c := range out {
		slices.Sort(c)
	}
	return out
}

package collapse

import (
	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/grid"
)

// Connector glyphs join an ancestor label to the rows of its descendants.
const (
	ConnectorAbove = "┐"
	ConnectorAt    = "-"
	ConnectorBelow = "┘"
)

// markerHeader fixes the connector column at three characters.
const markerHeader = "   "

type position int

const (
	above position = iota
	at
	below
)

// tracker follows the rows emitted for the current partial path of one
// column.
type tracker struct {
	locus string
	index int
}

// visit moves the tracker to locus, restarting the count on a change.
func (t *tracker) visit(locus string) {
	if t.locus == locus {
		t.index++
		return
	}
	t.locus, t.index = locus, 0
}

// position places the tracker relative to the group midpoint.
func (t *tracker) position(occurrences int) position {
	mid := (occurrences+1)/2 - 1
	switch {
	case t.index < mid:
		return above
	case t.index == mid:
		return at
	default:
		return below
	}
}

func connector(p position) string {
	switch p {
	case above:
		return ConnectorAbove
	case at:
		return ConnectorAt
	default:
		return ConnectorBelow
	}
}

// Collapse lays out one row per distinct display path. Rows sharing a
// path prefix print the shared labels once, vertically centred on the
// group, and join them with connector glyphs. The outermost display
// column is leftmost; the primary column sits next to the bar delimiter.
//
// The returned range covers every value drawn as a bar.
func Collapse(src dataset.Source, opts Options) (*grid.Grid, aggregate.Range, error) {
	var r aggregate.Range

	acc, err := accumulate(src, opts)
	if err != nil {
		return nil, r, err
	}
	var abbr []map[string]string
	if opts.Abbreviate {
		if abbr, err = acc.abbreviations(); err != nil {
			return nil, r, err
		}
	}

	c := &collapser{
		acc:  acc,
		opts: opts,
		abbr: abbr,
		bars: &barSection{acc: acc, agg: opts.Aggregate, show: opts.ShowAggregate, brackets: opts.ShowAggregate},
	}

	g := grid.New(c.columns())
	for _, row := range c.bars.preHeaders() {
		if err := g.Add(row); err != nil {
			return nil, r, err
		}
	}
	if err := g.Add(c.header()); err != nil {
		return nil, r, err
	}

	trackers := make([]tracker, len(acc.headers))
	for _, tuple := range acc.tuples {
		row, err := c.row(tuple, trackers, &r)
		if err != nil {
			return nil, r, err
		}
		if err := g.Add(row); err != nil {
			return nil, r, err
		}
	}
	return g, r, nil
}

type collapser struct {
	acc  *accumulation
	opts Options
	abbr []map[string]string
	bars *barSection
}

// columns lays out, for every display column from outermost to primary,
// the label followed (for ancestors) by a spacer, the optional "[agg]"
// columns and the connector column.
func (c *collapser) columns() grid.Columns {
	var cols grid.Columns
	n := len(c.acc.headers)
	for d := n - 1; d >= 0; d-- {
		cols.Text(grid.Left)
		if d == 0 {
			break
		}
		cols.Text(grid.Center)
		if c.opts.ShowAncestorAggregate {
			cols.Text(grid.Left)
			cols.Text(grid.Right)
			cols.Text(grid.Left)
		}
		cols.Text(grid.Center)
	}
	c.bars.columns(&cols)
	return cols
}

func (c *collapser) header() grid.Row {
	var row grid.Row
	n := len(c.acc.headers)
	for d := n - 1; d >= 0; d-- {
		row = append(row, grid.Text(c.acc.headers[d]))
		if d == 0 {
			break
		}
		row = append(row, grid.Text(" "))
		if c.opts.ShowAncestorAggregate {
			row = append(row, grid.Overflow(c.opts.Aggregate.String()), grid.Skip(), grid.Skip())
		}
		row = append(row, grid.Text(markerHeader))
	}
	return append(row, c.bars.header()...)
}

// ancestorCells is the cell count of every non-primary segment.
func (c *collapser) ancestorCells() int {
	if c.opts.ShowAncestorAggregate {
		return 6
	}
	return 3
}

func (c *collapser) row(tuple []any, trackers []tracker, r *aggregate.Range) (grid.Row, error) {
	parts := project(tuple)
	n := len(parts)
	full := pathKey(parts)
	primary, ok := c.acc.primaries[full]
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "path %q is not mapped to a primary key", full)
	}

	// Positions for every segment, primary first. Column j = n-d-1 holds
	// segment d.
	positions := make([]position, n)
	for d := range n {
		key := pathKey(parts[:d+1])
		t := &trackers[n-d-1]
		t.visit(key)
		positions[d] = t.position(c.acc.occurrences[key])
	}

	var row grid.Row
	for d := n - 1; d >= 0; d-- {
		text := label(c.abbr, d, parts[d])
		switch {
		case d == 0:
			if positions[0] == at {
				row = append(row, grid.Text(text))
				row = append(row, c.bars.cells(primary, r)...)
			}
		case positions[d] == at:
			row = append(row, grid.Text(text), grid.Text(" "))
			if c.opts.ShowAncestorAggregate {
				partial := c.opts.Aggregate.Apply(c.acc.partials[pathKey(parts[:d+1])])
				row = append(row, grid.Text("["), grid.Count(partial), grid.Text("]"))
			}
			row = append(row, grid.Text(connector(positions[d-1])))
		case positions[d-1] == at:
			row = append(row, grid.Empty(), grid.Text(" "))
			if c.opts.ShowAncestorAggregate {
				row = append(row, grid.Empty(), grid.Empty(), grid.Empty())
			}
			row = append(row, grid.Text(ConnectorAt))
		default:
			row = append(row, make(grid.Row, c.ancestorCells())...)
		}
	}
	return row, nil
}

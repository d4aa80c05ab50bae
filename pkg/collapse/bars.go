package collapse

import (
	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/grid"
)

// barSection is the part of every row right of the primary label: the
// optional "[agg]" annotation, the "|" delimiter and the bar(s).
type barSection struct {
	acc  *accumulation
	agg  aggregate.Aggregate
	show bool
	// brackets reports whether the "[agg]" columns exist. They may exist
	// without show when deeper tree levels use them.
	brackets bool
	// pipe is the column index of the "|" delimiter.
	pipe int
}

// columns appends the section's columns.
func (s *barSection) columns(cols *grid.Columns) {
	if s.brackets {
		cols.Text(grid.Center)
		cols.Text(grid.Left)
		cols.Text(grid.Right)
		cols.Text(grid.Left)
	}
	cols.Text(grid.Center)
	s.pipe = cols.Text(grid.Center)

	if !s.acc.hasBreakdown {
		cols.Value(grid.Left)
		return
	}
	for k := range s.acc.breakdowns {
		cols.Breakdown(grid.Center)
		if k+1 < len(s.acc.breakdowns) {
			cols.Text(grid.Left)
		}
	}
	cols.Text(grid.Center)
}

// preHeaders returns the rows above the header of breakdown charts: the
// breakdown name (unless it equals the value name), then "Agg(value)".
func (s *barSection) preHeaders() []grid.Row {
	if !s.acc.hasBreakdown {
		return nil
	}
	lead := make(grid.Row, s.pipe+1)
	var rows []grid.Row
	if s.acc.breakdownHeader != s.acc.valueHeader {
		rows = append(rows, append(clone(lead), grid.Plain(s.acc.breakdownHeader)))
	}
	return append(rows, append(clone(lead), grid.Plain(s.acc.valueLabel(s.agg))))
}

// header returns the section's header cells.
func (s *barSection) header() grid.Row {
	var row grid.Row
	if s.brackets {
		if s.show {
			row = append(row, grid.Empty(), grid.Overflow(s.agg.String()), grid.Skip(), grid.Skip())
		} else {
			row = append(row, grid.Empty(), grid.Empty(), grid.Empty(), grid.Empty())
		}
	}
	row = append(row, grid.Text("  "), grid.Text("|"))

	if !s.acc.hasBreakdown {
		return append(row, grid.Plain(s.acc.valueLabel(s.agg)))
	}
	for k, b := range s.acc.breakdowns {
		row = append(row, grid.Text(dataset.Format(b)))
		if k+1 < len(s.acc.breakdowns) {
			row = append(row, grid.Text(" "))
		}
	}
	return append(row, grid.Text("|"))
}

// cells returns the section for the given primary key and records every
// drawn value in r.
func (s *barSection) cells(primary string, r *aggregate.Range) grid.Row {
	var values []float64
	if s.acc.hasBreakdown {
		values = make([]float64, len(s.acc.breakdowns))
		for k, b := range s.acc.breakdowns {
			values[k] = aggregate.ApplyKey(s.agg, s.acc.buckets, bucket{primary, dataset.Format(b)}, r)
		}
	} else {
		values = []float64{aggregate.ApplyKey(s.agg, s.acc.buckets, bucket{primary: primary}, r)}
	}

	var row grid.Row
	if s.brackets {
		if s.show {
			total := values[0]
			if s.acc.hasBreakdown {
				total = s.agg.Apply(values)
			}
			row = append(row, grid.Text(" "), grid.Text("["), grid.Count(total), grid.Text("]"))
		} else {
			row = append(row, grid.Empty(), grid.Empty(), grid.Empty(), grid.Empty())
		}
	}
	row = append(row, grid.Text("  "), grid.Text("|"))

	if !s.acc.hasBreakdown {
		return append(row, grid.Value(values[0]))
	}
	for k, v := range values {
		row = append(row, grid.Value(v))
		if k+1 < len(values) {
			row = append(row, grid.Text(" "))
		}
	}
	return append(row, grid.Text("|"))
}

func clone(row grid.Row) grid.Row {
	return append(grid.Row(nil), row...)
}

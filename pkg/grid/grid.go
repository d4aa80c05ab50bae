package grid

import (
	"github.com/matzehuels/flat/pkg/errors"
)

// Align is the horizontal alignment of a column.
type Align int

const (
	Left Align = iota
	Center
	Right
)

// Kind tells the renderer how a column's width is derived.
type Kind int

const (
	// TextColumn is as wide as its widest cell.
	TextColumn Kind = iota
	// ValueColumn holds a single bar per row.
	ValueColumn
	// BreakdownColumn holds one bar per breakdown key; its header text may
	// be abbreviated.
	BreakdownColumn
)

// Column describes one column of a grid.
type Column struct {
	Align Align
	Kind  Kind
}

// Columns is an ordered column list.
type Columns []Column

// Text appends a text column and returns its index.
func (c *Columns) Text(a Align) int { return c.add(Column{Align: a, Kind: TextColumn}) }

// Value appends a value column and returns its index.
func (c *Columns) Value(a Align) int { return c.add(Column{Align: a, Kind: ValueColumn}) }

// Breakdown appends a breakdown column and returns its index.
func (c *Columns) Breakdown(a Align) int { return c.add(Column{Align: a, Kind: BreakdownColumn}) }

func (c *Columns) add(col Column) int {
	*c = append(*c, col)
	return len(*c) - 1
}

// ===== Cells =====

// CellKind identifies what a cell holds.
type CellKind int

const (
	// EmptyCell is a blank placeholder padded to the column width.
	EmptyCell CellKind = iota
	// TextCell is a label padded to the column width.
	TextCell
	// ValueCell is a measurement drawn as a run of glyphs.
	ValueCell
	// CountCell is a measurement printed as a number.
	CountCell
	// OverflowCell is a label that may spill over the Skip cells after it.
	OverflowCell
	// SkipCell is absorbed by a preceding overflow.
	SkipCell
	// PlainCell is raw trailing text; it is never padded and never
	// widens its column.
	PlainCell
)

// Cell is one typed entry in a row. The zero value is an empty cell.
type Cell struct {
	Kind  CellKind
	Text  string
	Value float64
}

// Text returns a label cell.
func Text(s string) Cell { return Cell{Kind: TextCell, Text: s} }

// Value returns a bar cell.
func Value(v float64) Cell { return Cell{Kind: ValueCell, Value: v} }

// Count returns a numeric annotation cell.
func Count(v float64) Cell { return Cell{Kind: CountCell, Value: v} }

// Empty returns a blank cell.
func Empty() Cell { return Cell{} }

// Overflow returns a label that spans the Skip cells following it.
func Overflow(s string) Cell { return Cell{Kind: OverflowCell, Text: s} }

// Skip returns a cell absorbed by a preceding overflow.
func Skip() Cell { return Cell{Kind: SkipCell} }

// Plain returns raw trailing text.
func Plain(s string) Cell { return Cell{Kind: PlainCell, Text: s} }

// Row is an ordered list of cells. A row may be shorter than the column
// list; the missing trailing cells render as nothing.
type Row []Cell

// ===== Grid =====

// Grid is an ordered collection of rows over a fixed column list.
type Grid struct {
	columns Columns
	rows    []Row
}

// New creates an empty grid over the given columns.
func New(columns Columns) *Grid {
	return &Grid{columns: columns}
}

// Add appends a row. A row with more cells than there are columns, or a
// Skip that does not follow an overflow, is rejected.
func (g *Grid) Add(row Row) error {
	if len(row) > len(g.columns) {
		return errors.New(errors.ErrCodeInternal, "row has %d cells for %d columns", len(row), len(g.columns))
	}
	spanning := false
	for j, c := range row {
		switch c.Kind {
		case OverflowCell:
			spanning = true
		case SkipCell:
			if !spanning {
				return errors.New(errors.ErrCodeInternal, "skip cell at column %d does not follow an overflow", j)
			}
		default:
			spanning = false
		}
	}
	g.rows = append(g.rows, row)
	return nil
}

// Columns returns the column list.
func (g *Grid) Columns() Columns { return g.columns }

// Rows returns the rows in insertion order.
func (g *Grid) Rows() []Row { return g.rows }

// Len returns the number of rows.
func (g *Grid) Len() int { return len(g.rows) }

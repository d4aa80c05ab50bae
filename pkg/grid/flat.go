package grid

import (
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/flat/pkg/abbreviate"
	"github.com/matzehuels/flat/pkg/aggregate"
)

const (
	// DefaultWidth is the total character budget when none is given.
	DefaultWidth = 120

	// Glyph draws one unit of a non-negative bar.
	Glyph = "*"
	// NegativeGlyph draws one unit of a negative bar.
	NegativeGlyph = "⊖"

	minBudget = 2
)

// Options configures a render pass.
type Options struct {
	// Width is the total character budget. Text columns always get their
	// natural width; value columns share what is left, but never less
	// than two characters each. Zero means DefaultWidth.
	Width int

	// AbbreviateBreakdown shortens breakdown headers that are wider than
	// the per-column budget.
	AbbreviateBreakdown bool
}

// Flat is a rendered grid.
type Flat struct {
	lines []string
	units float64
}

// String joins the rendered lines with newlines. There is no trailing
// newline.
func (f *Flat) String() string { return strings.Join(f.lines, "\n") }

// Lines returns a copy of the rendered lines.
func (f *Flat) Lines() []string { return slices.Clone(f.lines) }

// Units returns how much value a single glyph stands for.
func (f *Flat) Units() float64 { return f.units }

// Width returns the width of the widest line.
func (f *Flat) Width() int {
	w := 0
	for _, l := range f.lines {
		w = max(w, abbreviate.Width(l))
	}
	return w
}

// ===== Rendering =====

// Render lays out g in two passes. The first pass sizes text columns
// (including overflow spans); the second derives the per-column budget,
// the value scale and the value column widths. r is the range of every
// value drawn as a bar.
func Render(g *Grid, r aggregate.Range, opts Options) (*Flat, error) {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}

	l := &layout{
		grid:   g,
		widths: make([]int, len(g.columns)),
	}
	l.measureText()
	l.resolveOverflows()

	budget := l.budget(width)
	l.units = unitsPerGlyph(r.Magnitude(), budget)

	abbr, err := l.breakdownAbbreviations(budget, opts.AbbreviateBreakdown)
	if err != nil {
		return nil, err
	}
	l.abbr = abbr
	l.measureValues()

	lines := make([]string, len(g.rows))
	for i, row := range g.rows {
		lines[i] = l.line(row)
	}
	return &Flat{lines: lines, units: l.units}, nil
}

type span struct {
	start, end int
	width      int
}

type layout struct {
	grid      *Grid
	widths    []int
	overflows []span
	units     float64
	abbr      map[string]string
}

func (l *layout) measureText() {
	for _, row := range l.grid.rows {
		for j, c := range row {
			if l.grid.columns[j].Kind != TextColumn {
				continue
			}
			switch c.Kind {
			case TextCell, CountCell:
				l.widths[j] = max(l.widths[j], abbreviate.Width(l.content(c, j)))
			case OverflowCell:
				l.overflows = append(l.overflows, span{
					start: j,
					end:   spanEnd(row, j),
					width: abbreviate.Width(c.Text),
				})
			}
		}
	}
}

// resolveOverflows widens the last spanned column of every overflow that
// does not fit the columns it covers.
func (l *layout) resolveOverflows() {
	for _, s := range l.overflows {
		covered := l.spanWidth(s.start, s.end)
		if s.width > covered {
			l.widths[s.end] += s.width - covered
		}
	}
}

func (l *layout) budget(width int) int {
	text, values := 0, 0
	for j, col := range l.grid.columns {
		if col.Kind == TextColumn {
			text += l.widths[j]
		} else {
			values++
		}
	}
	if values == 0 {
		return 0
	}
	return max((width-text)/values, minBudget)
}

func (l *layout) breakdownAbbreviations(budget int, enabled bool) (map[string]string, error) {
	if !enabled {
		return nil, nil
	}
	var headers []string
	longest := 0
	for _, row := range l.grid.rows {
		for j, c := range row {
			if l.grid.columns[j].Kind == BreakdownColumn && c.Kind == TextCell {
				headers = append(headers, c.Text)
				longest = max(longest, abbreviate.Width(c.Text))
			}
		}
	}
	if len(headers) == 0 || budget >= longest {
		return nil, nil
	}
	_, abbr, err := abbreviate.Find(budget, longest, headers)
	if err != nil {
		return nil, err
	}
	return abbr, nil
}

// measureValues gives every value and breakdown column the same width:
// the widest glyph run or header among them.
func (l *layout) measureValues() {
	shared := 0
	for _, row := range l.grid.rows {
		for j, c := range row {
			if l.grid.columns[j].Kind == TextColumn {
				continue
			}
			switch c.Kind {
			case TextCell, CountCell, ValueCell:
				shared = max(shared, abbreviate.Width(l.content(c, j)))
			}
		}
	}
	for j, col := range l.grid.columns {
		if col.Kind != TextColumn {
			l.widths[j] = shared
		}
	}
}

func (l *layout) line(row Row) string {
	var b strings.Builder
	for j := 0; j < len(row); j++ {
		c := row[j]
		align := l.grid.columns[j].Align
		switch c.Kind {
		case SkipCell:
		case PlainCell:
			b.WriteString(c.Text)
		case OverflowCell:
			pad(&b, c.Text, l.spanWidth(j, spanEnd(row, j)), align)
		default:
			pad(&b, l.content(c, j), l.widths[j], align)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// content is the unpadded text of a cell in column j.
func (l *layout) content(c Cell, j int) string {
	switch c.Kind {
	case TextCell:
		if l.grid.columns[j].Kind == BreakdownColumn {
			if a, ok := l.abbr[c.Text]; ok {
				return a
			}
		}
		return c.Text
	case CountCell:
		return aggregate.MinimalPrecision(c.Value)
	case ValueCell:
		return glyphs(c.Value, l.units)
	case OverflowCell, PlainCell:
		return c.Text
	default:
		return ""
	}
}

func (l *layout) spanWidth(start, end int) int {
	w := 0
	for j := start; j <= end; j++ {
		w += l.widths[j]
	}
	return w
}

// spanEnd returns the index of the last Skip cell following an overflow at j.
func spanEnd(row Row, j int) int {
	for j+1 < len(row) && row[j+1].Kind == SkipCell {
		j++
	}
	return j
}

// unitsPerGlyph is the bar scale: the smallest whole number of units per
// glyph that keeps the largest magnitude within budget.
func unitsPerGlyph(magnitude float64, budget int) float64 {
	if budget <= 0 || math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return 1
	}
	return max(1, math.Ceil(magnitude/float64(budget)))
}

func glyphs(v, units float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	n := int(math.Round(math.Abs(v) / units))
	if v < 0 {
		return strings.Repeat(NegativeGlyph, n)
	}
	return strings.Repeat(Glyph, n)
}

func pad(b *strings.Builder, s string, width int, align Align) {
	fill := width - abbreviate.Width(s)
	if fill <= 0 {
		b.WriteString(s)
		return
	}
	switch align {
	case Right:
		b.WriteString(strings.Repeat(" ", fill))
		b.WriteString(s)
	case Center:
		left := fill / 2
		b.WriteString(strings.Repeat(" ", left))
		b.WriteString(s)
		b.WriteString(strings.Repeat(" ", fill-left))
	default:
		b.WriteString(s)
		b.WriteString(strings.Repeat(" ", fill))
	}
}

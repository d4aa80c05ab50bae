package chart

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/bin"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/grid"
)

// Histogram draws one bar per bin of the numeric primary column. Integer
// primaries get whole-number bin widths. Display columns other than the
// primary are ignored. An empty source renders the header alone.
func Histogram(src dataset.Source, opts Options) (*grid.Flat, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	h, err := binObservations(src, opts.Bins, opts.Logger)
	if err != nil {
		return nil, err
	}
	g, r, err := h.grid(opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	opts.Logger.Debug("laid out histogram", "bins", len(h.labels), "rows", src.Len())
	return grid.Render(g, r, opts.render())
}

type histBucket struct {
	bin       int
	breakdown string
}

type histogram struct {
	header          string
	valueHeader     string
	breakdownHeader string
	hasBreakdown    bool

	labels     []string
	breakdowns []any
	buckets    map[histBucket][]float64
}

func binObservations(src dataset.Source, n int, logger *log.Logger) (*histogram, error) {
	headers := src.DisplayHeaders()
	if len(headers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a histogram needs a primary column")
	}
	h := &histogram{
		header:      headers[0],
		valueHeader: src.ValueHeader(),
		buckets:     make(map[histBucket][]float64),
	}
	h.breakdownHeader, h.hasBreakdown = src.BreakdownHeader()

	obs := make([]dataset.Observation, src.Len())
	integral := true
	for i := range obs {
		o, err := src.Observation(i)
		if err != nil {
			return nil, err
		}
		if _, ok := dataset.Float(o.Primary); !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"record %d: %q value %v cannot be binned", i, h.header, o.Primary)
		}
		if _, ok := dataset.Int(o.Primary); !ok {
			integral = false
		}
		obs[i] = o
	}
	if len(obs) == 0 {
		return h, nil
	}

	var (
		index []int
		err   error
	)
	if integral {
		keys := make([]int64, len(obs))
		for i, o := range obs {
			keys[i], _ = dataset.Int(o.Primary)
		}
		h.labels, index, err = assign(keys, n, logger)
	} else {
		keys := make([]float64, len(obs))
		for i, o := range obs {
			keys[i], _ = dataset.Float(o.Primary)
		}
		h.labels, index, err = assign(keys, n, logger)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for i, o := range obs {
		b := histBucket{bin: index[i]}
		if h.hasBreakdown {
			b.breakdown = dataset.Format(o.Breakdown)
			if !seen[b.breakdown] {
				seen[b.breakdown] = true
				h.breakdowns = append(h.breakdowns, o.Breakdown)
			}
		}
		h.buckets[b] = append(h.buckets[b], o.Value)
	}
	slices.SortStableFunc(h.breakdowns, dataset.Compare)
	return h, nil
}

// assign bins keys and returns the bin labels along with the bin index of
// every key. Keys outside every bin are clamped and logged.
func assign[T bin.Number](keys []T, n int, logger *log.Logger) ([]string, []int, error) {
	bins, err := bin.New(keys, n, bin.PolicyFor[T]())
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, bins.Len())
	for i, b := range bins.All() {
		labels[i] = b.String()
	}
	index := make([]int, len(keys))
	for i, k := range keys {
		j, ok := bins.Locate(k)
		if !ok {
			logger.Warn("histogram key outside every bin, clamped", "key", k, "bin", labels[j])
		}
		index[i] = j
	}
	return labels, index, nil
}

func (h *histogram) valueLabel(agg aggregate.Aggregate) string {
	return fmt.Sprintf("%s(%s)", agg, h.valueHeader)
}

func (h *histogram) grid(opts Options) (*grid.Grid, aggregate.Range, error) {
	var r aggregate.Range

	var cols grid.Columns
	cols.Text(grid.Left)
	if opts.ShowAggregate {
		cols.Text(grid.Center)
		cols.Text(grid.Left)
		cols.Text(grid.Right)
		cols.Text(grid.Left)
	}
	cols.Text(grid.Center)
	pipe := cols.Text(grid.Center)
	if h.hasBreakdown {
		for k := range h.breakdowns {
			cols.Breakdown(grid.Center)
			if k+1 < len(h.breakdowns) {
				cols.Text(grid.Left)
			}
		}
		cols.Text(grid.Center)
	} else {
		cols.Value(grid.Left)
	}
	g := grid.New(cols)

	var rows []grid.Row
	if h.hasBreakdown {
		if h.breakdownHeader != h.valueHeader {
			rows = append(rows, append(make(grid.Row, pipe+1), grid.Plain(h.breakdownHeader)))
		}
		rows = append(rows, append(make(grid.Row, pipe+1), grid.Plain(h.valueLabel(opts.Aggregate))))
	}

	header := grid.Row{grid.Text(h.header)}
	if opts.ShowAggregate {
		header = append(header, grid.Empty(), grid.Overflow(opts.Aggregate.String()), grid.Skip(), grid.Skip())
	}
	header = append(header, grid.Text("  "), grid.Text("|"))
	if h.hasBreakdown {
		for k, b := range h.breakdowns {
			header = append(header, grid.Text(dataset.Format(b)))
			if k+1 < len(h.breakdowns) {
				header = append(header, grid.Text(" "))
			}
		}
		header = append(header, grid.Text("|"))
	} else {
		header = append(header, grid.Plain(h.valueLabel(opts.Aggregate)))
	}
	rows = append(rows, header)

	for i, label := range h.labels {
		rows = append(rows, h.row(i, label, opts, &r))
	}

	for _, row := range rows {
		if err := g.Add(row); err != nil {
			return nil, r, err
		}
	}
	return g, r, nil
}

func (h *histogram) row(i int, label string, opts Options, r *aggregate.Range) grid.Row {
	var values []float64
	if h.hasBreakdown {
		values = make([]float64, len(h.breakdowns))
		for k, b := range h.breakdowns {
			values[k] = aggregate.ApplyKey(opts.Aggregate, h.buckets, histBucket{i, dataset.Format(b)}, r)
		}
	} else {
		values = []float64{aggregate.ApplyKey(opts.Aggregate, h.buckets, histBucket{bin: i}, r)}
	}

	row := grid.Row{grid.Text(label)}
	if opts.ShowAggregate {
		var total float64
		if h.hasBreakdown {
			total = opts.Aggregate.Apply(values)
		} else {
			total = values[0]
		}
		row = append(row, grid.Text(" "), grid.Text("["), grid.Count(total), grid.Text("]"))
	}
	row = append(row, grid.Text("  "), grid.Text("|"))
	if !h.hasBreakdown {
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

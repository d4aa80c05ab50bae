package collapse

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/flat/pkg/abbreviate"
	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
)

// Options configures how rows are grouped and annotated.
type Options struct {
	// Aggregate reduces the measurements of a group.
	Aggregate aggregate.Aggregate
	// ShowAggregate prints the primary group's aggregate next to its label.
	ShowAggregate bool
	// ShowAncestorAggregate prints every collapsed ancestor's aggregate.
	ShowAncestorAggregate bool
	// Abbreviate shortens display values to their column header width
	// where that keeps them unique.
	Abbreviate bool
}

// bucket identifies the measurements behind one bar.
type bucket struct {
	primary   string
	breakdown string
}

// accumulation is the per-render state built from one pass over a source.
type accumulation struct {
	headers         []string
	breakdownHeader string
	hasBreakdown    bool
	valueHeader     string

	// tuples holds one display tuple per distinct full path, in native order.
	tuples [][]any
	// primaries maps a full path to the primary key of its bucket.
	primaries map[string]string
	// roots maps a primary label to the primary key of its bucket.
	roots map[string]string
	// occurrences counts the distinct full paths below every partial path.
	occurrences map[string]int
	buckets     map[bucket][]float64
	partials    map[string][]float64
	breakdowns  []any
	// columns holds the distinct strings of every display column.
	columns []map[string]struct{}
}

func accumulate(src dataset.Source, opts Options) (*accumulation, error) {
	headers := src.DisplayHeaders()
	if len(headers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a chart needs at least one display column")
	}
	a := &accumulation{
		headers:     headers,
		valueHeader: src.ValueHeader(),
		primaries:   make(map[string]string),
		roots:       make(map[string]string),
		occurrences: make(map[string]int),
		buckets:     make(map[bucket][]float64),
		partials:    make(map[string][]float64),
		columns:     make([]map[string]struct{}, len(headers)),
	}
	a.breakdownHeader, a.hasBreakdown = src.BreakdownHeader()
	for d := range a.columns {
		a.columns[d] = make(map[string]struct{})
	}

	seenBreakdowns := make(map[string]bool)
	for i := range src.Len() {
		o, err := src.Observation(i)
		if err != nil {
			return nil, err
		}
		if len(o.Display) != len(headers) {
			return nil, errors.New(errors.ErrCodeInternal,
				"record %d has %d display values for %d headers", i, len(o.Display), len(headers))
		}

		parts := project(o.Display)
		full := pathKey(parts)
		primary := dataset.Format(o.Primary)

		if _, ok := a.primaries[full]; !ok {
			a.primaries[full] = primary
			a.tuples = append(a.tuples, o.Display)
			for k := 1; k <= len(parts); k++ {
				a.occurrences[pathKey(parts[:k])]++
			}
		}
		if _, ok := a.roots[parts[0]]; !ok {
			a.roots[parts[0]] = primary
		}
		for d, p := range parts {
			a.columns[d][p] = struct{}{}
		}

		b := bucket{primary: primary}
		if a.hasBreakdown {
			b.breakdown = dataset.Format(o.Breakdown)
			if !seenBreakdowns[b.breakdown] {
				seenBreakdowns[b.breakdown] = true
				a.breakdowns = append(a.breakdowns, o.Breakdown)
			}
		}
		a.buckets[b] = append(a.buckets[b], o.Value)

		if opts.ShowAncestorAggregate {
			for k := 2; k <= len(parts); k++ {
				key := pathKey(parts[:k])
				a.partials[key] = append(a.partials[key], o.Value)
			}
		}
	}

	slices.SortStableFunc(a.tuples, dataset.CompareTuples)
	slices.SortStableFunc(a.breakdowns, dataset.Compare)
	return a, nil
}

// project returns the string projection of a display tuple.
func project(tuple []any) []string {
	parts := make([]string, len(tuple))
	for i, v := range tuple {
		parts[i] = dataset.Format(v)
	}
	return parts
}

// pathKey joins path segments with ';' terminators.
func pathKey(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
		b.WriteByte(';')
	}
	return b.String()
}

// abbreviations returns, per display column, the label replacements. Each
// column is abbreviated between its own header width and the widest
// header.
func (a *accumulation) abbreviations() ([]map[string]string, error) {
	longest := 0
	for _, h := range a.headers {
		longest = max(longest, abbreviate.Width(h))
	}

	out := make([]map[string]string, len(a.headers))
	for d, set := range a.columns {
		if len(set) == 0 {
			continue
		}
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		_, m, err := abbreviate.Find(abbreviate.Width(a.headers[d]), longest, values)
		if err != nil {
			return nil, err
		}
		out[d] = m
	}
	return out, nil
}

// label returns the display text of segment d.
func label(abbr []map[string]string, d int, part string) string {
	if abbr != nil {
		if s, ok := abbr[d][part]; ok {
			return s
		}
	}
	return part
}

func (a *accumulation) valueLabel(agg aggregate.Aggregate) string {
	return fmt.Sprintf("%s(%s)", agg, a.valueHeader)
}

package chart

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/collapse"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/grid"
)

// Kind names a chart layout.
type Kind string

// Chart kinds.
const (
	KindBar       Kind = "bar"
	KindDag       Kind = "dag"
	KindPath      Kind = "path"
	KindHistogram Kind = "histogram"
)

// Kinds lists every chart kind.
var Kinds = []Kind{KindBar, KindDag, KindPath, KindHistogram}

// ParseKind converts a case-insensitive name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown chart kind %q (want bar, dag, path or histogram)", s)
}

// Render draws src as the given kind of chart.
func Render(kind Kind, src dataset.Source, opts Options) (*grid.Flat, error) {
	switch kind {
	case KindBar:
		return Bar(src, opts)
	case KindDag:
		return Dag(src, opts)
	case KindPath:
		return Path(src, opts)
	case KindHistogram:
		return Histogram(src, opts)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown chart kind %q", kind)
}

// Bar draws one bar per distinct display path. Shared path prefixes are
// collapsed but never annotated.
func Bar(src dataset.Source, opts Options) (*grid.Flat, error) {
	opts.ShowAncestorAggregate = false
	return draw(collapse.Collapse, src, opts)
}

// Dag draws one bar per distinct display path, with shared path prefixes
// collapsed and optionally annotated with their aggregate.
func Dag(src dataset.Source, opts Options) (*grid.Flat, error) {
	return draw(collapse.Collapse, src, opts)
}

// Path draws the display paths as an indented tree with one bar per
// primary value.
func Path(src dataset.Source, opts Options) (*grid.Flat, error) {
	return draw(collapse.Tree, src, opts)
}

type layoutFunc func(dataset.Source, collapse.Options) (*grid.Grid, aggregate.Range, error)

func draw(layout layoutFunc, src dataset.Source, opts Options) (*grid.Flat, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g, r, err := layout(src, opts.layout())
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	opts.Logger.Debug("laid out chart", "rows", g.Len(), "columns", len(g.Columns()))
	return grid.Render(g, r, opts.render())
}

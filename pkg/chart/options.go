package chart

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/collapse"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/grid"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the target line width in characters.
	DefaultWidth = grid.DefaultWidth

	// DefaultBins is the number of histogram bins.
	DefaultBins = 10

	// DefaultAggregate reduces grouped measurements by adding them.
	DefaultAggregate = aggregate.Sum

	// MaxWidth bounds Width. Bar glyphs are allocated per line width.
	MaxWidth = 10_000

	// MaxBins bounds Bins. Every key is located by scanning the bins.
	MaxBins = 1_000
)

// =============================================================================
// Options
// =============================================================================

// Options configures every chart kind. Fields a kind does not use are
// ignored.
type Options struct {
	// Width is the target line width. Bars shrink to fit it, but never
	// below two glyphs per value column.
	Width int `toml:"width" json:"width,omitempty"`

	// Aggregate reduces the measurements that share a bar.
	Aggregate aggregate.Aggregate `toml:"aggregate" json:"aggregate"`

	// ShowAggregate prints "[value]" next to every primary label.
	ShowAggregate bool `toml:"show_aggregate" json:"show_aggregate,omitempty"`

	// ShowAncestorAggregate prints "[value]" next to every collapsed
	// ancestor label (dag and path charts).
	ShowAncestorAggregate bool `toml:"show_ancestor_aggregate" json:"show_ancestor_aggregate,omitempty"`

	// Abbreviate shortens display values towards their header width in
	// bar and dag charts. Path charts print full values and ignore it.
	Abbreviate bool `toml:"abbreviate" json:"abbreviate,omitempty"`

	// AbbreviateBreakdown shortens breakdown headers when the bars would
	// otherwise not fit.
	AbbreviateBreakdown bool `toml:"abbreviate_breakdown" json:"abbreviate_breakdown,omitempty"`

	// Bins is the histogram bin count.
	Bins int `toml:"bins" json:"bins,omitempty"`

	// Logger receives diagnostics. Nil discards them.
	Logger *log.Logger `toml:"-" json:"-"`
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Bins == 0 {
		o.Bins = DefaultBins
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks field ranges. Zero Width and Bins mean the defaults.
func (o *Options) Validate() error {
	switch {
	case o.Width < 0:
		return errors.New(errors.ErrCodeInvalidInput, "width must not be negative, got %d", o.Width)
	case o.Width > MaxWidth:
		return errors.New(errors.ErrCodeInvalidInput, "width must be at most %d, got %d", MaxWidth, o.Width)
	case o.Bins < 0:
		return errors.New(errors.ErrCodeInvalidInput, "bins must not be negative, got %d", o.Bins)
	case o.Bins > MaxBins:
		return errors.New(errors.ErrCodeInvalidInput, "bins must be at most %d, got %d", MaxBins, o.Bins)
	}
	_, err := o.Aggregate.MarshalText()
	return err
}

func (o *Options) layout() collapse.Options {
	return collapse.Options{
		Aggregate:             o.Aggregate,
		ShowAggregate:         o.ShowAggregate,
		ShowAncestorAggregate: o.ShowAncestorAggregate,
		Abbreviate:            o.Abbreviate,
	}
}

func (o *Options) render() grid.Options {
	return grid.Options{
		Width:               o.Width,
		AbbreviateBreakdown: o.AbbreviateBreakdown,
	}
}

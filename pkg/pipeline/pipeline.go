// Package pipeline provides the load → view → render pipeline for flat.
//
// The CLI and the HTTP server both run charts through this package, so
// caching, logging and validation behave the same on every entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a dataset file, query MongoDB, or take an in-memory dataset
//  2. View: assign chart roles to columns by header name
//  3. Render: draw the chart, reusing a cached rendering when possible
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:  "zoo.json",
//	    Kind:  chart.KindDag,
//	    Roles: dataset.RoleNames{Primary: "animal", Display: []string{"animal", "size"}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Chart)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/cache"
	"github.com/matzehuels/flat/pkg/chart"
	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/source/mongo"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultKind is the chart drawn when none is requested.
const DefaultKind = chart.KindBar

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run. It decodes from
// the CLI's TOML config file and from HTTP request bodies.
type Options struct {
	// Path is a dataset file (.json, .toml, .yaml).
	Path string `toml:"path" json:"path,omitempty"`

	// Mongo selects a collection to load instead of a file.
	Mongo *mongo.Config `toml:"mongo" json:"mongo,omitempty"`

	// Dataset is an already loaded dataset. It takes precedence over the
	// other sources.
	Dataset *dataset.Dataset `toml:"-" json:"-"`

	Kind  chart.Kind        `toml:"kind" json:"kind,omitempty"`
	Roles dataset.RoleNames `toml:"roles" json:"roles"`
	Chart chart.Options     `toml:"chart" json:"chart"`

	// Refresh skips cache reads; fresh results are still stored.
	Refresh bool `toml:"-" json:"refresh,omitempty"`

	// Workers bounds the goroutines used for the measurement summary.
	// Zero uses GOMAXPROCS.
	Workers int `toml:"workers" json:"-"`

	Logger *log.Logger `toml:"-" json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Chart is the rendered text block.
	Chart string

	// DatasetHash is the content hash of the loaded dataset.
	DatasetHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Rows       int
	Summary    aggregate.Accumulator
	LoadTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DatasetHit bool // Whether a remote dataset came from cache
	ChartHit   bool // Whether the rendered chart came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Kind == "" {
		o.Kind = DefaultKind
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.Chart.SetDefaults()
}

// Validate checks that exactly one source is set and that the chart
// options are usable. Kind is normalized in place.
func (o *Options) Validate() error {
	sources := 0
	if o.Dataset != nil {
		sources++
	}
	if o.Path != "" {
		sources++
		if err := errors.ValidatePath(o.Path); err != nil {
			return err
		}
	}
	if o.Mongo != nil {
		sources++
		if err := o.Mongo.Validate(); err != nil {
			return err
		}
	}
	switch {
	case sources == 0:
		return errors.New(errors.ErrCodeInvalidInput, "a dataset path, mongo source or dataset is required")
	case sources > 1 && o.Dataset == nil:
		return errors.New(errors.ErrCodeInvalidInput, "choose either a dataset path or a mongo source")
	}

	kind, err := chart.ParseKind(string(o.Kind))
	if err != nil {
		return err
	}
	o.Kind = kind
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	return o.Chart.Validate()
}

// Source describes where the dataset comes from, for logs and hooks.
func (o *Options) Source() string {
	switch {
	case o.Dataset != nil:
		return "memory"
	case o.Mongo != nil:
		return o.Mongo.Source()
	}
	return o.Path
}

// ChartKeyOpts returns cache key options for the render stage.
func (o *Options) ChartKeyOpts() cache.ChartKeyOpts {
	agg, _ := o.Chart.Aggregate.MarshalText()
	return cache.ChartKeyOpts{
		Kind:                  string(o.Kind),
		Primary:               o.Roles.Primary,
		Display:               o.Roles.Display,
		Breakdown:             o.Roles.Breakdown,
		Value:                 o.Roles.Value,
		Aggregate:             string(agg),
		Width:                 o.Chart.Width,
		Bins:                  o.Chart.Bins,
		ShowAggregate:         o.Chart.ShowAggregate,
		ShowAncestorAggregate: o.Chart.ShowAncestorAggregate,
		Abbreviate:            o.Chart.Abbreviate,
		AbbreviateBreakdown:   o.Chart.AbbreviateBreakdown,
	}
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/cache"
	"github.com/matzehuels/flat/pkg/chart"
	"github.com/matzehuels/flat/pkg/dataset"
	pkgio "github.com/matzehuels/flat/pkg/io"
	"github.com/matzehuels/flat/pkg/observability"
	"github.com/matzehuels/flat/pkg/source/mongo"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → view → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	d, hit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Rows = d.Len()
	result.CacheInfo.DatasetHit = hit

	r.Logger.Info("loaded dataset",
		"source", opts.Source(),
		"rows", d.Len(),
		"columns", d.Width(),
		"duration", result.Stats.LoadTime)

	// Stage 2: View
	view, err := d.Resolve(opts.Roles)
	if err != nil {
		return nil, fmt.Errorf("view: %w", err)
	}
	summary, err := Summarize(ctx, view, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	result.Stats.Summary = summary

	// Stage 3: Render
	result.DatasetHash = HashDataset(d)

	renderStart := time.Now()
	text, hit, err := r.RenderWithCacheInfo(ctx, view, result.DatasetHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Chart = text
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.ChartHit = hit

	r.Logger.Info("rendered chart",
		"kind", opts.Kind,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo loads the dataset named by opts. MongoDB results are
// cached for [cache.TTLDataset]; files and in-memory datasets are not.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*dataset.Dataset, bool, error) {
	source := opts.Source()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	d, hit, err := r.load(ctx, opts)

	rows := 0
	if d != nil {
		rows = d.Len()
	}
	hooks.OnLoadComplete(ctx, source, rows, time.Since(start), err)
	return d, hit, err
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*dataset.Dataset, error) {
	d, _, err := r.LoadWithCacheInfo(ctx, opts)
	return d, err
}

func (r *Runner) load(ctx context.Context, opts Options) (*dataset.Dataset, bool, error) {
	switch {
	case opts.Dataset != nil:
		return opts.Dataset, false, nil
	case opts.Mongo != nil:
		return r.loadMongo(ctx, opts)
	}
	d, err := pkgio.ReadDatasetFile(opts.Path)
	return d, false, err
}

func (r *Runner) loadMongo(ctx context.Context, opts Options) (*dataset.Dataset, bool, error) {
	cfg, err := json.Marshal(opts.Mongo)
	if err != nil {
		return nil, false, fmt.Errorf("encode mongo config: %w", err)
	}
	cacheKey := r.Keyer.DatasetKey(string(cfg))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			d, err := pkgio.ReadDatasetBytes(data, pkgio.FormatJSON)
			if err == nil {
				return d, true, nil
			}
			r.Logger.Debug("discarding unreadable cached dataset", "key", cacheKey, "error", err)
		}
	}

	d, err := mongo.Load(ctx, *opts.Mongo)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := pkgio.WriteDataset(d, &buf, pkgio.FormatJSON); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.TTLDataset); err != nil {
			r.Logger.Warn("caching dataset failed", "error", err)
		}
	}
	return d, false, nil
}

// RenderWithCacheInfo draws the chart for view, consulting the cache
// under a key derived from datasetHash and the render options.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, view dataset.Source, datasetHash string, opts Options) (string, bool, error) {
	cacheKey := r.Keyer.ChartKey(datasetHash, opts.ChartKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			return string(data), true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, string(opts.Kind), view.Len())
	start := time.Now()
	flat, err := chart.Render(opts.Kind, view, opts.Chart)
	hooks.OnRenderComplete(ctx, string(opts.Kind), time.Since(start), err)
	if err != nil {
		return "", false, err
	}

	text := flat.String()
	if err := r.Cache.Set(ctx, cacheKey, []byte(text), cache.TTLChart); err != nil {
		r.Logger.Warn("caching chart failed", "error", err)
	}
	return text, false, nil
}

// Summarize accumulates every measurement of src in parallel.
func Summarize(ctx context.Context, src dataset.Source, workers int) (aggregate.Accumulator, error) {
	values := make([]float64, src.Len())
	for i := range values {
		obs, err := src.Observation(i)
		if err != nil {
			return aggregate.Accumulator{}, err
		}
		values[i] = obs.Value
	}
	return aggregate.AccumulateParallel(ctx, values, workers)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Chart.Logger == nil {
		opts.Chart.Logger = opts.Logger
	}
}

// HashDataset fingerprints the headers and every cell of d together with
// the cell's Go type, so int64(1) and float64(1), or a time and its
// RFC 3339 text, hash apart. Charts differ for such datasets.
func HashDataset(d *dataset.Dataset) string {
	var buf bytes.Buffer
	for _, h := range d.Headers() {
		fmt.Fprintf(&buf, "%q,", h)
	}
	buf.WriteByte('\n')
	for i := range d.Len() {
		for _, v := range d.Row(i) {
			fmt.Fprintf(&buf, "%T:%#v,", v, v)
		}
		buf.WriteByte('\n')
	}
	return cache.Hash(buf.Bytes())
}

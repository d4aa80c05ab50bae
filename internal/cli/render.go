package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flat/pkg/aggregate"
	"github.com/matzehuels/flat/pkg/chart"
	"github.com/matzehuels/flat/pkg/pipeline"
	"github.com/matzehuels/flat/pkg/source/mongo"
)

// chartFlags holds the flags shared by render and export.
type chartFlags struct {
	config string

	kind      string
	primary   string
	display   []string
	breakdown string
	value     string

	aggregate             string
	width                 int
	bins                  int
	showAggregate         bool
	showAncestorAggregate bool
	abbreviate            bool
	abbreviateBreakdown   bool

	mongoURI        string
	mongoDatabase   string
	mongoCollection string
	mongoFields     []string
	mongoLimit      int64
}

func (f *chartFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "config file (default $XDG_CONFIG_HOME/flat/config.toml)")

	fl.StringVarP(&f.kind, "kind", "k", string(pipeline.DefaultKind), "chart kind: bar, dag, path or histogram")
	fl.StringVar(&f.primary, "primary", "", "primary column (default: first column)")
	fl.StringSliceVar(&f.display, "display", nil, "display columns, innermost first (default: all unused columns)")
	fl.StringVar(&f.breakdown, "breakdown", "", "breakdown column drawn as parallel bars")
	fl.StringVar(&f.value, "value", "", "measured column (default: count records)")

	fl.StringVarP(&f.aggregate, "aggregate", "a", "sum", "aggregate: sum, average, min or max")
	fl.IntVarP(&f.width, "width", "w", chart.DefaultWidth, "target line width")
	fl.IntVar(&f.bins, "bins", chart.DefaultBins, "histogram bin count")
	fl.BoolVar(&f.showAggregate, "show-aggregate", false, "print the aggregate next to every primary label")
	fl.BoolVar(&f.showAncestorAggregate, "show-ancestor-aggregate", false, "print the aggregate next to every collapsed ancestor")
	fl.BoolVar(&f.abbreviate, "abbreviate", false, "shorten display values towards their header width")
	fl.BoolVar(&f.abbreviateBreakdown, "abbreviate-breakdown", false, "shorten breakdown headers that would not fit")

	fl.StringVar(&f.mongoURI, "mongo-uri", os.Getenv(envMongoURI), "MongoDB connection string (env "+envMongoURI+")")
	fl.StringVar(&f.mongoDatabase, "mongo-database", "", "MongoDB database")
	fl.StringVar(&f.mongoCollection, "mongo-collection", "", "load this MongoDB collection instead of a file")
	fl.StringSliceVar(&f.mongoFields, "mongo-fields", nil, "document fields to load (default: the role columns)")
	fl.Int64Var(&f.mongoLimit, "mongo-limit", 0, "maximum number of documents")
}

// options layers flags that were set over the config file.
func (f *chartFlags) options(cmd *cobra.Command, args []string, cfg config) (pipeline.Options, error) {
	opts := cfg.Render
	fl := cmd.Flags()
	changed := fl.Changed

	if len(args) > 0 {
		opts.Path = args[0]
		opts.Mongo = nil
	}

	if changed("kind") || opts.Kind == "" {
		kind, err := chart.ParseKind(f.kind)
		if err != nil {
			return opts, err
		}
		opts.Kind = kind
	}
	if changed("primary") {
		opts.Roles.Primary = f.primary
	}
	if changed("display") {
		opts.Roles.Display = f.display
	}
	if changed("breakdown") {
		opts.Roles.Breakdown = f.breakdown
	}
	if changed("value") {
		opts.Roles.Value = f.value
	}

	if changed("aggregate") {
		agg, err := aggregate.Parse(f.aggregate)
		if err != nil {
			return opts, err
		}
		opts.Chart.Aggregate = agg
	}
	if changed("width") || opts.Chart.Width == 0 {
		opts.Chart.Width = f.width
	}
	if changed("bins") || opts.Chart.Bins == 0 {
		opts.Chart.Bins = f.bins
	}
	if changed("show-aggregate") {
		opts.Chart.ShowAggregate = f.showAggregate
	}
	if changed("show-ancestor-aggregate") {
		opts.Chart.ShowAncestorAggregate = f.showAncestorAggregate
	}
	if changed("abbreviate") {
		opts.Chart.Abbreviate = f.abbreviate
	}
	if changed("abbreviate-breakdown") {
		opts.Chart.AbbreviateBreakdown = f.abbreviateBreakdown
	}

	if f.mongoCollection != "" {
		opts.Path = ""
		opts.Mongo = &mongo.Config{
			URI:        f.mongoURI,
			Database:   f.mongoDatabase,
			Collection: f.mongoCollection,
			Fields:     f.mongoFields,
			Limit:      f.mongoLimit,
		}
	}
	if opts.Mongo != nil && len(opts.Mongo.Fields) == 0 {
		opts.Mongo.Fields = roleColumns(opts)
	}

	if opts.Path == "" && opts.Mongo == nil {
		return opts, fmt.Errorf("no dataset: pass a file or --mongo-collection")
	}
	return opts, nil
}

// roleColumns lists every column named by the roles, primary first.
func roleColumns(opts pipeline.Options) []string {
	var cols []string
	add := func(name string) {
		if name != "" && !slices.Contains(cols, name) {
			cols = append(cols, name)
		}
	}
	add(opts.Roles.Primary)
	for _, d := range opts.Roles.Display {
		add(d)
	}
	add(opts.Roles.Breakdown)
	add(opts.Roles.Value)
	return cols
}

// renderCommand creates the render command that prints a chart.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags   chartFlags
		caching cacheFlags
		output  string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a dataset as a text chart",
		Long: `Render a dataset (.json, .toml, .yaml) or a MongoDB collection as a text chart.

Examples:
  flat render zoo.json --kind dag --primary animal --display animal,size
  flat render zoo.json --value weight --aggregate average --show-aggregate
  flat render latency.yaml --kind histogram --bins 20
  flat render --mongo-collection sightings --mongo-database zoo --primary animal`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, args, cfg)
			if err != nil {
				return err
			}
			opts.Refresh = refresh
			caching.merge(cfg)
			return c.runRender(cmd, opts, caching, output)
		},
	}

	flags.bind(cmd)
	caching.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the chart to a file instead of stdout")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached renders")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, opts pipeline.Options, caching cacheFlags, output string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, caching)
	if err != nil {
		return err
	}
	defer runner.Close()

	var spinner *Spinner
	if opts.Mongo != nil {
		spinner = newSpinnerWithContext(ctx, "Querying "+opts.Mongo.Source())
		spinner.Start()
	}
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, opts)
	if spinner != nil {
		if err != nil {
			spinner.StopWithError("Query failed")
		} else {
			spinner.StopWithSuccess(fmt.Sprintf("Loaded %d documents", result.Stats.Rows))
		}
	}
	if err != nil {
		return err
	}
	prog.done("rendered chart", "kind", opts.Kind, "rows", result.Stats.Rows, "cached", result.CacheInfo.ChartHit)
	logger.Debug("measurements",
		"count", result.Stats.Summary.Count,
		"sum", result.Stats.Summary.Sum,
		"min", result.Stats.Summary.Min,
		"max", result.Stats.Summary.Max)

	if output == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), result.Chart)
		return err
	}
	if err := os.WriteFile(output, []byte(result.Chart+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printStats(result.Stats.Rows, result.CacheInfo.ChartHit)
	printFile(output)
	return nil
}

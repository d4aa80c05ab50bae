package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flat/pkg/nodelink"
	"github.com/matzehuels/flat/pkg/pipeline"
)

// Export formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// exportCommand creates the export command that writes the collapsed path
// tree as a Graphviz diagram.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		flags  chartFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the grouping tree as Graphviz DOT or SVG",
		Long: `Export the display paths of a dataset as a node-link tree.

The root carries the measurement, outermost display values branch off it
and primary values are the leaves. --show-aggregate adds the aggregated
value to every node.

Examples:
  flat export zoo.json --display animal,size > zoo.dot
  flat export zoo.json --display animal,size --format svg -o zoo.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatDOT && format != formatSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", format)
			}
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, args, cfg)
			if err != nil {
				return err
			}
			return c.runExport(cmd, opts, format, output)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, opts pipeline.Options, format, output string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	d, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	view, err := d.Resolve(opts.Roles)
	if err != nil {
		return err
	}

	dot, err := nodelink.ToDOT(view, nodelink.Options{
		Aggregate: opts.Chart.Aggregate,
		Detailed:  opts.Chart.ShowAggregate,
	})
	if err != nil {
		return err
	}
	data := []byte(dot)

	if format == formatSVG {
		prog := newProgress(logger)
		if data, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return err
		}
		prog.done("rendered svg", "bytes", len(data))
	}

	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Exported %s", format)
	printFile(output)
	return nil
}

package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flat/internal/server"
	"github.com/matzehuels/flat/pkg/cache"
)

// serverKeyPrefix keeps API renders apart from CLI renders in a shared cache.
const serverKeyPrefix = "server:"

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		caching    cacheFlags
		addr       string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts over HTTP",
		Long: `Serve the render API until interrupted.

  POST /v1/render/{kind}    render a chart from an inline dataset
  POST /v1/export/{format}  export the grouping tree as dot or svg
  GET  /healthz             liveness and build information`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			caching.merge(cfg)
			if !cmd.Flags().Changed("addr") && cfg.Addr != "" {
				addr = cfg.Addr
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, caching)
			if err != nil {
				return err
			}
			defer runner.Close()
			runner.Keyer = cache.NewScopedKeyer(runner.Keyer, serverKeyPrefix)

			printInfo("Serving on %s", StyleHighlight.Render(addr))
			err = server.New(runner, c.Logger).ListenAndServe(ctx, addr)
			if errors.Is(err, context.Canceled) {
				printSuccess("Server stopped")
				return nil
			}
			return err
		},
	}

	caching.bind(cmd)
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/flat/config.toml)")

	return cmd
}

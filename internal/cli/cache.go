package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flat/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var (
		caching    cacheFlags
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached charts and datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			caching.merge(cfg)

			if caching.redisURL != "" {
				rc, err := cache.NewRedisCache(cmd.Context(), caching.redisURL)
				if err != nil {
					return fmt.Errorf("connect to redis: %w", err)
				}
				defer rc.Close()
				count, err := rc.Clear(cmd.Context())
				if err != nil {
					return err
				}
				printSuccess("Cleared %d cached entries", count)
				return nil
			}

			dir := caching.dir
			if dir == "" {
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&caching.redisURL, "redis-url", "", "clear a Redis cache instead of the directory")
	cmd.Flags().StringVar(&caching.dir, "cache-dir", "", "cache directory (default $XDG_CACHE_HOME/flat)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/flat/config.toml)")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flat/pkg/buildinfo"
	"github.com/matzehuels/flat/pkg/cache"
	"github.com/matzehuels/flat/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flat"

	// envRedisURL and envMongoURI provide flag defaults.
	envRedisURL = "FLAT_REDIS_URL"
	envMongoURI = "FLAT_MONGO_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "flat draws grouped data as plain-text charts",
		Long:         `flat renders datasets as text bar charts, collapsed group trees and histograms that read well in a terminal, a log file or a code review.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags selects the render cache.
type cacheFlags struct {
	noCache  bool
	redisURL string
	dir      string
}

func (f *cacheFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", os.Getenv(envRedisURL), "cache renders in Redis instead of on disk (env "+envRedisURL+")")
	cmd.Flags().StringVar(&f.dir, "cache-dir", "", "cache directory (default $XDG_CACHE_HOME/flat)")
}

// merge fills unset fields from the config file.
func (f *cacheFlags) merge(cfg config) {
	if f.redisURL == "" {
		f.redisURL = cfg.RedisURL
	}
	if f.dir == "" {
		f.dir = cfg.CacheDir
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) (*pipeline.Runner, error) {
	cache, err := newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(ctx context.Context, f cacheFlags) (cache.Cache, error) {
	if f.noCache {
		return cache.NewNullCache(), nil
	}
	if f.redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, f.redisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return cache.Instrumented(rc), nil
	}
	dir := f.dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.Instrumented(fc), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flat/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the default config file (~/.config/flat/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

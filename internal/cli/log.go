// Package cli implements the flat command-line interface.
//
// The commands load a dataset, render it through the pipeline and print
// the chart on stdout. Status lines and logs go to stderr so charts can be
// piped. The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - render: Print a bar, dag, path or histogram chart
//   - export: Write the grouping tree as Graphviz DOT or SVG
//   - serve: Run the HTTP render API
//   - cache: Manage the render cache
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/flat/config.toml (or --config);
// flags override the file. FLAT_REDIS_URL and FLAT_MONGO_URI provide
// defaults for --redis-url and --mongo-uri.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes leveled lines to w (stderr in main) with a
// "15:04:05.00" timestamp, leaving stdout to the chart.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command stage, such as loading and rendering a chart
// or converting DOT to SVG.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the elapsed duration:
//
//	14:32:01.45 INFO rendered chart kind=dag rows=42 duration=12ms
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "duration", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type loggerKey struct{}

// withLogger attaches the CLI logger in the root's PersistentPreRun so
// every subcommand logs at the level chosen by --verbose.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default()
// when a command runs without the root (as in tests).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

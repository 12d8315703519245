// Package cli implements the reading command-line tool.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-reading-service/internal/config"
	"github.com/couchcryptid/weather-reading-service/internal/sink"
)

// sinkOpener opens the configured report destination.
type sinkOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sink.Sink, error)

// NewRootCommand builds the reading command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, sink.Open)
}

func newRootCommand(version string, openSink sinkOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "reading",
		Short:         "Weather reading tools",
		Long:          `reading derives relative humidity, heat index and wind chill from weather measurements and publishes station observations as reports.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDescribeCommand(),
		newPublishCommand(openSink),
	)
	return root
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

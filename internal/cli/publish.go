package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-reading-service/internal/config"
	"github.com/couchcryptid/weather-reading-service/internal/domain"
	"github.com/couchcryptid/weather-reading-service/internal/observability"
	"github.com/couchcryptid/weather-reading-service/internal/pipeline"
)

func newPublishCommand(openSink sinkOpener) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish observations from a JSON file to the configured sink",
		Long: `publish reads a JSON array of observations (or a single observation) and
publishes a report for each valid one to the sink selected by SINK.
Use --file - to read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)

			body, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			events, err := domain.DecodeObservations(body, "file", time.Now().UTC())
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			ctx := cmd.Context()
			s, err := openSink(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); cerr != nil {
					logger.Warn("close sink", "error", cerr)
				}
			}()

			metrics := observability.NewMetricsWith(prometheus.NewRegistry())
			pub := pipeline.New(pipeline.NewTransformer(), s.Loader, logger, metrics, cfg.BatchSize, cfg.LoadMaxAttempts)

			result, pubErr := pub.Publish(ctx, events)
			if err := printResult(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return pubErr
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "observations JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	return body, nil
}

func printResult(w io.Writer, res pipeline.Result) error {
	if _, err := fmt.Fprintf(w, "published %d, rejected %d\n", len(res.Reports), len(res.Rejected)); err != nil {
		return err
	}
	for _, rej := range res.Rejected {
		station := rej.StationID
		if station == "" {
			station = "-"
		}
		if _, err := fmt.Fprintf(w, "  #%d %s [%s] %v\n", rej.Index, station, domain.RejectReason(rej.Err), rej.Err); err != nil {
			return err
		}
	}
	return nil
}

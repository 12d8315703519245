package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-reading-service/internal/domain"
)

func newDescribeCommand() *cobra.Command {
	var (
		temp, dew, wind float64
		rain            int
	)

	cmd := &cobra.Command{
		Use:     "describe",
		Short:   "Print a reading and its derived metrics",
		Example: `  reading describe --temp 9 --dew 8 --wind 7 --rain 6`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := domain.NewReading(temp, dew, wind, rain)
			if err != nil {
				return err
			}
			return describe(cmd, r)
		},
	}

	cmd.Flags().Float64Var(&temp, "temp", 0, "air temperature in °C")
	cmd.Flags().Float64Var(&dew, "dew", 0, "dew point temperature in °C")
	cmd.Flags().Float64Var(&wind, "wind", 0, "wind speed in mph")
	cmd.Flags().IntVar(&rain, "rain", 0, "rain over the last 24 hours in mm")
	for _, name := range []string{"temp", "dew", "wind", "rain"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func describe(cmd *cobra.Command, r domain.WeatherReading) error {
	out := cmd.OutOrStdout()
	_, err := fmt.Fprintf(out, "%s\nrelative humidity: %d%%\nheat index: %d°C\nwind chill: %d°C\n",
		r, r.RelativeHumidity(), r.HeatIndex(), r.WindChill())
	return err
}

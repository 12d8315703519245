// Command genmock reads station measurement CSV files and generates the
// observation and report fixtures used by the test suites. Reports are built
// with the domain package so fixtures match real publishing behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/stations.csv \
//	  -obs-out internal/pipeline/testdata/observations.json \
//	  -reports-out data/mock/reports.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

var requiredColumns = []string{"station_id", "observed_at", "air_temp_c", "dew_point_c", "wind_speed_mph", "total_rain_mm"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "station measurements CSV")
	obsOut := flag.String("obs-out", "", "output path for the observations JSON fixture")
	reportsOut := flag.String("reports-out", "", "output path for the reports JSON fixture")
	flag.Parse()

	if *csvPath == "" || *obsOut == "" || *reportsOut == "" {
		flag.Usage()
		return errors.New("missing required flags: -csv, -obs-out, -reports-out")
	}

	// Fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	observations, err := readObservations(f)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	reports, rejected := buildReports(observations)
	log.Printf("%d observations, %d reports, %d rejected", len(observations), len(reports), rejected)

	if err := writeJSON(*obsOut, observations); err != nil {
		return fmt.Errorf("writing observations fixture: %w", err)
	}
	log.Printf("wrote observations fixture: %s", *obsOut)

	if err := writeJSON(*reportsOut, reports); err != nil {
		return fmt.Errorf("writing reports fixture: %w", err)
	}
	log.Printf("wrote reports fixture: %s", *reportsOut)

	printStats(os.Stdout, reports)
	return nil
}

// readObservations maps CSV rows onto observation payloads. Blank cells
// become missing fields so the fixture can carry malformed rows too.
func readObservations(r io.Reader) ([]domain.RawObservation, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := colIdx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	out := make([]domain.RawObservation, 0, len(rows)-1)
	for n, row := range rows[1:] {
		obs := domain.RawObservation{
			StationID:  get(row, colIdx, "station_id"),
			ObservedAt: get(row, colIdx, "observed_at"),
		}
		fields := []struct {
			col string
			dst **float64
		}{
			{"air_temp_c", &obs.AirTempC},
			{"dew_point_c", &obs.DewPointC},
			{"wind_speed_mph", &obs.WindSpeedMph},
			{"total_rain_mm", &obs.TotalRainMm},
		}
		for _, fd := range fields {
			v, err := optionalFloat(get(row, colIdx, fd.col))
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", n+2, fd.col, err)
			}
			*fd.dst = v
		}
		out = append(out, obs)
	}
	return out, nil
}

func buildReports(observations []domain.RawObservation) ([]domain.Report, int) {
	var reports []domain.Report //nolint:prealloc // rejected rows are skipped
	rejected := 0
	for i, o := range observations {
		raw, err := json.Marshal(o)
		if err != nil {
			log.Printf("row %d: %v", i+2, err)
			rejected++
			continue
		}
		obs, err := domain.ParseObservation(domain.RawEvent{Value: raw, Source: "file"})
		if err != nil {
			log.Printf("row %d rejected (%s): %v", i+2, domain.RejectReason(err), err)
			rejected++
			continue
		}
		reports = append(reports, domain.ReportFromObservation(obs))
	}
	return reports, rejected
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type stationStats struct {
	station            string
	count              int
	minChill, maxHeat  int
	minHumid, maxHumid int
}

// printStats prints per-station ranges for updating test assertions.
func printStats(w io.Writer, reports []domain.Report) {
	byStation := map[string]*stationStats{}
	for _, r := range reports {
		s, ok := byStation[r.StationID]
		if !ok {
			s = &stationStats{
				station:  r.StationID,
				minChill: r.WindChill, maxHeat: r.HeatIndex,
				minHumid: r.RelativeHumidity, maxHumid: r.RelativeHumidity,
			}
			byStation[r.StationID] = s
		}
		s.count++
		s.minChill = min(s.minChill, r.WindChill)
		s.maxHeat = max(s.maxHeat, r.HeatIndex)
		s.minHumid = min(s.minHumid, r.RelativeHumidity)
		s.maxHumid = max(s.maxHumid, r.RelativeHumidity)
	}

	stats := make([]*stationStats, 0, len(byStation))
	for _, s := range byStation {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].station < stats[j].station })

	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Total reports: %d\n", len(reports))
	for _, s := range stats {
		fmt.Fprintf(w, "  %s: reports=%d humidity=%d..%d max_heat_index=%d min_wind_chill=%d\n",
			s.station, s.count, s.minHumid, s.maxHumid, s.maxHeat, s.minChill)
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
  id                TEXT    PRIMARY KEY,
  station_id        TEXT    NOT NULL,
  observed_at       INTEGER NOT NULL,
  temperature       INTEGER NOT NULL,
  dew_point         INTEGER NOT NULL,
  wind_speed        INTEGER NOT NULL,
  total_rain        INTEGER NOT NULL,
  relative_humidity INTEGER NOT NULL,
  heat_index        INTEGER NOT NULL,
  wind_chill        INTEGER NOT NULL,
  summary           TEXT    NOT NULL,
  processed_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_station_observed ON reports(station_id, observed_at);
`

const insertReport = `
INSERT OR IGNORE INTO reports (
  id, station_id, observed_at, temperature, dew_point, wind_speed, total_rain,
  relative_humidity, heat_index, wind_chill, summary, processed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecent = `
SELECT id, station_id, observed_at, temperature, dew_point, wind_speed, total_rain,
       relative_humidity, heat_index, wind_chill, summary, processed_at
FROM reports
WHERE station_id = ?
ORDER BY observed_at DESC, id DESC
LIMIT ?`

// Store persists reports in SQLite. It implements pipeline.BatchLoader and
// lists recent reports per station.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// One writer at a time; also keeps a :memory: database on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}

	if dir := filepath.Dir(strings.TrimPrefix(path, "file:")); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := "_busy_timeout=5000&_journal_mode=WAL"
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + params, nil
	}
	return fmt.Sprintf("file:%s?%s", path, params), nil
}

// LoadBatch inserts the reports in one transaction. Reports whose ID is
// already stored are skipped.
func (s *Store) LoadBatch(ctx context.Context, reports []domain.Report) (err error) {
	if len(reports) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertReport)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range reports {
		res, err := stmt.ExecContext(ctx,
			r.ID, r.StationID, r.ObservedAt.UTC().UnixNano(),
			r.Temperature, r.DewPoint, r.WindSpeed, r.TotalRain,
			r.RelativeHumidity, r.HeatIndex, r.WindChill,
			r.Summary, r.ProcessedAt.UTC().UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert report %s: %w", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("reports stored", "count", inserted, "duplicates", len(reports)-inserted)
	return nil
}

// Recent returns up to limit reports for a station, newest observation first.
func (s *Store) Recent(ctx context.Context, stationID string, limit int) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, selectRecent, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		var (
			r                       domain.Report
			observedAt, processedAt int64
		)
		if err := rows.Scan(
			&r.ID, &r.StationID, &observedAt,
			&r.Temperature, &r.DewPoint, &r.WindSpeed, &r.TotalRain,
			&r.RelativeHumidity, &r.HeatIndex, &r.WindChill,
			&r.Summary, &processedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.ObservedAt = time.Unix(0, observedAt).UTC()
		r.ProcessedAt = time.Unix(0, processedAt).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

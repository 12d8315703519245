package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return s
}

func report(id, station string, observedAt time.Time) domain.Report {
	return domain.Report{
		ID:               id,
		StationID:        station,
		ObservedAt:       observedAt,
		Temperature:      9,
		DewPoint:         8,
		WindSpeed:        7,
		TotalRain:        6,
		RelativeHumidity: 89,
		HeatIndex:        31,
		WindChill:        7,
		Summary:          "Reading: T = 9, D = 8, v = 7, rain = 6",
		ProcessedAt:      observedAt.Add(time.Minute),
	}
}

func TestStore_LoadBatchAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)

	reports := []domain.Report{
		report("a", "KSEA-01", base),
		report("b", "KSEA-01", base.Add(2*time.Hour)),
		report("c", "KSEA-01", base.Add(time.Hour)),
		report("d", "KMIA-02", base.Add(3*time.Hour)),
	}
	require.NoError(t, s.LoadBatch(ctx, reports))

	got, err := s.Recent(ctx, "KSEA-01", 10)
	require.NoError(t, err)

	want := []domain.Report{reports[1], reports[2], reports[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("recent mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)

	var reports []domain.Report
	for i, id := range []string{"a", "b", "c", "d"} {
		reports = append(reports, report(id, "KSEA-01", base.Add(time.Duration(i)*time.Hour)))
	}
	require.NoError(t, s.LoadBatch(ctx, reports))

	got, err := s.Recent(ctx, "KSEA-01", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestStore_LoadBatchIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := report("a", "KSEA-01", time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC))

	require.NoError(t, s.LoadBatch(ctx, []domain.Report{r}))
	require.NoError(t, s.LoadBatch(ctx, []domain.Report{r, r}))

	got, err := s.Recent(ctx, "KSEA-01", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_RecentUnknownStation(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), "nowhere", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_LoadBatchCancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.LoadBatch(ctx, []domain.Report{report("a", "KSEA-01", time.Now())})
	require.Error(t, err)

	got, err := s.Recent(context.Background(), "KSEA-01", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "readings.db")

	s, err := Open(path, slog.Default())
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.LoadBatch(context.Background(), []domain.Report{report("a", "KSEA-01", time.Now().UTC())}))
	require.NoError(t, s.Close())

	reopened, err := Open(path, slog.Default())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Recent(context.Background(), "KSEA-01", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()

	dsn, err := buildDSN(filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.Equal(t, "file:"+filepath.Join(dir, "a.db")+"?_busy_timeout=5000&_journal_mode=WAL", dsn)

	dsn, err = buildDSN("file:" + filepath.Join(dir, "b.db") + "?cache=shared")
	require.NoError(t, err)
	assert.Contains(t, dsn, "?cache=shared&_busy_timeout=5000")

	dsn, err = buildDSN(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", dsn)
}

package stats

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "stats.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// recordAt records a view with the store clock pinned to at.
func recordAt(t *testing.T, s *Store, at time.Time, contentID, episodeID string) {
	t.Helper()
	s.now = func() time.Time { return at }
	require.NoError(t, s.RecordView(context.Background(), contentID, episodeID))
}

func TestRecordAndCountViews(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	n, err := s.CountViews(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.RecordView(ctx, "c1", ""))
	require.NoError(t, s.RecordView(ctx, "c1", "e1"))
	assert.Error(t, s.RecordView(ctx, "", "e1"))

	n, err = s.CountViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestViewsByPeriodZeroFills(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	recordAt(t, s, now.Add(-2*time.Hour), "c1", "")
	recordAt(t, s, now.Add(-3*time.Hour), "c2", "")
	recordAt(t, s, now.AddDate(0, 0, -2), "c1", "")
	recordAt(t, s, now.AddDate(0, 0, -40), "c1", "")

	day, err := s.ViewsByPeriod(ctx, PeriodDay, now)
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, DailyView{Date: "2024-03-10", Views: 2}, day[0])

	week, err := s.ViewsByPeriod(ctx, PeriodWeek, now)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, "2024-03-04", week[0].Date)
	assert.Equal(t, "2024-03-10", week[6].Date)
	assert.Equal(t, 1, week[4].Views, "2024-03-08")
	assert.Equal(t, 0, week[5].Views, "2024-03-09")

	month, err := s.ViewsByPeriod(ctx, "anything", now)
	require.NoError(t, err)
	require.Len(t, month, 30)
	total := 0
	for _, d := range month {
		total += d.Views
	}
	assert.Equal(t, 3, total, "the 40-day-old view is outside the window")
}

func TestViewsByContent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	recordAt(t, s, now, "b", "")
	recordAt(t, s, now, "a", "e1")
	recordAt(t, s, now, "a", "e2")
	recordAt(t, s, now.AddDate(0, 0, -20), "c", "")

	ranked, err := s.ViewsByContent(ctx, now.AddDate(0, 0, -7), now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []ContentViews{{ContentID: "a", Views: 2}, {ContentID: "b", Views: 1}}, ranked)

	ranked, err = s.ViewsByContent(ctx, now.AddDate(0, 0, -30), now.Add(time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, []ContentViews{{ContentID: "a", Views: 2}}, ranked)
}

func TestSummarize(t *testing.T) {
	s := setupTestStore(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	recordAt(t, s, now, "a", "")
	recordAt(t, s, now.AddDate(0, 0, -3), "b", "")
	recordAt(t, s, now.AddDate(0, 0, -100), "c", "")

	sum, err := s.Summarize(context.Background(), PeriodWeek, now, 5)
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, sum.Period)
	assert.Equal(t, 3, sum.TotalViews)
	assert.Equal(t, 2, sum.PeriodViews)
	assert.Len(t, sum.Daily, 7)
	assert.Len(t, sum.TopContents, 2)

	sum, err = s.Summarize(context.Background(), "bogus", now, 5)
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, sum.Period)
	assert.Len(t, sum.Daily, 30)
}

func TestCleanup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	recordAt(t, s, now.AddDate(0, 0, -100), "old", "")
	recordAt(t, s, now.AddDate(0, 0, -1), "new", "")

	s.now = func() time.Time { return now }
	deleted, err := s.Cleanup(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	n, err := s.CountViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStartCleanupSchedulerStops(t *testing.T) {
	s := setupTestStore(t)
	recordAt(t, s, time.Now().AddDate(0, 0, -100), "old", "")
	s.now = time.Now

	stop := s.StartCleanupScheduler(90, 10*time.Millisecond, nil)
	defer stop()

	require.Eventually(t, func() bool {
		n, err := s.CountViews(context.Background())
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)

	stop()
	stop()
}

func TestRecordUniqueViewDedupes(t *testing.T) {
	s := setupTestStore(t, WithDedupWindow(time.Hour))
	ctx := context.Background()

	counted, err := s.RecordUniqueView(ctx, "203.0.113.1", "c1", "e1")
	require.NoError(t, err)
	assert.True(t, counted)

	counted, err = s.RecordUniqueView(ctx, "203.0.113.1", "c1", "e1")
	require.NoError(t, err)
	assert.False(t, counted, "same client and item within the window")

	counted, err = s.RecordUniqueView(ctx, "203.0.113.1", "c1", "e2")
	require.NoError(t, err)
	assert.True(t, counted, "different episode")

	counted, err = s.RecordUniqueView(ctx, "203.0.113.2", "c1", "e1")
	require.NoError(t, err)
	assert.True(t, counted, "different client")

	n, err := s.CountViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMigrateUpgradesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	ctx := context.Background()
	indexQuery := `SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_view_stats_episode'`

	s, err := NewStore(path)
	require.NoError(t, err)
	v, err := s.getSetting(ctx, "schema_version")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(len(migrations)), v)
	var name string
	require.NoError(t, s.db.QueryRowContext(ctx, indexQuery).Scan(&name))

	// Roll back to version 1; reopening must apply the episode index again.
	_, err = s.db.ExecContext(ctx, `DROP INDEX idx_view_stats_episode`)
	require.NoError(t, err)
	require.NoError(t, s.setSetting(ctx, "schema_version", "1"))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.db.QueryRowContext(ctx, indexQuery).Scan(&name))
	v, err = s.getSetting(ctx, "schema_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	v, err = s.getSetting(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestCleanupRecordsLastRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	last, err := s.LastCleanup(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	_, err = s.Cleanup(ctx, 90)
	require.NoError(t, err)

	last, err = s.LastCleanup(ctx)
	require.NoError(t, err)
	assert.True(t, now.Equal(last))
}

func TestCleanupSchedulerWaitsAfterRecentRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	s.now = time.Now
	_, err := s.Cleanup(ctx, 90)
	require.NoError(t, err)

	recordAt(t, s, time.Now().AddDate(0, 0, -100), "old", "")
	s.now = time.Now

	stop := s.StartCleanupScheduler(90, time.Hour, nil)
	defer stop()

	time.Sleep(50 * time.Millisecond)
	n, err := s.CountViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "last run is within the interval")
}

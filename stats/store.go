package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// DefaultDedupWindow is how long a repeat view from the same client of the
// same item is ignored.
const DefaultDedupWindow = 10 * time.Minute

// Store provides database operations for view statistics.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	dedup *rateLimiter
}

// Option configures a Store.
type Option func(*Store)

// WithDedupWindow overrides DefaultDedupWindow.
func WithDedupWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.dedup.stop()
			s.dedup = newRateLimiter(1, d)
		}
	}
}

// NewStore opens (or creates) the statistics database at dbPath.
func NewStore(dbPath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{
		db:    db,
		now:   time.Now,
		dedup: newRateLimiter(1, DefaultDedupWindow),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		s.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close stops background work and closes the database connection.
func (s *Store) Close() error {
	s.dedup.stop()
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS view_stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_id TEXT NOT NULL,
			episode_id TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_view_stats_timestamp ON view_stats(timestamp);
		CREATE INDEX IF NOT EXISTS idx_view_stats_content ON view_stats(content_id);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// migrations[i] upgrades the schema from version i to i+1.
var migrations = []string{
	``,
	`CREATE INDEX IF NOT EXISTS idx_view_stats_episode ON view_stats(episode_id) WHERE episode_id != ''`,
}

func (s *Store) migrate(ctx context.Context) error {
	verStr, err := s.getSetting(ctx, "schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		if version, err = strconv.Atoi(verStr); err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	for ; version < len(migrations); version++ {
		if stmt := migrations[version]; stmt != "" {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d: %w", version+1, err)
			}
		}
		if err := s.setSetting(ctx, "schema_version", strconv.Itoa(version+1)); err != nil {
			return err
		}
	}
	return nil
}

// getSetting returns "" for a missing key.
func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// RecordView appends a view of contentID (and episodeID, if any).
func (s *Store) RecordView(ctx context.Context, contentID, episodeID string) error {
	if contentID == "" {
		return errors.New("record view: empty content id")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO view_stats (content_id, episode_id, timestamp) VALUES (?, ?, ?)`,
		contentID, episodeID, s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// RecordUniqueView records a view unless the same client viewed the same
// item within the dedup window. It reports whether the view was counted.
func (s *Store) RecordUniqueView(ctx context.Context, clientIP, contentID, episodeID string) (bool, error) {
	if !s.dedup.allow(clientIP + "|" + contentID + "|" + episodeID) {
		return false, nil
	}
	if err := s.RecordView(ctx, contentID, episodeID); err != nil {
		return false, err
	}
	return true, nil
}

// CountViews returns the total number of recorded views.
func (s *Store) CountViews(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM view_stats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return n, nil
}

// ViewsByPeriod returns one point per UTC day for the days covered by
// period, ending with now's day. Days without views are zero.
func (s *Store) ViewsByPeriod(ctx context.Context, period string, now time.Time) ([]DailyView, error) {
	days := PeriodDays(period)
	start := truncateDay(now).AddDate(0, 0, -(days - 1))

	rows, err := s.db.QueryContext(ctx, `SELECT substr(timestamp, 1, 10) AS day, COUNT(*) FROM view_stats
		WHERE timestamp >= ? GROUP BY day`, start.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("views by period: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, days)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]DailyView, days)
	for i := range out {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = DailyView{Date: d, Views: counts[d]}
	}
	return out, nil
}

// ViewsByContent ranks contents by views recorded in [from, to).
func (s *Store) ViewsByContent(ctx context.Context, from, to time.Time, limit int) ([]ContentViews, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT content_id, COUNT(*) AS views FROM view_stats
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY content_id ORDER BY views DESC, content_id LIMIT ?`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout), limit)
	if err != nil {
		return nil, fmt.Errorf("views by content: %w", err)
	}
	defer rows.Close()

	out := []ContentViews{}
	for rows.Next() {
		var cv ContentViews
		if err := rows.Scan(&cv.ContentID, &cv.Views); err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// Summarize gathers the statistics page aggregates for period.
func (s *Store) Summarize(ctx context.Context, period string, now time.Time, top int) (*Summary, error) {
	period = NormalizePeriod(period)
	from := truncateDay(now).AddDate(0, 0, -(PeriodDays(period) - 1))
	to := truncateDay(now).AddDate(0, 0, 1)
	sum := &Summary{
		Period:      period,
		Daily:       []DailyView{},
		TopContents: []ContentViews{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.CountViews(gctx)
		if err != nil {
			return err
		}
		sum.TotalViews = n
		return nil
	})

	g.Go(func() error {
		daily, err := s.ViewsByPeriod(gctx, period, now)
		if err != nil {
			return err
		}
		sum.Daily = daily
		for _, d := range daily {
			sum.PeriodViews += d.Views
		}
		return nil
	})

	g.Go(func() error {
		ranked, err := s.ViewsByContent(gctx, from, to, top)
		if err != nil {
			return err
		}
		sum.TopContents = ranked
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}

// Cleanup removes views older than retentionDays and returns how many rows
// were deleted. The run time is kept so a restarted scheduler resumes the
// same cadence.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, `DELETE FROM view_stats WHERE timestamp < ?`, cutoff.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("cleanup view_stats: %w", err)
	}
	if err := s.setSetting(ctx, "last_cleanup", now.Format(timeLayout)); err != nil {
		return 0, fmt.Errorf("store last cleanup: %w", err)
	}
	return res.RowsAffected()
}

// LastCleanup returns when Cleanup last ran, or the zero time if it never has.
func (s *Store) LastCleanup(ctx context.Context) (time.Time, error) {
	v, err := s.getSetting(ctx, "last_cleanup")
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(timeLayout, v)
}

// Logger is the subset of echo.Logger the scheduler reports to.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// StartCleanupScheduler runs Cleanup every interval. The first run happens
// one interval after the previous recorded run, or right away if there is
// none. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, log Logger) func() {
	var wait time.Duration
	last, err := s.LastCleanup(context.Background())
	if err != nil && log != nil {
		log.Errorf("stats cleanup: %v", err)
	}
	if !last.IsZero() {
		wait = max(interval-s.now().Sub(last), 0)
	}

	timer := time.NewTimer(wait)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				if _, err := s.Cleanup(context.Background(), retentionDays); err != nil && log != nil {
					log.Errorf("stats cleanup: %v", err)
				}
				timer.Reset(interval)
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

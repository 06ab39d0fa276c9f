// Package stats records content and episode views in their own SQLite
// database and aggregates them for the admin statistics page.
package stats

import "time"

// View is a single recorded view. EpisodeID is empty for movies and
// content pages.
type View struct {
	ID        int64     `json:"-"`
	ContentID string    `json:"content_id"`
	EpisodeID string    `json:"episode_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyView is the number of views on one UTC day.
type DailyView struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Views int    `json:"views"`
}

// ContentViews is the number of views a content received in a range.
type ContentViews struct {
	ContentID string `json:"content_id"`
	Views     int    `json:"views"`
}

// Summary holds the aggregates shown on the statistics page.
type Summary struct {
	Period      string         `json:"period"`
	TotalViews  int            `json:"total_views"`
	PeriodViews int            `json:"period_views"`
	Daily       []DailyView    `json:"daily"`
	TopContents []ContentViews `json:"top_contents"`
}

// Periods accepted by ViewsByPeriod.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// PeriodDays maps a period name to the number of days it covers. Unknown
// names cover a month.
func PeriodDays(period string) int {
	switch period {
	case PeriodDay:
		return 1
	case PeriodWeek:
		return 7
	default:
		return 30
	}
}

// NormalizePeriod returns period, or PeriodMonth when it is not recognised.
func NormalizePeriod(period string) string {
	switch period {
	case PeriodDay, PeriodWeek:
		return period
	default:
		return PeriodMonth
	}
}

// truncateDay returns midnight UTC of t's day.
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package views

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/player"
	"github.com/moonlightbl/moonlight/stats"
)

type option struct {
	Value string
	Label string
}

var (
	statuses = []catalog.Status{catalog.StatusPublished, catalog.StatusPending}

	sortOptions = []option{
		{"views", "Más vistos"},
		{"rating", "Mejor valorados"},
		{"title", "Título"},
		{"year", "Año"},
	}

	autoTypeOptions = []option{
		{"popular", "Populares"},
		{"trending", "Tendencias"},
		{"latest", "Recientes"},
	}

	periodOptions = []option{
		{stats.PeriodDay, "Hoy"},
		{stats.PeriodWeek, "7 días"},
		{stats.PeriodMonth, "30 días"},
	}
)

// Count formats a view counter with thousands separators ("1.234.567").
func Count(n any) string {
	var v int64
	switch x := n.(type) {
	case int:
		v = int64(x)
	case int64:
		v = x
	default:
		return fmt.Sprint(n)
	}
	return humanize.FormatInteger("#.###,", int(v))
}

// FormatDate renders t in the local day/month/year order used across the site.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// FormatChanges renders an audit log's changes as "key: value" pairs
// sorted by key.
func FormatChanges(changes map[string]any) string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, changes[k])
	}
	return strings.Join(parts, ", ")
}

// Percent returns v as a whole percentage of max, for bar widths.
func Percent(v, max int) int {
	if max <= 0 {
		return 0
	}
	return v * 100 / max
}

func barWidth(v, max int) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("width: %d%%", Percent(v, max)))
}

func pageTitle(title, site string) string {
	if title == "" {
		return site
	}
	return title + " | " + site
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func currentYear() int { return time.Now().Year() }

// optionalInt leaves unset numeric fields blank instead of showing 0.
func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func optionalFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func yearSuffix(year int) string {
	if year == 0 {
		return ""
	}
	return " · " + strconv.Itoa(year)
}

func joinList(vals []string) string { return strings.Join(vals, ", ") }

func queryEscape(s string) string { return url.QueryEscape(s) }

func contentMeta(c catalog.Content) string {
	var parts []string
	if c.Year != 0 {
		parts = append(parts, strconv.Itoa(c.Year))
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	if c.Rating != 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", c.Rating))
	}
	parts = append(parts, Count(c.Views)+" visualizaciones")
	return strings.Join(parts, " · ")
}

func episodeMeta(s catalog.Season, e catalog.Episode) string {
	parts := []string{s.DisplayTitle(), "Episodio " + strconv.Itoa(e.Number)}
	if e.Duration > 0 {
		parts = append(parts, strconv.Itoa(e.Duration)+" min")
	}
	parts = append(parts, Count(e.Views)+" visualizaciones")
	return strings.Join(parts, " · ")
}

func searchSummary(n int, query, genre string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d resultados", n)
	if query != "" {
		fmt.Fprintf(&b, " para «%s»", query)
	}
	if genre != "" {
		fmt.Fprintf(&b, " en %s", genre)
	}
	return b.String()
}

func embedLabel(e player.Embed) string {
	parts := []string{e.Name}
	if e.Quality != "" {
		parts = append(parts, e.Quality)
	}
	if e.Audio != "" {
		parts = append(parts, e.Audio)
	}
	if e.Subtitles != "" {
		parts = append(parts, "Subtítulos: "+e.Subtitles)
	}
	return strings.Join(parts, " · ")
}

func typeBreakdown(o catalog.Overview) string {
	return fmt.Sprintf("Series %d · Miniseries %d · Películas %d · Anime %d",
		o.SeriesCount, o.MiniseriesCount, o.MoviesCount, o.AnimeCount)
}

func mediaInfo(m catalog.Media) string {
	return fmt.Sprintf("%d×%d · %s", m.Width, m.Height, humanize.Bytes(uint64(m.Size)))
}

func adminContentURL(id string) string { return "/admin/contenidos/" + id + "/" }
func adminSeasonURL(id string) string  { return "/admin/temporadas/" + id + "/" }
func adminEpisodeURL(id string) string { return "/admin/episodios/" + id + "/" }

func contentFormAction(p ContentFormPage) string {
	if p.IsNew {
		return "/admin/contenidos/nuevo/"
	}
	return adminContentURL(p.Content.ID)
}

func seasonFormAction(p SeasonFormPage) string {
	if p.IsNew {
		return adminContentURL(p.Content.ID) + "temporadas/nueva/"
	}
	return adminSeasonURL(p.Season.ID) + "editar/"
}

func episodeFormAction(p EpisodeFormPage) string {
	if p.IsNew {
		return adminSeasonURL(p.Season.ID) + "episodios/nuevo/"
	}
	return adminEpisodeURL(p.Episode.ID) + "editar/"
}

package moonlight

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/markdown"
	"github.com/moonlightbl/moonlight/views"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// absURL turns a site path such as "/series/dark/" into an absolute URL.
// Absolute URLs pass through.
func (a *App) absURL(p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(a.Config.URL, "/") + p
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitList splits a comma separated form value.
func SplitList(s string) []string {
	return FilterEmpty(strings.Split(s, ","))
}

// FilterRelated returns up to limit contents that share a genre with current.
func FilterRelated(current catalog.Content, contents []catalog.Content, limit int) []catalog.Content {
	genres := make(map[string]struct{})
	for _, g := range current.Genres {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			genres[g] = struct{}{}
		}
	}
	var related []catalog.Content
	for _, c := range contents {
		if c.ID == current.ID {
			continue
		}
		for _, g := range c.Genres {
			if _, ok := genres[strings.ToLower(strings.TrimSpace(g))]; ok {
				related = append(related, c)
				break
			}
		}
		if len(related) == limit {
			break
		}
	}
	return related
}

// maxPage bounds ?page= so skip = (page-1)*limit stays small.
const maxPage = 10000

// pageParam reads ?page= as a 1-based page number in [1, maxPage].
func pageParam(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxPage)
}

// buildPager links the neighbours of page. hasNext is true when the current
// page came back full.
func buildPager(base string, query url.Values, page int, hasNext bool) views.Pager {
	link := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			if k != "page" && len(v) > 0 && v[0] != "" {
				q[k] = v
			}
		}
		if n > 1 {
			q.Set("page", strconv.Itoa(n))
		}
		if len(q) == 0 {
			return base
		}
		return base + "?" + q.Encode()
	}
	p := views.Pager{Number: page}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if hasNext {
		p.NextURL = link(page + 1)
	}
	return p
}

// page builds the shared page model.
func (a *App) page(c echo.Context, title, description, canonicalPath string) views.Page {
	return views.Page{
		Site: a.site(),
		Meta: views.PageMeta{
			Title:       title,
			Description: description,
			URL:         a.absURL(canonicalPath),
			OGType:      "website",
		},
		CSRF: CsrfToken(c),
	}
}

func (a *App) site() views.Site {
	return views.Site{Name: a.Config.Name, URL: a.Config.URL, Description: a.Config.Description}
}

func marshalJSONLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema with a
// search action.
func WebsiteJsonLD(cfg SiteConfig) string {
	return marshalJSONLD(map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
		"potentialAction": map[string]any{
			"@type":       "SearchAction",
			"target":      BuildURL(cfg.URL, "buscar") + "?q={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	})
}

func schemaType(t catalog.ContentType) string {
	if t == catalog.TypePelicula {
		return "Movie"
	}
	return "TVSeries"
}

func ogType(t catalog.ContentType) string {
	if t == catalog.TypePelicula {
		return "video.movie"
	}
	return "video.tv_show"
}

// ContentJsonLD returns a JSON-LD string for a Movie or TVSeries schema.
func ContentJsonLD(c catalog.Content, cfg SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       schemaType(c.Type),
		"name":        c.Title,
		"url":         BuildURL(cfg.URL, c.Type.Slug(), c.Slug),
		"description": markdown.Excerpt(c.Synopsis, 300),
	}
	if c.Poster != "" {
		data["image"] = c.Poster
	}
	if len(c.Genres) > 0 {
		data["genre"] = c.Genres
	}
	if c.Year > 0 {
		data["dateCreated"] = strconv.Itoa(c.Year)
	}
	if c.Rating > 0 {
		data["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": c.Rating,
			"bestRating":  10,
			"ratingCount": 1,
		}
	}
	if len(c.Cast) > 0 {
		actors := make([]map[string]string, len(c.Cast))
		for i, name := range c.Cast {
			actors[i] = map[string]string{"@type": "Person", "name": name}
		}
		data["actor"] = actors
	}
	if c.Type.HasSeasons() && c.SeasonCount > 0 {
		data["numberOfSeasons"] = c.SeasonCount
	}
	return marshalJSONLD(data)
}

// EpisodeJsonLD returns a JSON-LD string for a TVEpisode schema.
func EpisodeJsonLD(ep catalog.Episode, cfg SiteConfig) string {
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "TVEpisode",
		"name":          ep.DisplayTitle(),
		"episodeNumber": ep.Number,
		"url":           strings.TrimRight(cfg.URL, "/") + ep.Link(),
		"partOfSeason": map[string]any{
			"@type":        "TVSeason",
			"seasonNumber": ep.SeasonNumber,
		},
		"partOfSeries": map[string]any{
			"@type": "TVSeries",
			"name":  ep.ContentTitle,
			"url":   BuildURL(cfg.URL, ep.ContentType.Slug(), ep.ContentSlug),
		},
	}
	if ep.Synopsis != "" {
		data["description"] = markdown.Excerpt(ep.Synopsis, 300)
	}
	if ep.Duration > 0 {
		data["timeRequired"] = "PT" + strconv.Itoa(ep.Duration) + "M"
	}
	return marshalJSONLD(data)
}

package moonlight

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
)

// blankServerRows is how many empty server rows the edit forms offer.
const blankServerRows = 2

func formInt(form url.Values, field, label string) (int, error) {
	v := strings.TrimSpace(form.Get(field))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &catalog.ValidationError{Field: field, Message: label + " no válido"}
	}
	return n, nil
}

func formChecked(form url.Values, field string) bool {
	v := form.Get(field)
	return v != "" && v != "0"
}

// parseServers reads the parallel server_* fields. Rows without a URL are
// dropped.
func parseServers(form url.Values) []catalog.Server {
	names := form["server_name"]
	urls := form["server_url"]
	field := func(name string, i int) string {
		vals := form[name]
		if i < len(vals) {
			return strings.TrimSpace(vals[i])
		}
		return ""
	}
	var servers []catalog.Server
	for i := range urls {
		u := strings.TrimSpace(urls[i])
		if u == "" {
			continue
		}
		sv := catalog.Server{
			URL:       u,
			Quality:   field("server_quality", i),
			Audio:     field("server_audio", i),
			Subtitles: field("server_subtitles", i),
			IsActive:  field("server_active", i) != "0",
		}
		if i < len(names) {
			sv.Name = strings.TrimSpace(names[i])
		}
		sv.Order, _ = strconv.Atoi(field("server_order", i))
		if strings.HasPrefix(u, "<") {
			sv.EmbedType = "iframe"
		} else {
			sv.EmbedType = "url"
		}
		servers = append(servers, sv)
	}
	return servers
}

// serverRows returns servers plus blank rows for the form.
func serverRows(servers []catalog.Server) []catalog.Server {
	rows := append([]catalog.Server(nil), servers...)
	next := len(servers)
	for i := 0; i < blankServerRows; i++ {
		rows = append(rows, catalog.Server{IsActive: true, Order: next + i})
	}
	return rows
}

// parseContentForm fills c from the content form. ID and counters are left
// untouched.
func parseContentForm(ctx echo.Context, c *catalog.Content) error {
	form, err := ctx.FormParams()
	if err != nil {
		return err
	}
	c.Title = strings.TrimSpace(form.Get("title"))
	c.Slug = strings.TrimSpace(form.Get("slug"))
	c.Type = catalog.ContentType(form.Get("content_type"))
	c.Status = catalog.Status(form.Get("status"))
	c.Synopsis = strings.TrimSpace(form.Get("synopsis"))
	c.Genres = SplitList(form.Get("genres"))
	c.Tags = SplitList(form.Get("tags"))
	c.Cast = SplitList(form.Get("cast"))
	c.Gallery = SplitList(form.Get("gallery"))
	c.Country = strings.TrimSpace(form.Get("country"))
	c.ProductionCompany = strings.TrimSpace(form.Get("production_company"))
	c.Producer = strings.TrimSpace(form.Get("producer"))
	c.Poster = strings.TrimSpace(form.Get("poster"))
	c.Backdrop = strings.TrimSpace(form.Get("backdrop"))
	c.TrailerURL = strings.TrimSpace(form.Get("trailer_url"))
	c.TMDBID = strings.TrimSpace(form.Get("tmdb_id"))
	c.IMDBID = strings.TrimSpace(form.Get("imdb_id"))
	c.IsFeatured = formChecked(form, "is_featured")
	c.IsTrending = formChecked(form, "is_trending")
	c.IsPopular = formChecked(form, "is_popular")
	c.Servers = parseServers(form)

	if c.Year, err = formInt(form, "year", "año"); err != nil {
		return err
	}
	c.Rating = 0
	if v := strings.TrimSpace(form.Get("rating")); v != "" {
		r, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil {
			return &catalog.ValidationError{Field: "rating", Message: "valoración no válida"}
		}
		c.Rating = r
	}
	return nil
}

// parseSeasonForm fills se from the season form.
func parseSeasonForm(ctx echo.Context, se *catalog.Season) error {
	form, err := ctx.FormParams()
	if err != nil {
		return err
	}
	se.Title = strings.TrimSpace(form.Get("title"))
	se.Slug = strings.TrimSpace(form.Get("slug"))
	se.Status = catalog.Status(form.Get("status"))
	se.Synopsis = strings.TrimSpace(form.Get("synopsis"))
	se.Poster = strings.TrimSpace(form.Get("poster"))
	se.Backdrop = strings.TrimSpace(form.Get("backdrop"))
	se.CustomURL = strings.TrimSpace(form.Get("custom_url"))
	se.AirDate = strings.TrimSpace(form.Get("air_date"))
	se.TMDBID = strings.TrimSpace(form.Get("tmdb_id"))
	se.IMDBID = strings.TrimSpace(form.Get("imdb_id"))
	if se.Number, err = formInt(form, "number", "número"); err != nil {
		return err
	}
	if se.Year, err = formInt(form, "year", "año"); err != nil {
		return err
	}
	return nil
}

// parseEpisodeForm fills ep from the episode form.
func parseEpisodeForm(ctx echo.Context, ep *catalog.Episode) error {
	form, err := ctx.FormParams()
	if err != nil {
		return err
	}
	ep.Title = strings.TrimSpace(form.Get("title"))
	ep.Slug = strings.TrimSpace(form.Get("slug"))
	ep.Status = catalog.Status(form.Get("status"))
	ep.Synopsis = strings.TrimSpace(form.Get("synopsis"))
	ep.Poster = strings.TrimSpace(form.Get("poster"))
	ep.Thumbnail = strings.TrimSpace(form.Get("thumbnail"))
	ep.CustomURL = strings.TrimSpace(form.Get("custom_url"))
	ep.AirDate = strings.TrimSpace(form.Get("air_date"))
	ep.TMDBID = strings.TrimSpace(form.Get("tmdb_id"))
	ep.IMDBID = strings.TrimSpace(form.Get("imdb_id"))
	ep.Servers = parseServers(form)
	if ep.Number, err = formInt(form, "number", "número"); err != nil {
		return err
	}
	if ep.Duration, err = formInt(form, "duration", "duración"); err != nil {
		return err
	}
	return nil
}

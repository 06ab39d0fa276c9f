package moonlight

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/markdown"
	"github.com/moonlightbl/moonlight/player"
	"github.com/moonlightbl/moonlight/views"
)

const (
	listingPageSize = 24
	searchLimit     = 60
	relatedLimit    = 12
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	carousel, rows, err := a.Cache.Home(ctx)
	if err != nil {
		return err
	}
	p := a.page(c, "", a.Config.Description, "/")
	p.Meta.JSONLD = WebsiteJsonLD(a.Config)
	return Render(c, views.Home(views.HomePage{Page: p, Carousel: carousel, Rows: rows}))
}

func (a *App) handleListing(t catalog.ContentType) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		filter := views.Filter{
			Genre:   strings.TrimSpace(c.QueryParam("genre")),
			Country: strings.TrimSpace(c.QueryParam("country")),
			Sort:    c.QueryParam("sort"),
		}
		filter.Year, _ = strconv.Atoi(c.QueryParam("year"))
		page := pageParam(c)

		contents, err := a.Catalog.ListContents(ctx, catalog.ContentQuery{
			Type:    t,
			Genre:   filter.Genre,
			Year:    filter.Year,
			Country: filter.Country,
			SortBy:  filter.Sort,
			SortAsc: filter.Sort == "title",
			Limit:   listingPageSize,
			Skip:    (page - 1) * listingPageSize,
		})
		if err != nil {
			return err
		}
		genres, err := a.Cache.Genres(ctx)
		if err != nil {
			return err
		}
		countries, err := a.Cache.Countries(ctx)
		if err != nil {
			return err
		}

		base := "/" + t.Slug() + "/"
		p := a.page(c, t.Label(), t.Label()+" en "+a.Config.Name, base)
		return Render(c, views.Listing(views.ListingPage{
			Page:      p,
			Type:      t,
			Contents:  contents,
			Genres:    genres,
			Countries: countries,
			Filter:    filter,
			Pager:     buildPager(base, c.QueryParams(), page, len(contents) == listingPageSize),
		}))
	}
}

func (a *App) handleSearch(c echo.Context) error {
	ctx := c.Request().Context()
	q := strings.TrimSpace(c.QueryParam("q"))
	genre := strings.TrimSpace(c.QueryParam("genre"))

	var results []catalog.Content
	if q != "" || genre != "" {
		var err error
		results, err = a.Catalog.ListContents(ctx, catalog.ContentQuery{
			Search: q,
			Genre:  genre,
			SortBy: "views",
			Limit:  searchLimit,
		})
		if err != nil {
			return err
		}
	}
	genres, err := a.Cache.Genres(ctx)
	if err != nil {
		return err
	}
	p := a.page(c, "Buscar", "", "/buscar/")
	return Render(c, views.Search(views.SearchPage{Page: p, Query: q, Genre: genre, Genres: genres, Results: results}))
}

// contentFromPath resolves /:type/:slug/. A content reached through another
// type's prefix redirects to its canonical path.
func (a *App) contentFromPath(c echo.Context) (catalog.Content, error) {
	t, ok := catalog.TypeFromSlug(c.Param("type"))
	if !ok {
		return catalog.Content{}, echo.ErrNotFound
	}
	content, err := a.Catalog.GetContentBySlug(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, catalog.ErrNotFound) {
		return content, echo.ErrNotFound
	}
	if err != nil {
		return content, err
	}
	if content.Type != t {
		return content, errWrongType
	}
	return content, nil
}

var errWrongType = errors.New("content type does not match path")

func (a *App) handleContent(c echo.Context) error {
	ctx := c.Request().Context()
	content, err := a.contentFromPath(c)
	if errors.Is(err, errWrongType) {
		return c.Redirect(http.StatusMovedPermanently, content.Link())
	}
	if err != nil {
		return err
	}

	page := views.ContentPage{Content: content}
	if content.Type.HasSeasons() {
		if page.Seasons, err = a.Catalog.ListPublishedSeasons(ctx, content.Slug); err != nil {
			return err
		}
	} else {
		page.Embeds = player.ResolveAll(content.Servers)
	}
	a.recordView(c, content.ID, "")
	if len(content.Genres) > 0 {
		candidates, err := a.Catalog.ListContents(ctx, catalog.ContentQuery{Genre: content.Genres[0], SortBy: "views", Limit: relatedLimit + 1})
		if err != nil {
			return err
		}
		page.Related = FilterRelated(content, candidates, relatedLimit)
	}

	page.Page = a.page(c, content.Title, markdown.Excerpt(content.Synopsis, 160), content.Link())
	page.Meta.OGType = ogType(content.Type)
	page.Meta.Image = a.absURL(content.Poster)
	page.Meta.JSONLD = ContentJsonLD(content, a.Config)
	return Render(c, views.Content(page))
}

func (a *App) handleSeason(c echo.Context) error {
	ctx := c.Request().Context()
	content, err := a.contentFromPath(c)
	if errors.Is(err, errWrongType) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	season, err := a.Catalog.GetSeasonBySlug(ctx, content.Slug, c.Param("season"))
	if errors.Is(err, catalog.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	seasons, err := a.Catalog.ListPublishedSeasons(ctx, content.Slug)
	if err != nil {
		return err
	}
	episodes, err := a.Catalog.ListPublishedEpisodes(ctx, content.Slug, season.Slug)
	if err != nil {
		return err
	}

	desc := markdown.Excerpt(season.Synopsis, 160)
	if desc == "" {
		desc = markdown.Excerpt(content.Synopsis, 160)
	}
	p := a.page(c, content.Title+": "+season.DisplayTitle(), desc, season.Link())
	p.Meta.OGType = ogType(content.Type)
	p.Meta.Image = a.absURL(firstNonEmpty(season.Poster, content.Poster))
	return Render(c, views.Season(views.SeasonPage{
		Page:     p,
		Content:  content,
		Season:   season,
		Seasons:  seasons,
		Episodes: episodes,
	}))
}

func (a *App) handleEpisode(c echo.Context) error {
	ctx := c.Request().Context()
	content, err := a.contentFromPath(c)
	if errors.Is(err, errWrongType) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	ep, err := a.Catalog.GetEpisodeBySlug(ctx, content.Slug, c.Param("season"), c.Param("episode"))
	if errors.Is(err, catalog.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	season, err := a.Catalog.GetSeasonBySlug(ctx, content.Slug, ep.SeasonSlug)
	if err != nil {
		return err
	}
	episodes, err := a.Catalog.ListPublishedEpisodes(ctx, content.Slug, season.Slug)
	if err != nil {
		return err
	}

	page := views.EpisodePage{
		Content: content,
		Season:  season,
		Episode: ep,
		Embeds:  player.ResolveAll(ep.Servers),
	}
	for i := range episodes {
		if episodes[i].ID != ep.ID {
			continue
		}
		if i > 0 {
			page.Prev = &episodes[i-1]
		}
		if i < len(episodes)-1 {
			page.Next = &episodes[i+1]
		}
		break
	}
	if a.recordView(c, content.ID, ep.ID) {
		if err := a.Catalog.IncrementEpisodeViews(ctx, ep); err != nil {
			c.Logger().Errorf("increment episode views: %v", err)
		}
	}

	title := content.Title + " " + strconv.Itoa(season.Number) + "x" + strconv.Itoa(ep.Number)
	if ep.Title != "" {
		title += ": " + ep.Title
	}
	page.Page = a.page(c, title, markdown.Excerpt(firstNonEmpty(ep.Synopsis, content.Synopsis), 160), ep.Link())
	page.Meta.OGType = "video.episode"
	page.Meta.Image = a.absURL(firstNonEmpty(ep.Thumbnail, ep.Poster, season.Poster, content.Poster))
	page.Meta.JSONLD = EpisodeJsonLD(ep, a.Config)
	return Render(c, views.Episode(page))
}

// recordView stores a view for the client unless it repeats within the
// dedup window. Content page views also bump the content counter here;
// episode counters are bumped by the caller. Failures are only logged.
func (a *App) recordView(c echo.Context, contentID, episodeID string) bool {
	ctx := context.WithoutCancel(c.Request().Context())
	recorded, err := a.Stats.RecordUniqueView(ctx, c.RealIP(), contentID, episodeID)
	if err != nil {
		c.Logger().Errorf("record view: %v", err)
		return false
	}
	if recorded && episodeID == "" {
		if err := a.Catalog.IncrementContentViews(ctx, contentID); err != nil {
			c.Logger().Errorf("increment content views: %v", err)
		}
	}
	return recorded
}

func (a *App) handleLegal(c echo.Context) error {
	return a.renderLegal(c, "Aviso legal", "legal.md", "/aviso-legal/")
}

func (a *App) handlePrivacy(c echo.Context) error {
	return a.renderLegal(c, "Política de privacidad", "privacy.md", "/privacidad/")
}

func (a *App) renderLegal(c echo.Context, heading, file, path string) error {
	body, err := EmbeddedAssets.ReadFile("embedded/" + file)
	if err != nil {
		return err
	}
	text := strings.NewReplacer("{site}", a.Config.Name, "{url}", a.Config.URL).Replace(string(body))
	p := a.page(c, heading, "", path)
	return Render(c, views.Legal(views.LegalPage{Page: p, Heading: heading, Body: text}))
}

func (a *App) handleContact(c echo.Context) error {
	p := a.page(c, "Contacto", "Escríbenos", "/contacto/")
	return Render(c, views.Contact(views.ContactPage{Page: p, Sent: c.QueryParam("enviado") == "1"}))
}

func (a *App) handleContactSubmit(c echo.Context) error {
	msg := catalog.ContactMessage{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Subject: c.FormValue("subject"),
		Message: c.FormValue("message"),
	}
	p := a.page(c, "Contacto", "Escríbenos", "/contacto/")
	if !a.contactLimiter.Allow(c.RealIP()) {
		return RenderStatus(c, http.StatusTooManyRequests, views.Contact(views.ContactPage{
			Page: p, Form: msg, Error: "Has enviado demasiados mensajes. Inténtalo más tarde.",
		}))
	}
	if _, err := a.Catalog.SubmitContact(c.Request().Context(), msg); err != nil {
		if ve := validationError(err); ve != nil {
			return RenderStatus(c, http.StatusBadRequest, views.Contact(views.ContactPage{Page: p, Form: msg, Error: ve.Message}))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/contacto/?enviado=1")
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: " +
		strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	} else if errors.Is(err, catalog.ErrNotFound) {
		code = http.StatusNotFound
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		msg := http.StatusText(code)
		if he != nil && code < 500 {
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		_ = JSONError(c, code, msg)
		return
	}

	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, views.Error(views.ErrorPage{
			Page: a.page(c, "Página no encontrada", "", ""), Code: code,
			Message: "La página que buscas no existe o ya no está disponible.",
		}))
	case code >= 500:
		_ = RenderStatus(c, code, views.Error(views.ErrorPage{
			Page: a.page(c, "Error", "", ""), Code: code,
			Message: "Algo ha fallado. Inténtalo de nuevo en unos minutos.",
		}))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}

func validationError(err error) *catalog.ValidationError {
	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package moonlight

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/player"
)

// registerAPI mounts the read-only JSON API plus the contact endpoint.
func (a *App) registerAPI(g *echo.Group) {
	g.GET("/contents", a.apiContents)
	g.GET("/contents/:slug", a.apiContent)
	g.GET("/contents/:slug/seasons", a.apiSeasons)
	g.GET("/contents/:slug/seasons/:season", a.apiSeason)
	g.GET("/contents/:slug/seasons/:season/episodes", a.apiEpisodes)
	g.GET("/contents/:slug/seasons/:season/episodes/:episode", a.apiEpisode)
	g.GET("/carousel", a.apiCarousel)
	g.GET("/genres", a.apiGenres)
	g.GET("/countries", a.apiCountries)
	g.POST("/contact", a.apiContact)
}

// apiContentDetail is a content with its resolved players.
type apiContentDetail struct {
	catalog.Content
	Embeds []player.Embed `json:"embeds"`
}

// apiEpisodeDetail is an episode with its resolved players.
type apiEpisodeDetail struct {
	catalog.Episode
	Embeds []player.Embed `json:"embeds"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func optionalBool(v string) *bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return catalog.Bool(b)
}

// notFoundOr maps catalog.ErrNotFound to a 404 with msg.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	return err
}

func (a *App) apiContents(c echo.Context) error {
	q := catalog.ContentQuery{
		Genre:      c.QueryParam("genre"),
		Country:    c.QueryParam("country"),
		Search:     c.QueryParam("q"),
		SortBy:     c.QueryParam("sort"),
		SortAsc:    c.QueryParam("order") == "asc",
		IsFeatured: optionalBool(c.QueryParam("featured")),
		IsTrending: optionalBool(c.QueryParam("trending")),
		IsPopular:  optionalBool(c.QueryParam("popular")),
	}
	if t := c.QueryParam("type"); t != "" {
		q.Type = catalog.ContentType(t)
		if !q.Type.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown content type")
		}
	}
	for name, dst := range map[string]*int{"year": &q.Year, "limit": &q.Limit, "skip": &q.Skip} {
		if v := c.QueryParam(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
			}
			*dst = n
		}
	}
	contents, err := a.Catalog.ListContents(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(contents))
}

func (a *App) apiContent(c echo.Context) error {
	content, err := a.Catalog.GetContentBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return notFoundOr(err, "content not found")
	}
	return c.JSON(http.StatusOK, apiContentDetail{Content: content, Embeds: player.ResolveAll(content.Servers)})
}

func (a *App) apiSeasons(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := a.Catalog.GetContentBySlug(ctx, c.Param("slug")); err != nil {
		return notFoundOr(err, "content not found")
	}
	seasons, err := a.Catalog.ListPublishedSeasons(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(seasons))
}

func (a *App) apiSeason(c echo.Context) error {
	season, err := a.Catalog.GetSeasonBySlug(c.Request().Context(), c.Param("slug"), c.Param("season"))
	if err != nil {
		return notFoundOr(err, "season not found")
	}
	return c.JSON(http.StatusOK, season)
}

func (a *App) apiEpisodes(c echo.Context) error {
	episodes, err := a.Catalog.ListPublishedEpisodes(c.Request().Context(), c.Param("slug"), c.Param("season"))
	if err != nil {
		return notFoundOr(err, "season not found")
	}
	return c.JSON(http.StatusOK, nonNil(episodes))
}

func (a *App) apiEpisode(c echo.Context) error {
	ctx := c.Request().Context()
	ep, err := a.Catalog.GetEpisodeBySlug(ctx, c.Param("slug"), c.Param("season"), c.Param("episode"))
	if err != nil {
		return notFoundOr(err, "episode not found")
	}
	if a.recordView(c, ep.ContentID, ep.ID) {
		if err := a.Catalog.IncrementEpisodeViews(ctx, ep); err != nil {
			c.Logger().Errorf("increment episode views: %v", err)
		}
	}
	return c.JSON(http.StatusOK, apiEpisodeDetail{Episode: ep, Embeds: player.ResolveAll(ep.Servers)})
}

func (a *App) apiCarousel(c echo.Context) error {
	carousel, _, err := a.Cache.Home(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(carousel))
}

func (a *App) apiGenres(c echo.Context) error {
	genres, err := a.Cache.Genres(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(genres))
}

func (a *App) apiCountries(c echo.Context) error {
	countries, err := a.Cache.Countries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(countries))
}

func (a *App) apiContact(c echo.Context) error {
	if !a.contactLimiter.Allow(c.RealIP()) {
		return JSONError(c, http.StatusTooManyRequests, "too many messages, try again later")
	}
	var msg catalog.ContactMessage
	if err := c.Bind(&msg); err != nil {
		return JSONError(c, http.StatusBadRequest, "invalid request body")
	}
	saved, err := a.Catalog.SubmitContact(c.Request().Context(), msg)
	if err != nil {
		if ve := validationError(err); ve != nil {
			return JSONError(c, http.StatusBadRequest, ve.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, saved)
}

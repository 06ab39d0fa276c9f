package moonlight

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/views"
)

func (a *App) handleAdminContentSeasons(c echo.Context) error {
	ctx := c.Request().Context()
	content, err := a.Catalog.GetContent(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	seasons, err := a.Catalog.ListSeasons(ctx, content.ID)
	if err != nil {
		return err
	}
	return Render(c, views.AdminSeasons(views.SeasonsPage{
		Page:    a.adminPage(c, "Temporadas de "+content.Title),
		Content: &content,
		Seasons: seasons,
	}))
}

func (a *App) handleAdminSeasons(c echo.Context) error {
	search := c.QueryParam("q")
	seasons, err := a.Catalog.ListAllSeasons(c.Request().Context(), catalog.ListParams{
		ContentID: c.QueryParam("content"),
		Search:    search,
		Limit:     adminListLimit,
	})
	if err != nil {
		return err
	}
	return Render(c, views.AdminSeasons(views.SeasonsPage{
		Page:    a.adminPage(c, "Temporadas"),
		Seasons: seasons,
		Search:  search,
	}))
}

func (a *App) renderSeasonForm(c echo.Context, code int, content catalog.Content, se catalog.Season, isNew bool, formErr string) error {
	return RenderStatus(c, code, views.AdminSeasonForm(views.SeasonFormPage{
		Page:    a.adminPage(c, content.Title+": "+se.DisplayTitle()),
		Content: content,
		Season:  se,
		IsNew:   isNew,
		Error:   formErr,
	}))
}

func (a *App) handleAdminSeasonNew(c echo.Context) error {
	content, err := a.Catalog.GetContent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	if !content.Type.HasSeasons() {
		return redirectWithFlash(c, "/admin/contenidos/"+content.ID+"/", flashNoSeasons)
	}
	se := catalog.Season{ContentID: content.ID, Number: content.SeasonCount + 1, Status: catalog.StatusPending}
	return a.renderSeasonForm(c, http.StatusOK, content, se, true, "")
}

func (a *App) handleAdminSeasonCreate(c echo.Context) error {
	ctx := c.Request().Context()
	content, err := a.Catalog.GetContent(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	se := catalog.Season{ContentID: content.ID}
	err = parseSeasonForm(c, &se)
	if err == nil {
		var saved catalog.Season
		if saved, err = a.Catalog.CreateSeason(ctx, content.ID, se); err == nil {
			se = saved
		}
	}
	if ve := validationError(err); ve != nil {
		return a.renderSeasonForm(c, http.StatusBadRequest, content, se, true, ve.Message)
	}
	if err != nil {
		return err
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/temporadas/"+se.ID+"/episodios/", flashSeasonCreated)
}

// seasonContent is the parent shown on season forms. It comes from the
// joined fields, so an orphaned season still renders.
func seasonContent(se catalog.Season) catalog.Content {
	return catalog.Content{ID: se.ContentID, Title: se.ContentTitle, Type: se.ContentType, Slug: se.ContentSlug}
}

func (a *App) handleAdminSeasonEdit(c echo.Context) error {
	se, err := a.Catalog.GetSeason(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	return a.renderSeasonForm(c, http.StatusOK, seasonContent(se), se, false, "")
}

func (a *App) handleAdminSeasonUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	se, err := a.Catalog.GetSeason(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	content := seasonContent(se)
	err = parseSeasonForm(c, &se)
	if err == nil {
		var saved catalog.Season
		if saved, err = a.Catalog.UpdateSeason(ctx, se); err == nil {
			se = saved
		}
	}
	if ve := validationError(err); ve != nil {
		return a.renderSeasonForm(c, http.StatusBadRequest, content, se, false, ve.Message)
	}
	if err != nil {
		return err
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/temporadas/"+se.ID+"/editar/", flashSaved)
}

func (a *App) handleAdminSeasonDelete(c echo.Context) error {
	ctx := c.Request().Context()
	se, err := a.Catalog.GetSeason(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	if err := a.Catalog.DeleteSeason(ctx, se.ID); err != nil {
		return notFound(err)
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/contenidos/"+se.ContentID+"/temporadas/", flashSeasonDeleted)
}

func (a *App) handleAdminSeasonEpisodes(c echo.Context) error {
	ctx := c.Request().Context()
	se, err := a.Catalog.GetSeason(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	episodes, err := a.Catalog.ListEpisodes(ctx, se.ID)
	if err != nil {
		return err
	}
	return Render(c, views.AdminEpisodes(views.EpisodesPage{
		Page:     a.adminPage(c, se.ContentTitle+": "+se.DisplayTitle()),
		Season:   &se,
		Episodes: episodes,
	}))
}

func (a *App) handleAdminEpisodes(c echo.Context) error {
	search := c.QueryParam("q")
	episodes, err := a.Catalog.ListAllEpisodes(c.Request().Context(), catalog.ListParams{
		ContentID: c.QueryParam("content"),
		SeasonID:  c.QueryParam("season"),
		Search:    search,
		Limit:     adminListLimit,
	})
	if err != nil {
		return err
	}
	return Render(c, views.AdminEpisodes(views.EpisodesPage{
		Page:     a.adminPage(c, "Episodios"),
		Episodes: episodes,
		Search:   search,
	}))
}

func (a *App) renderEpisodeForm(c echo.Context, code int, se catalog.Season, ep catalog.Episode, isNew bool, formErr string) error {
	return RenderStatus(c, code, views.AdminEpisodeForm(views.EpisodeFormPage{
		Page:    a.adminPage(c, se.ContentTitle+": "+ep.DisplayTitle()),
		Season:  se,
		Episode: ep,
		IsNew:   isNew,
		Error:   formErr,
		Servers: serverRows(ep.Servers),
	}))
}

func (a *App) handleAdminEpisodeNew(c echo.Context) error {
	se, err := a.Catalog.GetSeason(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	ep := catalog.Episode{SeasonID: se.ID, ContentID: se.ContentID, Number: se.EpisodeCount + 1, Status: catalog.StatusPending}
	return a.renderEpisodeForm(c, http.StatusOK, se, ep, true, "")
}

func (a *App) handleAdminEpisodeCreate(c echo.Context) error {
	ctx := c.Request().Context()
	se, err := a.Catalog.GetSeason(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	ep := catalog.Episode{SeasonID: se.ID, ContentID: se.ContentID}
	err = parseEpisodeForm(c, &ep)
	if err == nil {
		var saved catalog.Episode
		if saved, err = a.Catalog.CreateEpisode(ctx, se.ID, ep); err == nil {
			ep = saved
		}
	}
	if ve := validationError(err); ve != nil {
		return a.renderEpisodeForm(c, http.StatusBadRequest, se, ep, true, ve.Message)
	}
	if err != nil {
		return err
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/temporadas/"+se.ID+"/episodios/", flashEpisodeCreated)
}

func (a *App) handleAdminEpisodeEdit(c echo.Context) error {
	ctx := c.Request().Context()
	ep, err := a.Catalog.GetEpisode(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	se, err := a.Catalog.GetSeason(ctx, ep.SeasonID)
	if err != nil {
		return notFound(err)
	}
	return a.renderEpisodeForm(c, http.StatusOK, se, ep, false, "")
}

func (a *App) handleAdminEpisodeUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	ep, err := a.Catalog.GetEpisode(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	se, err := a.Catalog.GetSeason(ctx, ep.SeasonID)
	if err != nil {
		return notFound(err)
	}
	err = parseEpisodeForm(c, &ep)
	if err == nil {
		var saved catalog.Episode
		if saved, err = a.Catalog.UpdateEpisode(ctx, ep); err == nil {
			ep = saved
		}
	}
	if ve := validationError(err); ve != nil {
		return a.renderEpisodeForm(c, http.StatusBadRequest, se, ep, false, ve.Message)
	}
	if err != nil {
		return err
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/episodios/"+ep.ID+"/editar/", flashSaved)
}

func (a *App) handleAdminEpisodeDelete(c echo.Context) error {
	ctx := c.Request().Context()
	ep, err := a.Catalog.GetEpisode(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	if err := a.Catalog.DeleteEpisode(ctx, ep.ID); err != nil {
		return notFound(err)
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/temporadas/"+ep.SeasonID+"/episodios/", flashEpisodeDeleted)
}

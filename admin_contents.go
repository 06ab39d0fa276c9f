package moonlight

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/views"
)

const adminListLimit = 100

// notFound turns catalog.ErrNotFound into a 404.
func notFound(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return echo.ErrNotFound
	}
	return err
}

func (a *App) handleAdminContents(c echo.Context) error {
	q := catalog.AdminContentQuery{
		Type:   catalog.ContentType(c.QueryParam("type")),
		Status: catalog.Status(c.QueryParam("status")),
		Search: c.QueryParam("q"),
		Limit:  adminListLimit,
	}
	contents, err := a.Catalog.ListAllContents(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return Render(c, views.AdminContents(views.ContentsPage{
		Page:     a.adminPage(c, "Contenidos"),
		Contents: contents,
		Query:    q,
		Types:    catalog.ContentTypes,
	}))
}

func (a *App) renderContentForm(c echo.Context, code int, content catalog.Content, isNew bool, formErr string) error {
	title := "Nuevo contenido"
	if !isNew {
		title = content.Title
	}
	return RenderStatus(c, code, views.AdminContentForm(views.ContentFormPage{
		Page:    a.adminPage(c, title),
		Content: content,
		IsNew:   isNew,
		Error:   formErr,
		Types:   catalog.ContentTypes,
		Servers: serverRows(content.Servers),
	}))
}

func (a *App) handleAdminContentNew(c echo.Context) error {
	content := catalog.Content{Type: catalog.TypeSerie, Status: catalog.StatusPending}
	return a.renderContentForm(c, http.StatusOK, content, true, "")
}

func (a *App) handleAdminContentCreate(c echo.Context) error {
	var content catalog.Content
	err := parseContentForm(c, &content)
	if err == nil {
		var saved catalog.Content
		if saved, err = a.Catalog.CreateContent(c.Request().Context(), content); err == nil {
			content = saved
		}
	}
	if ve := validationError(err); ve != nil {
		return a.renderContentForm(c, http.StatusBadRequest, content, true, ve.Message)
	}
	if err != nil {
		return err
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/contenidos/"+content.ID+"/", flashContentCreated)
}

func (a *App) handleAdminContentEdit(c echo.Context) error {
	content, err := a.Catalog.GetContent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	return a.renderContentForm(c, http.StatusOK, content, false, "")
}

func (a *App) handleAdminContentUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	content, err := a.Catalog.GetContent(ctx, c.Param("id"))
	if err != nil {
		return notFound(err)
	}
	err = parseContentForm(c, &content)
	if err == nil {
		var saved catalog.Content
		if saved, err = a.Catalog.UpdateContent(ctx, content); err == nil {
			content = saved
		}
	}
	if ve := validationError(err); ve != nil {
		return a.renderContentForm(c, http.StatusBadRequest, content, false, ve.Message)
	}
	if err != nil {
		return err
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/contenidos/"+content.ID+"/", flashSaved)
}

func (a *App) handleAdminContentDelete(c echo.Context) error {
	if err := a.Catalog.DeleteContent(c.Request().Context(), c.Param("id")); err != nil {
		return notFound(err)
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/contenidos/", flashContentDeleted)
}

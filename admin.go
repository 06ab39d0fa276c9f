package moonlight

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/views"
)

const (
	dashboardTop    = 10
	dashboardRecent = 10
)

func (a *App) registerAdmin(g *echo.Group) {
	g.GET("/login/", a.handleAdminLoginForm)
	g.POST("/login/", a.handleAdminLogin)
	g.POST("/logout/", handleAdminLogout)

	admin := g.Group("", requireAdmin)
	admin.GET("/", a.handleAdminDashboard)

	admin.GET("/contenidos/", a.handleAdminContents)
	admin.GET("/contenidos/nuevo/", a.handleAdminContentNew)
	admin.POST("/contenidos/nuevo/", a.handleAdminContentCreate)
	admin.GET("/contenidos/:id/", a.handleAdminContentEdit)
	admin.POST("/contenidos/:id/", a.handleAdminContentUpdate)
	admin.POST("/contenidos/:id/eliminar/", a.handleAdminContentDelete)
	admin.GET("/contenidos/:id/temporadas/", a.handleAdminContentSeasons)
	admin.GET("/contenidos/:id/temporadas/nueva/", a.handleAdminSeasonNew)
	admin.POST("/contenidos/:id/temporadas/nueva/", a.handleAdminSeasonCreate)

	admin.GET("/temporadas/", a.handleAdminSeasons)
	admin.GET("/temporadas/:id/editar/", a.handleAdminSeasonEdit)
	admin.POST("/temporadas/:id/editar/", a.handleAdminSeasonUpdate)
	admin.POST("/temporadas/:id/eliminar/", a.handleAdminSeasonDelete)
	admin.GET("/temporadas/:id/episodios/", a.handleAdminSeasonEpisodes)
	admin.GET("/temporadas/:id/episodios/nuevo/", a.handleAdminEpisodeNew)
	admin.POST("/temporadas/:id/episodios/nuevo/", a.handleAdminEpisodeCreate)

	admin.GET("/episodios/", a.handleAdminEpisodes)
	admin.GET("/episodios/:id/editar/", a.handleAdminEpisodeEdit)
	admin.POST("/episodios/:id/editar/", a.handleAdminEpisodeUpdate)
	admin.POST("/episodios/:id/eliminar/", a.handleAdminEpisodeDelete)

	admin.GET("/carrusel/", a.handleAdminCarousel)
	admin.POST("/carrusel/", a.handleAdminCarouselSave)
	admin.GET("/estadisticas/", a.handleAdminStats)
	admin.GET("/mensajes/", a.handleAdminMessages)
	admin.POST("/mensajes/:id/leido/", a.handleAdminMessageRead)
	admin.GET("/auditoria/", a.handleAdminAudit)

	admin.GET("/media/", a.handleMediaList)
	admin.POST("/media/", a.handleMediaUpload)
	admin.POST("/media/:filename/eliminar/", a.handleMediaDelete)
}

// Flash keys carried in the "msg" query parameter after admin redirects.
const (
	flashContentCreated  = "contenido-creado"
	flashContentDeleted  = "contenido-eliminado"
	flashSaved           = "guardado"
	flashNoSeasons       = "sin-temporadas"
	flashSeasonCreated   = "temporada-creada"
	flashSeasonDeleted   = "temporada-eliminada"
	flashEpisodeCreated  = "episodio-creado"
	flashEpisodeDeleted  = "episodio-eliminado"
	flashCarouselSaved   = "carrusel-guardado"
	flashCarouselInvalid = "carrusel-no-valido"
	flashMessageRead     = "mensaje-leido"
	flashImageUploaded   = "imagen-subida"
	flashImageDeleted    = "imagen-eliminada"
)

var flashMessages = map[string]string{
	flashContentCreated:  "Contenido creado.",
	flashContentDeleted:  "Contenido eliminado.",
	flashSaved:           "Cambios guardados.",
	flashNoSeasons:       "Las películas no tienen temporadas.",
	flashSeasonCreated:   "Temporada creada.",
	flashSeasonDeleted:   "Temporada eliminada.",
	flashEpisodeCreated:  "Episodio creado.",
	flashEpisodeDeleted:  "Episodio eliminado.",
	flashCarouselSaved:   "Carrusel guardado.",
	flashCarouselInvalid: "Tipo automático no válido.",
	flashMessageRead:     "Mensaje marcado como leído.",
	flashImageUploaded:   "Imagen subida.",
	flashImageDeleted:    "Imagen eliminada.",
}

// adminPage builds the page model shared by the admin screens. A known
// "msg" key becomes the flash message; anything else is ignored.
func (a *App) adminPage(c echo.Context, title string) views.Page {
	unread, err := a.Catalog.CountUnreadMessages(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("count unread messages: %v", err)
	}
	return views.Page{
		Site:   a.site(),
		Meta:   views.PageMeta{Title: title},
		CSRF:   CsrfToken(c),
		Admin:  true,
		Flash:  flashMessages[c.QueryParam("msg")],
		Unread: unread,
	}
}

// redirectWithFlash sends the admin to path with the flash message for key.
func redirectWithFlash(c echo.Context, path, key string) error {
	return c.Redirect(http.StatusSeeOther, path+"?msg="+url.QueryEscape(key))
}

// invalidated runs after every admin write so public pages pick it up.
func (a *App) invalidated() {
	a.Cache.Invalidate()
}

func (a *App) handleAdminLoginForm(c echo.Context) error {
	if IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, views.AdminLogin(views.LoginPage{Page: a.loginPage(c)}))
}

func (a *App) loginPage(c echo.Context) views.Page {
	return views.Page{Site: a.site(), Meta: views.PageMeta{Title: "Acceso"}, CSRF: CsrfToken(c)}
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	username := strings.TrimSpace(c.FormValue("username"))
	page := views.LoginPage{Page: a.loginPage(c), Username: username}

	if !a.loginLimiter.Allow(ip) {
		page.Error = "Demasiados intentos. Espera un minuto."
		return RenderStatus(c, http.StatusTooManyRequests, views.AdminLogin(page))
	}

	ctx := c.Request().Context()
	user, err := a.Catalog.Authenticate(ctx, username, c.FormValue("password"))
	if err != nil && !errors.Is(err, catalog.ErrInvalidCredentials) {
		return err
	}
	success := err == nil
	if rerr := a.Catalog.RecordLoginAttempt(ctx, username, ip, success); rerr != nil {
		c.Logger().Errorf("record login attempt: %v", rerr)
	}
	if !success {
		page.Error = "Usuario o contraseña incorrectos."
		return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(page))
	}

	if err := setAdminSession(c, user.Username, c.FormValue("remember") != ""); err != nil {
		return err
	}
	c.Logger().Infof("admin %q logged in from %s", user.Username, ip)
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/login/")
}

func (a *App) handleAdminDashboard(c echo.Context) error {
	page := views.DashboardPage{Page: a.adminPage(c, "Panel")}
	var totalViews int

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		page.Overview, err = a.Catalog.Overview(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		page.Top, err = a.Catalog.TopContents(ctx, dashboardTop)
		return err
	})
	g.Go(func() error {
		var err error
		page.Recent, err = a.Catalog.ListAuditLogs(ctx, dashboardRecent, 0)
		return err
	})
	g.Go(func() error {
		var err error
		totalViews, err = a.Stats.CountViews(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	page.Overview.TotalViews = totalViews
	return Render(c, views.AdminDashboard(page))
}

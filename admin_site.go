package moonlight

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/stats"
	"github.com/moonlightbl/moonlight/views"
)

const (
	statsTopContents = 10
	messagesLimit    = 100
	auditPageSize    = 50
)

func (a *App) handleAdminCarousel(c echo.Context) error {
	ctx := c.Request().Context()
	cfg, err := a.Catalog.CarouselConfig(ctx)
	if err != nil {
		return err
	}
	pinned := make([]catalog.Content, 0, len(cfg.Items))
	pinnedIDs := make(map[string]struct{}, len(cfg.Items))
	for _, it := range cfg.Items {
		content, err := a.Catalog.GetContent(ctx, it.ContentID)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		pinned = append(pinned, content)
		pinnedIDs[content.ID] = struct{}{}
	}
	published, err := a.Catalog.ListContents(ctx, catalog.ContentQuery{SortBy: "title", SortAsc: true, Limit: 100})
	if err != nil {
		return err
	}
	var candidates []catalog.Content
	for _, content := range published {
		if _, ok := pinnedIDs[content.ID]; !ok {
			candidates = append(candidates, content)
		}
	}
	return Render(c, views.AdminCarousel(views.CarouselPage{
		Page:       a.adminPage(c, "Carrusel"),
		Config:     cfg,
		Pinned:     pinned,
		Candidates: candidates,
	}))
}

// carouselItemsFromForm reads the pinned rows, drops the ones marked for
// removal and appends the added content last.
func carouselItemsFromForm(ids, orders, remove []string, add string) []catalog.CarouselItem {
	removed := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		removed[id] = struct{}{}
	}
	items := make([]catalog.CarouselItem, 0, len(ids)+1)
	last := -1
	for i, id := range ids {
		if _, ok := removed[id]; ok || id == "" {
			continue
		}
		order := i
		if i < len(orders) {
			if n, err := strconv.Atoi(orders[i]); err == nil {
				order = n
			}
		}
		items = append(items, catalog.CarouselItem{ContentID: id, Order: order})
		last = max(last, order)
	}
	if add != "" {
		items = append(items, catalog.CarouselItem{ContentID: add, Order: last + 1})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	for i := range items {
		items[i].Order = i
	}
	return items
}

func (a *App) handleAdminCarouselSave(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return err
	}
	cfg := catalog.CarouselConfig{
		Items:        carouselItemsFromForm(form["item_id"], form["item_order"], form["remove"], form.Get("add")),
		AutoPopulate: formChecked(form, "auto_populate"),
		AutoType:     form.Get("auto_type"),
	}
	if _, err := a.Catalog.SaveCarouselConfig(c.Request().Context(), cfg); err != nil {
		if ve := validationError(err); ve != nil {
			return redirectWithFlash(c, "/admin/carrusel/", flashCarouselInvalid)
		}
		return err
	}
	a.invalidated()
	return redirectWithFlash(c, "/admin/carrusel/", flashCarouselSaved)
}

func (a *App) handleAdminStats(c echo.Context) error {
	ctx := c.Request().Context()
	period := stats.NormalizePeriod(c.QueryParam("period"))
	sum, err := a.Stats.Summarize(ctx, period, time.Now(), statsTopContents)
	if err != nil {
		return err
	}

	ranked := make([]views.RankedContent, 0, len(sum.TopContents))
	for _, cv := range sum.TopContents {
		content, err := a.Catalog.GetContent(ctx, cv.ContentID)
		if errors.Is(err, catalog.ErrNotFound) {
			content = catalog.Content{Title: "(eliminado)"}
		} else if err != nil {
			return err
		}
		ranked = append(ranked, views.RankedContent{Content: content, Views: cv.Views})
	}
	maxDaily := 0
	for _, d := range sum.Daily {
		maxDaily = max(maxDaily, d.Views)
	}

	return Render(c, views.AdminStats(views.StatsPage{
		Page:     a.adminPage(c, "Estadísticas"),
		Period:   period,
		Summary:  sum,
		Ranked:   ranked,
		MaxDaily: maxDaily,
	}))
}

func (a *App) handleAdminMessages(c echo.Context) error {
	messages, err := a.Catalog.ListContactMessages(c.Request().Context(), messagesLimit, 0)
	if err != nil {
		return err
	}
	return Render(c, views.AdminMessages(views.MessagesPage{
		Page:     a.adminPage(c, "Mensajes"),
		Messages: messages,
	}))
}

func (a *App) handleAdminMessageRead(c echo.Context) error {
	if err := a.Catalog.MarkMessageRead(c.Request().Context(), c.Param("id")); err != nil {
		return notFound(err)
	}
	return redirectWithFlash(c, "/admin/mensajes/", flashMessageRead)
}

func (a *App) handleAdminAudit(c echo.Context) error {
	page := pageParam(c)
	logs, err := a.Catalog.ListAuditLogs(c.Request().Context(), auditPageSize, (page-1)*auditPageSize)
	if err != nil {
		return err
	}
	return Render(c, views.AdminAudit(views.AuditPage{
		Page:  a.adminPage(c, "Auditoría"),
		Logs:  logs,
		Pager: buildPager("/admin/auditoria/", c.QueryParams(), page, len(logs) == auditPageSize),
	}))
}

package moonlight

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

const sitemapDate = "2006-01-02"

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	contents, err := a.Catalog.AllPublishedContents(ctx)
	if err != nil {
		return err
	}
	seasons, err := a.Catalog.AllPublishedSeasons(ctx)
	if err != nil {
		return err
	}
	episodes, err := a.Catalog.AllPublishedEpisodes(ctx)
	if err != nil {
		return err
	}

	urls := []sitemapURL{{Loc: BuildURL(a.Config.URL)}}
	for _, t := range catalog.ContentTypes {
		urls = append(urls, sitemapURL{Loc: BuildURL(a.Config.URL, t.Slug())})
	}
	for _, content := range contents {
		urls = append(urls, sitemapURL{Loc: a.absURL(content.Link()), LastMod: content.UpdatedAt.Format(sitemapDate)})
	}
	for _, se := range seasons {
		urls = append(urls, sitemapURL{Loc: a.absURL(se.Link()), LastMod: se.UpdatedAt.Format(sitemapDate)})
	}
	for _, ep := range episodes {
		urls = append(urls, sitemapURL{Loc: a.absURL(ep.Link()), LastMod: ep.UpdatedAt.Format(sitemapDate)})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

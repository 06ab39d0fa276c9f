package moonlight

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/markdown"
)

const feedSize = 50

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Category    []string      `xml:"category,omitempty"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
	PubDate     string        `xml:"pubDate"`
	GUID        string        `xml:"guid"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

func (a *App) handleFeed(c echo.Context) error {
	contents, err := a.Catalog.ListContents(c.Request().Context(), catalog.ContentQuery{Limit: feedSize})
	if err != nil {
		return err
	}
	return a.renderRSS(c, contents)
}

func (a *App) renderRSS(c echo.Context, contents []catalog.Content) error {
	items := make([]rssItem, 0, len(contents))
	for _, content := range contents {
		link := a.absURL(content.Link())
		item := rssItem{
			Title:       content.Title + " (" + content.Type.Label() + ")",
			Link:        link,
			Description: markdown.Excerpt(content.Synopsis, 400),
			Category:    content.Genres,
			PubDate:     content.CreatedAt.Format(time.RFC1123Z),
			GUID:        link,
		}
		if content.Poster != "" {
			item.Enclosure = &rssEnclosure{URL: a.absURL(content.Poster), Type: "image/jpeg"}
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(a.Config.URL),
			Description: a.Config.Description,
			Language:    "es",
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}

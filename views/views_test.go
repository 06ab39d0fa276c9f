package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/player"
	"github.com/moonlightbl/moonlight/stats"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func testPage(title string) Page {
	return Page{
		Site: Site{Name: "Moonlight", URL: "https://moonlight.test", Description: "Series y películas"},
		Meta: PageMeta{Title: title, URL: "https://moonlight.test/", OGType: "website"},
		CSRF: "tok123",
	}
}

var dark = catalog.Content{
	ID: "c1", Type: catalog.TypeSerie, Title: "Dark", Slug: "dark", Year: 2017,
	Synopsis: "Una **serie** alemana.", Genres: []string{"Drama", "Misterio"},
	Status: catalog.StatusPublished, Rating: 8.7, Views: 1234567,
}

func TestLayoutRendersJSONLD(t *testing.T) {
	p := testPage("Dark")
	p.Meta.JSONLD = `{"@context":"https://schema.org","@type":"TVSeries","name":"Dark </script>"}`
	doc := render(t, Content(ContentPage{Page: p, Content: dark}))

	script := doc.Find(`script[type="application/ld+json"]`)
	require.Equal(t, 1, script.Length())
	assert.Contains(t, script.Text(), `"@type":"TVSeries"`)
	assert.NotContains(t, script.Text(), "</script>")
}

func TestSeasonNavMarksCurrent(t *testing.T) {
	s1 := catalog.Season{ID: "s1", Number: 1, Slug: "temporada-1", ContentType: catalog.TypeSerie, ContentSlug: "dark"}
	s2 := catalog.Season{ID: "s2", Number: 2, Slug: "temporada-2", ContentType: catalog.TypeSerie, ContentSlug: "dark"}
	doc := render(t, Season(SeasonPage{Page: testPage("Dark"), Content: dark, Season: s2, Seasons: []catalog.Season{s1, s2}}))

	links := doc.Find(".season-nav a")
	require.Equal(t, 2, links.Length())
	_, current := links.First().Attr("aria-current")
	assert.False(t, current)
	assert.Equal(t, "page", links.Last().AttrOr("aria-current", ""))
}

func TestAdminMessagesMarksUnread(t *testing.T) {
	p := testPage("Mensajes")
	p.Admin = true
	doc := render(t, AdminMessages(MessagesPage{Page: p, Messages: []catalog.ContactMessage{
		{ID: "m1", Name: "Ana", Email: "ana@example.com", Subject: "Hola", Message: "Texto"},
		{ID: "m2", Name: "Luis", Email: "luis@example.com", Subject: "Leído", Message: "Texto", Read: true},
	}}))

	assert.Equal(t, 2, doc.Find("li.message").Length())
	assert.Equal(t, 1, doc.Find("li.message.unread").Length())
	assert.Equal(t, 1, doc.Find(`form[action="/admin/mensajes/m1/leido/"]`).Length())
	assert.Equal(t, "mailto:ana@example.com", doc.Find(`a[href^="mailto:"]`).First().AttrOr("href", ""))
}

func TestHomeRendersCarouselAndRows(t *testing.T) {
	doc := render(t, Home(HomePage{
		Page:     testPage(""),
		Carousel: []catalog.Content{dark},
		Rows:     []Row{{Title: "Series", Link: "/series/", Items: []catalog.Content{dark}}},
	}))

	assert.Equal(t, "Moonlight", doc.Find("title").Text())
	assert.Equal(t, "https://moonlight.test/", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	assert.Equal(t, 4, doc.Find(".main-nav a").Length())
	assert.Equal(t, 1, doc.Find(`.slide a[href="/series/dark/"]`).Length())
	assert.Equal(t, 1, doc.Find(`a.card[href="/series/dark/"]`).Length())
}

func TestContentPageMarkdownAndPlayers(t *testing.T) {
	film := dark
	film.Type = catalog.TypePelicula
	doc := render(t, Content(ContentPage{
		Page:    testPage("Dark"),
		Content: film,
		Embeds:  []player.Embed{{Src: "https://player.test/e/1", Name: "Servidor 1", Quality: "HD"}},
	}))

	assert.Equal(t, "serie", doc.Find("strong").First().Text())
	iframe := doc.Find("details.player iframe")
	require.Equal(t, 1, iframe.Length())
	assert.Equal(t, "https://player.test/e/1", iframe.AttrOr("src", ""))
	_, open := doc.Find("details.player").Attr("open")
	assert.True(t, open)
}

func TestSeasonPageLinksEpisodes(t *testing.T) {
	season := catalog.Season{ID: "s1", ContentID: "c1", Number: 1, Slug: "temporada-1",
		ContentType: catalog.TypeSerie, ContentSlug: "dark", ContentTitle: "Dark", Status: catalog.StatusPublished}
	ep := catalog.Episode{ID: "e1", Number: 1, Slug: "episodio-1", SeasonSlug: "temporada-1",
		ContentSlug: "dark", ContentType: catalog.TypeSerie, Status: catalog.StatusPublished}
	doc := render(t, Season(SeasonPage{
		Page:     testPage("Dark"),
		Content:  dark,
		Season:   season,
		Seasons:  []catalog.Season{season},
		Episodes: []catalog.Episode{ep},
	}))

	assert.Equal(t, 1, doc.Find(`a[href="/series/dark/temporada/temporada-1/episodio/episodio-1/"]`).Length())
}

func TestContactFormCarriesCSRF(t *testing.T) {
	doc := render(t, Contact(ContactPage{Page: testPage("Contacto"), Error: "Email no válido"}))

	form := doc.Find(`form[action="/contacto/"]`)
	require.Equal(t, 1, form.Length())
	assert.Equal(t, "tok123", form.Find(`input[name="_csrf"]`).AttrOr("value", ""))
	assert.Contains(t, doc.Text(), "Email no válido")
}

func TestErrorPageEscapesMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Error(ErrorPage{Page: testPage("Error"), Code: 404, Message: "<script>x</script>"}).Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "<script>x</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestAdminLoginHidesNav(t *testing.T) {
	doc := render(t, AdminLogin(LoginPage{Page: testPage("Acceso"), Username: "admin", Error: "Credenciales incorrectas"}))

	assert.Equal(t, 0, doc.Find(".admin-nav").Length())
	assert.Equal(t, "admin", doc.Find(`input[name="username"]`).AttrOr("value", ""))
	assert.Equal(t, "tok123", doc.Find(`input[name="_csrf"]`).AttrOr("value", ""))
	assert.Contains(t, doc.Find(".error").Text(), "Credenciales incorrectas")
}

func TestAdminNavShowsUnread(t *testing.T) {
	p := testPage("Panel")
	p.Admin = true
	p.Unread = 3
	doc := render(t, AdminDashboard(DashboardPage{
		Page:     p,
		Overview: catalog.Overview{TotalContents: 2, TotalViews: 1500},
		Top:      []catalog.Content{dark},
		Recent: []catalog.AuditLog{{Action: "create", EntityType: "content", EntityID: "c1",
			Changes: map[string]any{"title": "Dark"}, Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}},
	}))

	assert.Equal(t, "3", doc.Find(".admin-nav .badge").Text())
	assert.Equal(t, "tok123", doc.Find(`form[action="/admin/logout/"] input[name="_csrf"]`).AttrOr("value", ""))
	assert.Contains(t, doc.Find(".audit").Text(), "title: Dark")
	assert.Contains(t, doc.Text(), "1.500")
}

func TestAdminContentFormEditAndNew(t *testing.T) {
	p := testPage("Editar")
	p.Admin = true
	servers := []catalog.Server{{Name: "S1", URL: "https://player.test/1", IsActive: true}, {}}
	doc := render(t, AdminContentForm(ContentFormPage{Page: p, Content: dark, Types: catalog.ContentTypes, Servers: servers}))

	assert.Equal(t, 1, doc.Find(`form[action="/admin/contenidos/c1/"]`).Length())
	assert.Equal(t, 1, doc.Find(`form[action="/admin/contenidos/c1/eliminar/"]`).Length())
	assert.Equal(t, "Drama, Misterio", doc.Find(`input[name="genres"]`).AttrOr("value", ""))
	assert.Equal(t, "serie", doc.Find(`select[name="content_type"] option[selected]`).AttrOr("value", ""))
	assert.Equal(t, 2, doc.Find(".server-row").Length())

	doc = render(t, AdminContentForm(ContentFormPage{Page: p, IsNew: true, Types: catalog.ContentTypes}))
	assert.Equal(t, 1, doc.Find(`form[action="/admin/contenidos/nuevo/"]`).Length())
	assert.Equal(t, 0, doc.Find(`form[action$="/eliminar/"]`).Length())
}

func TestAdminStatsBars(t *testing.T) {
	p := testPage("Estadísticas")
	p.Admin = true
	doc := render(t, AdminStats(StatsPage{
		Page:   p,
		Period: stats.PeriodWeek,
		Summary: &stats.Summary{Period: stats.PeriodWeek, TotalViews: 10, PeriodViews: 6,
			Daily: []stats.DailyView{{Date: "2024-05-01", Views: 2}, {Date: "2024-05-02", Views: 4}}},
		Ranked:   []RankedContent{{Content: dark, Views: 6}},
		MaxDaily: 4,
	}))

	assert.Equal(t, "page", doc.Find(`a[href="/admin/estadisticas/?period=week"]`).AttrOr("aria-current", ""))
	assert.Equal(t, 2, doc.Find(".chart tr").Length())
	assert.Equal(t, "width: 50%;", doc.Find(".chart .bar").First().AttrOr("style", ""))
}

func TestCount(t *testing.T) {
	assert.Equal(t, "0", Count(0))
	assert.Equal(t, "999", Count(999))
	assert.Equal(t, "1.234.567", Count(int64(1234567)))
}

func TestFormatChangesSorted(t *testing.T) {
	assert.Equal(t, "a: 1, b: x", FormatChanges(map[string]any{"b": "x", "a": 1}))
	assert.Equal(t, "", FormatChanges(nil))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(5, 0))
	assert.Equal(t, 50, Percent(2, 4))
	assert.Equal(t, 100, Percent(4, 4))
}

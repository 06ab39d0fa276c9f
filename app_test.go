package moonlight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlightbl/moonlight/catalog"
)

const (
	testSiteURL  = "https://moonlight.test"
	testPassword = "correct-horse"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	a := New(SiteConfig{
		Name:              "Moonlight Test",
		URL:               testSiteURL,
		Description:       "Series y películas",
		DatabasePath:      filepath.Join(dir, "catalog.db"),
		StatsDatabasePath: filepath.Join(dir, "stats.db"),
		StaticDir:         filepath.Join(dir, "public"),
		AdminUser:         "admin",
		AdminPassword:     testPassword,
		SessionSecret:     "test-session-secret",
		LogLevel:          "off",
	})
	require.NoError(t, a.Setup())
	t.Cleanup(func() { a.Close() })
	return a
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func get(a *App, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return serve(a, req)
}

func postForm(a *App, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return serve(a, req)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// csrfCookie loads path and returns the CSRF cookie it sets. The cookie
// value doubles as the form token.
func csrfCookie(t *testing.T, a *App, path string) *http.Cookie {
	t.Helper()
	rec := get(a, path)
	require.Equal(t, http.StatusOK, rec.Code)
	ck := cookieNamed(rec, "_csrf")
	require.NotNil(t, ck, "no _csrf cookie on %s", path)
	return ck
}

// login signs the bootstrap admin in and returns the cookies of the session.
func login(t *testing.T, a *App) []*http.Cookie {
	t.Helper()
	csrf := csrfCookie(t, a, "/admin/login/")
	rec := postForm(a, "/admin/login/", url.Values{
		"username": {"admin"},
		"password": {testPassword},
		"_csrf":    {csrf.Value},
	}, csrf)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/", rec.Header().Get(echo.HeaderLocation))
	sess := cookieNamed(rec, sessionName)
	require.NotNil(t, sess)
	return []*http.Cookie{csrf, sess}
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func seedSeries(t *testing.T, a *App) (catalog.Content, catalog.Season, catalog.Episode) {
	t.Helper()
	ctx := context.Background()
	content, err := a.Catalog.CreateContent(ctx, catalog.Content{
		Type:       catalog.TypeSerie,
		Title:      "Dark",
		Year:       2017,
		Synopsis:   "Un niño desaparece en **Winden**.",
		Genres:     []string{"Drama", "Misterio"},
		Status:     catalog.StatusPublished,
		IsTrending: true,
		IsPopular:  true,
	})
	require.NoError(t, err)
	season, err := a.Catalog.CreateSeason(ctx, content.ID, catalog.Season{Number: 1, Status: catalog.StatusPublished})
	require.NoError(t, err)
	ep, err := a.Catalog.CreateEpisode(ctx, season.ID, catalog.Episode{
		Number:  1,
		Title:   "Piloto",
		Status:  catalog.StatusPublished,
		Servers: []catalog.Server{{Name: "Principal", URL: "https://player.example/embed/dark-1x1", IsActive: true}},
	})
	require.NoError(t, err)
	return content, season, ep
}

func TestSetupRequiresSessionSecret(t *testing.T) {
	dir := t.TempDir()
	a := New(SiteConfig{
		DatabasePath:      filepath.Join(dir, "catalog.db"),
		StatsDatabasePath: filepath.Join(dir, "stats.db"),
	})
	assert.Error(t, a.Setup())
}

func TestHomeShowsPublishedContentOnly(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)
	_, err := a.Catalog.CreateContent(context.Background(), catalog.Content{Type: catalog.TypeSerie, Title: "Borrador"})
	require.NoError(t, err)

	rec := get(a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Dark")
	assert.NotContains(t, body, "Borrador")
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-src https:")
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
}

func TestContentPage(t *testing.T) {
	a := newTestApp(t)
	content, _, _ := seedSeries(t, a)

	rec := get(a, "/series/dark/")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("h1").First().Text(), "Dark")
	assert.Equal(t, 1, doc.Find(`a[href="/series/dark/temporada/temporada-1/"]`).Length())
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, testSiteURL+"/series/dark/", canonical)

	got, err := a.Catalog.GetContent(context.Background(), content.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)
}

func TestContentViewsAreDeduplicatedPerClient(t *testing.T) {
	a := newTestApp(t)
	content, _, _ := seedSeries(t, a)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(a, "/series/dark/").Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/series/dark/", nil)
	req.RemoteAddr = "198.51.100.7:40000"
	require.Equal(t, http.StatusOK, serve(a, req).Code)

	got, err := a.Catalog.GetContent(context.Background(), content.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Views)
}

func TestContentUnderWrongTypeRedirects(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)

	rec := get(a, "/peliculas/dark/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/series/dark/", rec.Header().Get(echo.HeaderLocation))

	assert.Equal(t, http.StatusNotFound, get(a, "/peliculas/dark/temporada/temporada-1/").Code)
}

func TestNotFoundPages(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)

	for _, path := range []string{
		"/series/no-existe/",
		"/desconocido/dark/",
		"/series/dark/temporada/temporada-9/",
		"/series/dark/temporada/temporada-1/episodio/no-existe/",
	} {
		rec := get(a, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "no existe", path)
	}
}

func TestMissingTrailingSlashRedirects(t *testing.T) {
	a := newTestApp(t)
	rec := get(a, "/buscar")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/buscar/", rec.Header().Get(echo.HeaderLocation))
}

func TestSeasonAndEpisodePages(t *testing.T) {
	a := newTestApp(t)
	content, _, ep := seedSeries(t, a)
	ctx := context.Background()

	rec := get(a, "/series/dark/temporada/temporada-1/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Piloto")

	rec = get(a, "/series/dark/temporada/temporada-1/episodio/piloto/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://player.example/embed/dark-1x1")

	gotEp, err := a.Catalog.GetEpisode(ctx, ep.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gotEp.Views)
	gotContent, err := a.Catalog.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gotContent.Views)

	n, err := a.Stats.CountViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListingAndSearch(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)
	_, err := a.Catalog.CreateContent(context.Background(), catalog.Content{
		Type: catalog.TypePelicula, Title: "Amélie", Genres: []string{"Comedia"}, Status: catalog.StatusPublished,
	})
	require.NoError(t, err)

	rec := get(a, "/series/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dark")
	assert.NotContains(t, rec.Body.String(), "Amélie")

	rec = get(a, "/series/?genre=Comedia")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `href="/series/dark/"`)

	rec = get(a, "/buscar/?q=am%C3%A9lie")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/peliculas/amelie/"`)
}

func TestLegalPagesFillSiteName(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/aviso-legal/", "/privacidad/"} {
		rec := get(a, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Moonlight Test", path)
		assert.NotContains(t, rec.Body.String(), "{site}", path)
	}
}

func TestEmbeddedAssets(t *testing.T) {
	a := newTestApp(t)

	rec := get(a, "/public/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".card")

	rec = get(a, "/favicon.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestFeeds(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)

	rec := get(a, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /admin/")
	assert.Contains(t, rec.Body.String(), "Sitemap: "+testSiteURL+"/sitemap.xml")

	rec = get(a, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>"+testSiteURL+"/series/dark/</loc>")
	assert.Contains(t, body, "<loc>"+testSiteURL+"/series/dark/temporada/temporada-1/episodio/piloto/</loc>")
	assert.Contains(t, body, "<loc>"+testSiteURL+"/peliculas/</loc>")

	rec = get(a, "/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "<title>Dark (Series)</title>")
	assert.Contains(t, rec.Body.String(), "<category>Drama</category>")
}

func TestContactForm(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a, "/contacto/")
	form := url.Values{
		"name":    {"Ana"},
		"email":   {"ana@example.com"},
		"subject": {"Enlace roto"},
		"message": {"El servidor 2 no carga."},
	}

	rec := postForm(a, "/contacto/", form, csrf)
	assert.Equal(t, http.StatusForbidden, rec.Code, "missing CSRF token")

	bad := url.Values{"name": {"Ana"}, "email": {"no-es-un-email"}, "subject": {"x"}, "message": {"y"}, "_csrf": {csrf.Value}}
	rec = postForm(a, "/contacto/", bad, csrf)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email no válido")

	form.Set("_csrf", csrf.Value)
	rec = postForm(a, "/contacto/", form, csrf)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contacto/?enviado=1", rec.Header().Get(echo.HeaderLocation))

	n, err := a.Catalog.CountUnreadMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestContactFormIsRateLimited(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a, "/contacto/")
	form := url.Values{
		"name": {"Ana"}, "email": {"ana@example.com"}, "subject": {"Hola"}, "message": {"Mensaje"},
		"_csrf": {csrf.Value},
	}
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusSeeOther, postForm(a, "/contacto/", form, csrf).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, postForm(a, "/contacto/", form, csrf).Code)
}

func TestAPIContents(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)
	_, err := a.Catalog.CreateContent(context.Background(), catalog.Content{Type: catalog.TypeAnime, Title: "Pendiente"})
	require.NoError(t, err)

	rec := get(a, "/api/v1/contents")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []catalog.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "dark", list[0].Slug)

	rec = get(a, "/api/v1/contents?type=anime")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = get(a, "/api/v1/contents?type=documental")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"unknown content type"}`, rec.Body.String())

	rec = get(a, "/api/v1/contents/no-existe")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"content not found"}`, rec.Body.String())

	rec = get(a, "/api/v1/ruta-desconocida")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestAPIEpisodeRecordsView(t *testing.T) {
	a := newTestApp(t)
	_, _, ep := seedSeries(t, a)

	rec := get(a, "/api/v1/contents/dark/seasons/temporada-1/episodes/piloto")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Title  string `json:"title"`
		Embeds []struct {
			Name string `json:"name"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Piloto", body.Title)
	assert.Len(t, body.Embeds, 1)

	got, err := a.Catalog.GetEpisode(context.Background(), ep.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)

	rec = get(a, "/api/v1/contents/dark/seasons")
	require.Equal(t, http.StatusOK, rec.Code)
	var seasons []catalog.Season
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seasons))
	require.Len(t, seasons, 1)
	assert.Equal(t, 1, seasons[0].EpisodeCount)
}

func TestAPIFacetsAndCarousel(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)

	rec := get(a, "/api/v1/genres")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Drama","Misterio"]`, rec.Body.String())

	rec = get(a, "/api/v1/carousel")
	require.Equal(t, http.StatusOK, rec.Code)
	var carousel []catalog.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &carousel))
	assert.Len(t, carousel, 1)
}

func TestAPIContact(t *testing.T) {
	a := newTestApp(t)
	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return serve(a, req)
	}

	rec := post(`{"name":"Ana","email":"ana","subject":"Hola","message":"Mensaje"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = post(`{"name":"Ana","email":"ana@example.com","subject":"Hola","message":"Mensaje"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var msg catalog.ContactMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Read)
}

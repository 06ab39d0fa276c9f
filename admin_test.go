package moonlight

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlightbl/moonlight/catalog"
)

func TestAdminRequiresLogin(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/admin/", "/admin/contenidos/", "/admin/estadisticas/", "/admin/media/"} {
		rec := get(a, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/admin/login/", rec.Header().Get(echo.HeaderLocation), path)
	}
	rec := get(a, "/admin/login/")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a, "/admin/login/")

	rec := postForm(a, "/admin/login/", url.Values{
		"username": {"admin"}, "password": {"wrong-password"}, "_csrf": {csrf.Value},
	}, csrf)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrectos")
	assert.Nil(t, cookieNamed(rec, sessionName))
}

func TestAdminLoginIsRateLimited(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a, "/admin/login/")
	bad := url.Values{"username": {"admin"}, "password": {"wrong-password"}, "_csrf": {csrf.Value}}
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusUnauthorized, postForm(a, "/admin/login/", bad, csrf).Code)
	}

	good := url.Values{"username": {"admin"}, "password": {testPassword}, "_csrf": {csrf.Value}}
	assert.Equal(t, http.StatusTooManyRequests, postForm(a, "/admin/login/", good, csrf).Code)
}

func TestAdminLoginRateLimitCountsSuccesses(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a, "/admin/login/")
	good := url.Values{"username": {"admin"}, "password": {testPassword}, "_csrf": {csrf.Value}}
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusSeeOther, postForm(a, "/admin/login/", good, csrf).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, postForm(a, "/admin/login/", good, csrf).Code)
}

func TestAdminLoginRememberMe(t *testing.T) {
	a := newTestApp(t)
	csrf := csrfCookie(t, a, "/admin/login/")

	rec := postForm(a, "/admin/login/", url.Values{
		"username": {"admin"}, "password": {testPassword}, "remember": {"1"}, "_csrf": {csrf.Value},
	}, csrf)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	sess := cookieNamed(rec, sessionName)
	require.NotNil(t, sess)
	assert.Equal(t, rememberMaxAge, sess.MaxAge)
}

func TestAdminSessionExpires(t *testing.T) {
	a := newTestApp(t)
	store := a.newSessionStore()
	sessionCookie := func(expires time.Time) *http.Cookie {
		values := map[interface{}]interface{}{
			"authenticated": true,
			"username":      "admin",
			"expires":       expires.Unix(),
		}
		encoded, err := securecookie.EncodeMulti(sessionName, values, store.Codecs...)
		require.NoError(t, err)
		return &http.Cookie{Name: sessionName, Value: encoded}
	}

	rec := get(a, "/admin/", sessionCookie(time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(a, "/admin/", sessionCookie(time.Now().Add(-time.Minute)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login/", rec.Header().Get(echo.HeaderLocation))

	// Sessions written before expiry was tracked are not trusted.
	legacy, err := securecookie.EncodeMulti(sessionName, map[interface{}]interface{}{"authenticated": true}, store.Codecs...)
	require.NoError(t, err)
	rec = get(a, "/admin/", &http.Cookie{Name: sessionName, Value: legacy})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminDashboardAndLogout(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)
	cookies := login(t, a)

	rec := get(a, "/admin/", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find(".stat-cards").Length())
	assert.Contains(t, doc.Find("ul.audit").Text(), "content")

	rec = postForm(a, "/admin/logout/", url.Values{"_csrf": {cookies[0].Value}}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cleared := cookieNamed(rec, sessionName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAdminCreateContentInvalidatesCache(t *testing.T) {
	a := newTestApp(t)
	cookies := login(t, a)

	rec := get(a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Arcane")

	form := url.Values{
		"_csrf":          {cookies[0].Value},
		"title":          {"Arcane"},
		"content_type":   {"serie"},
		"status":         {"published"},
		"genres":         {"Animación, Acción"},
		"year":           {"2021"},
		"is_trending":    {"1"},
		"server_name":    {"Principal", ""},
		"server_url":     {"https://player.example/arcane", ""},
		"server_active":  {"1", "1"},
		"server_order":   {"0", "1"},
		"server_quality": {"1080p", ""},
	}
	rec = postForm(a, "/admin/contenidos/nuevo/", form, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get(echo.HeaderLocation)
	assert.True(t, strings.HasPrefix(loc, "/admin/contenidos/"), loc)
	assert.True(t, strings.HasSuffix(loc, "?msg="+flashContentCreated), loc)

	rec = get(a, loc, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Contenido creado.", parseHTML(t, rec).Find(".flash").Text())

	created, err := a.Catalog.GetContentBySlug(context.Background(), "arcane")
	require.NoError(t, err)
	assert.Equal(t, []string{"Animación", "Acción"}, created.Genres)
	require.Len(t, created.Servers, 1)
	assert.Equal(t, "1080p", created.Servers[0].Quality)

	rec = get(a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Arcane")
}

func TestAdminFlashIgnoresUnknownKeys(t *testing.T) {
	a := newTestApp(t)
	cookies := login(t, a)

	rec := get(a, "/admin/contenidos/?msg="+url.QueryEscape("Tu sesión caducó, entra en evil.example"), cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, 0, doc.Find(".flash").Length())
	assert.NotContains(t, rec.Body.String(), "evil.example")

	rec = get(a, "/admin/contenidos/?msg="+flashContentDeleted, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Contenido eliminado.", parseHTML(t, rec).Find(".flash").Text())
}

func TestAdminCreateContentValidation(t *testing.T) {
	a := newTestApp(t)
	cookies := login(t, a)

	rec := postForm(a, "/admin/contenidos/nuevo/", url.Values{
		"_csrf":        {cookies[0].Value},
		"title":        {""},
		"content_type": {"serie"},
		"synopsis":     {"Se conserva tras el error"},
	}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "el título es obligatorio")
	assert.Contains(t, body, "Se conserva tras el error")

	rec = postForm(a, "/admin/contenidos/nuevo/", url.Values{
		"_csrf":        {cookies[0].Value},
		"title":        {"Año raro"},
		"content_type": {"serie"},
		"year":         {"dos mil"},
	}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "año no válido")
}

func TestAdminDeleteContent(t *testing.T) {
	a := newTestApp(t)
	content, _, _ := seedSeries(t, a)
	cookies := login(t, a)

	require.Equal(t, http.StatusOK, get(a, "/series/dark/").Code)

	rec := postForm(a, "/admin/contenidos/"+content.ID+"/eliminar/", url.Values{"_csrf": {cookies[0].Value}}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Equal(t, http.StatusNotFound, get(a, "/series/dark/").Code)
	assert.Equal(t, http.StatusNotFound, get(a, "/admin/contenidos/"+content.ID+"/", cookies...).Code)
}

func TestAdminSeasonCreateRejectsMovie(t *testing.T) {
	a := newTestApp(t)
	cookies := login(t, a)
	ctx := context.Background()
	film, err := a.Catalog.CreateContent(ctx, catalog.Content{Type: catalog.TypePelicula, Title: "Coherence"})
	require.NoError(t, err)

	rec := postForm(a, "/admin/contenidos/"+film.ID+"/temporadas/nueva/", url.Values{
		"_csrf":  {cookies[0].Value},
		"number": {"1"},
		"status": {"published"},
	}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "las películas no tienen temporadas")

	seasons, err := a.Catalog.ListSeasons(ctx, film.ID)
	require.NoError(t, err)
	assert.Empty(t, seasons)
}

func TestAdminSeasonAndEpisodeForms(t *testing.T) {
	a := newTestApp(t)
	content, _, _ := seedSeries(t, a)
	cookies := login(t, a)
	ctx := context.Background()

	rec := postForm(a, "/admin/contenidos/"+content.ID+"/temporadas/nueva/", url.Values{
		"_csrf":  {cookies[0].Value},
		"number": {"2"},
		"status": {"published"},
	}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	seasons, err := a.Catalog.ListSeasons(ctx, content.ID)
	require.NoError(t, err)
	require.Len(t, seasons, 2)
	second := seasons[1]
	assert.Equal(t, "temporada-2", second.Slug)

	rec = postForm(a, "/admin/temporadas/"+second.ID+"/episodios/nuevo/", url.Values{
		"_csrf":      {cookies[0].Value},
		"number":     {"1"},
		"title":      {"Secretos"},
		"status":     {"published"},
		"server_url": {`<iframe src="https://player.example/embed/dark-2x1"></iframe>`},
	}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get(a, "/series/dark/temporada/temporada-2/episodio/secretos/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `src="https://player.example/embed/dark-2x1"`)

	rec = get(a, "/admin/temporadas/"+second.ID+"/episodios/", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Secretos")
}

func TestAdminCarouselSave(t *testing.T) {
	a := newTestApp(t)
	content, _, _ := seedSeries(t, a)
	cookies := login(t, a)

	rec := postForm(a, "/admin/carrusel/", url.Values{
		"_csrf":     {cookies[0].Value},
		"auto_type": {catalog.AutoLatest},
		"add":       {content.ID},
	}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cfg, err := a.Catalog.CarouselConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, cfg.AutoPopulate)
	assert.Equal(t, catalog.AutoLatest, cfg.AutoType)
	require.Len(t, cfg.Items, 1)
	assert.Equal(t, content.ID, cfg.Items[0].ContentID)

	rec = get(a, "/admin/carrusel/", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dark")
}

func TestAdminStatsAndMessages(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)
	cookies := login(t, a)
	ctx := context.Background()

	require.Equal(t, http.StatusOK, get(a, "/series/dark/").Code)
	rec := get(a, "/admin/estadisticas/?period=week", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dark")

	msg, err := a.Catalog.SubmitContact(ctx, catalog.ContactMessage{
		Name: "Ana", Email: "ana@example.com", Subject: "Hola", Message: "Gracias",
	})
	require.NoError(t, err)

	rec = get(a, "/admin/mensajes/", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", strings.TrimSpace(parseHTML(t, rec).Find(".admin-nav .badge").Text()))

	rec = postForm(a, "/admin/mensajes/"+msg.ID+"/leido/", url.Values{"_csrf": {cookies[0].Value}}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	n, err := a.Catalog.CountUnreadMessages(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImageResizesWideImages(t *testing.T) {
	m, data, err := processImage(bytes.NewReader(pngBytes(t, 2560, 100)), "Póster Final.png")
	require.NoError(t, err)
	assert.Equal(t, "poster-final.jpg", m.Filename)
	assert.Equal(t, maxImageWidth, m.Width)
	assert.Equal(t, 50, m.Height)
	assert.Equal(t, len(data), m.Size)

	_, _, err = processImage(strings.NewReader("not an image"), "x.png")
	assert.Error(t, err)
}

func TestAdminMediaUploadAndDelete(t *testing.T) {
	a := newTestApp(t)
	cookies := login(t, a)

	upload := func() *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("_csrf", cookies[0].Value))
		fw, err := mw.CreateFormFile("image", "portada.png")
		require.NoError(t, err)
		_, err = fw.Write(pngBytes(t, 40, 30))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/admin/media/", &body)
		req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		return serve(a, req)
	}

	require.Equal(t, http.StatusSeeOther, upload().Code)
	require.Equal(t, http.StatusSeeOther, upload().Code)

	uploads := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	assert.FileExists(t, filepath.Join(uploads, "portada.jpg"))
	assert.FileExists(t, filepath.Join(uploads, "portada-2.jpg"))

	rec := get(a, "/public/uploads/portada.jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))

	rec = postForm(a, "/admin/media/portada.jpg/eliminar/", url.Values{"_csrf": {cookies[0].Value}}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err := os.Stat(filepath.Join(uploads, "portada.jpg"))
	assert.True(t, os.IsNotExist(err))

	media, err := a.Catalog.ListMedia(context.Background())
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "portada-2.jpg", media[0].Filename)
}

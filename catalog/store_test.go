package catalog

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// A ticking clock keeps created_at/updated_at ordering deterministic.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func mustContent(t *testing.T, s *Store, c Content) Content {
	t.Helper()
	got, err := s.CreateContent(context.Background(), c)
	require.NoError(t, err)
	return got
}

func TestCreateAndGetContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := mustContent(t, s, Content{
		Type:     TypeSerie,
		Title:    "Dark",
		Year:     2017,
		Synopsis: "Un niño desaparece.",
		Genres:   []string{"Drama", " ", "Misterio"},
		Cast:     []string{"Louis Hofmann"},
		Country:  "Alemania",
		Status:   StatusPublished,
		Servers:  []Server{{Name: "Principal", URL: "https://player.example/dark", IsActive: true}},
	})

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "dark", c.Slug)
	assert.Equal(t, []string{"Drama", "Misterio"}, c.Genres)
	assert.Equal(t, "/series/dark/", c.Link())
	require.Len(t, c.Servers, 1)
	assert.True(t, c.Servers[0].IsActive)

	got, err := s.GetContentBySlug(ctx, "dark")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, 2017, got.Year)
	assert.Equal(t, "Alemania", got.Country)
}

func TestCreateContentDefaultsToPendingAndHidesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := mustContent(t, s, Content{Type: TypeAnime, Title: "Borrador"})
	assert.Equal(t, StatusPending, c.Status)

	_, err := s.GetContentBySlug(ctx, c.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	admin, err := s.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Borrador", admin.Title)
}

func TestCreateContentSlugCollision(t *testing.T) {
	s := newTestStore(t)

	a := mustContent(t, s, Content{Type: TypeSerie, Title: "Élite"})
	b := mustContent(t, s, Content{Type: TypeSerie, Title: "Elite"})
	c := mustContent(t, s, Content{Type: TypePelicula, Title: "Otra", Slug: "elite"})

	assert.Equal(t, "elite", a.Slug)
	assert.Equal(t, "elite-2", b.Slug)
	assert.Equal(t, "elite-3", c.Slug)
}

func TestCreateContentValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []Content{
		{Type: TypeSerie},
		{Type: "podcast", Title: "X"},
		{Type: TypeSerie, Title: "X", Rating: 11},
		{Type: TypeSerie, Title: "X", Year: 1200},
		{Type: TypeSerie, Title: "X", Poster: "javascript:alert(1)"},
		{Type: TypeSerie, Title: "X", Servers: []Server{{Name: "vacío"}}},
		{Type: TypeSerie, Title: "!!!"},
	}
	for _, c := range cases {
		_, err := s.CreateContent(ctx, c)
		assert.True(t, IsValidation(err), "expected validation error for %+v, got %v", c, err)
	}
}

func TestCreateContentRejectsNaNRating(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateContent(context.Background(), Content{Type: TypeSerie, Title: "X", Rating: math.NaN()})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "la valoración debe estar entre 0 y 10", verr.Message)
}

func TestUpdateContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustContent(t, s, Content{Type: TypeSerie, Title: "Uno"})
	b := mustContent(t, s, Content{Type: TypeSerie, Title: "Dos"})
	require.NoError(t, s.IncrementContentViews(ctx, a.ID))

	a.Title = "Uno renombrado"
	a.Status = StatusPublished
	updated, err := s.UpdateContent(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Uno renombrado", updated.Title)
	assert.Equal(t, "uno", updated.Slug, "explicit slug is kept")
	assert.Equal(t, int64(1), updated.Views, "views survive updates")
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	b.Slug = "uno"
	_, err = s.UpdateContent(ctx, b)
	assert.True(t, IsValidation(err))

	_, err = s.UpdateContent(ctx, Content{ID: "missing", Type: TypeSerie, Title: "Nada"})
	assert.ErrorIs(t, err, ErrNotFound)

	logs, err := s.ListAuditLogs(ctx, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, ActionUpdate, logs[0].Action)
	assert.Equal(t, "Uno renombrado", logs[0].Changes["title"])
	assert.Equal(t, "published", logs[0].Changes["status"])
}

func TestListContentsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustContent(t, s, Content{Type: TypeSerie, Title: "Dark", Year: 2017, Country: "Alemania",
		Genres: []string{"Drama", "Ciencia ficción"}, Status: StatusPublished, IsPopular: true})
	mustContent(t, s, Content{Type: TypeSerie, Title: "Élite", Year: 2018, Country: "España",
		Genres: []string{"Drama"}, Status: StatusPublished, IsTrending: true, Synopsis: "Un colegio exclusivo"})
	mustContent(t, s, Content{Type: TypeAnime, Title: "Naruto", Year: 2002, Country: "Japón",
		Genres: []string{"Acción"}, Status: StatusPublished})
	mustContent(t, s, Content{Type: TypeSerie, Title: "Oculta", Genres: []string{"Drama"}})

	titles := func(cs []Content) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Title
		}
		return out
	}

	all, err := s.ListContents(ctx, ContentQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Naruto", "Élite", "Dark"}, titles(all), "newest first, published only")

	series, err := s.ListContents(ctx, ContentQuery{Type: TypeSerie, SortBy: "year", SortAsc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dark", "Élite"}, titles(series))

	drama, err := s.ListContents(ctx, ContentQuery{Genre: "drama"})
	require.NoError(t, err)
	assert.Len(t, drama, 2)

	byYear, err := s.ListContents(ctx, ContentQuery{Year: 2002})
	require.NoError(t, err)
	assert.Equal(t, []string{"Naruto"}, titles(byYear))

	byCountry, err := s.ListContents(ctx, ContentQuery{Country: "España"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Élite"}, titles(byCountry))

	popular, err := s.ListContents(ctx, ContentQuery{IsPopular: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dark"}, titles(popular))

	notTrending, err := s.ListContents(ctx, ContentQuery{IsTrending: Bool(false)})
	require.NoError(t, err)
	assert.Len(t, notTrending, 2)

	search, err := s.ListContents(ctx, ContentQuery{Search: "colegio"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Élite"}, titles(search), "search covers synopsis")

	wildcard, err := s.ListContents(ctx, ContentQuery{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, wildcard, "LIKE metacharacters are literal")

	page, err := s.ListContents(ctx, ContentQuery{Limit: 1, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Élite"}, titles(page))

	pending, err := s.ListContents(ctx, ContentQuery{Status: StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"Oculta"}, titles(pending))

	bogusSort, err := s.ListContents(ctx, ContentQuery{SortBy: "title; DROP TABLE contents"})
	require.NoError(t, err)
	assert.Len(t, bogusSort, 3)
}

func TestListAllContentsSearchesExternalIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustContent(t, s, Content{Type: TypePelicula, Title: "Roma", TMDBID: "426426", IMDBID: "tt6155172"})
	mustContent(t, s, Content{Type: TypeSerie, Title: "Romanzo Criminale", Status: StatusPublished})

	got, err := s.ListAllContents(ctx, AdminContentQuery{Search: "tt6155172"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Roma", got[0].Title)

	got, err = s.ListAllContents(ctx, AdminContentQuery{Search: "roma"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListAllContents(ctx, AdminContentQuery{Status: StatusPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Roma", got[0].Title)
}

func TestCreateSeasonRejectsMovies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	film := mustContent(t, s, Content{Type: TypePelicula, Title: "Coherence"})
	_, err := s.CreateSeason(ctx, film.ID, Season{Number: 1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content_id", verr.Field)

	got, err := s.GetContent(ctx, film.ID)
	require.NoError(t, err)
	assert.Zero(t, got.SeasonCount)

	_, err = s.CreateSeason(ctx, "missing", Season{Number: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeasonAndEpisodeCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := mustContent(t, s, Content{Type: TypeSerie, Title: "Dark", Status: StatusPublished})

	s1, err := s.CreateSeason(ctx, c.ID, Season{Number: 1, Status: StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, "temporada-1", s1.Slug)
	assert.Equal(t, "Dark", s1.ContentTitle)
	s2, err := s.CreateSeason(ctx, c.ID, Season{Number: 2, Title: "Temporada 1"})
	require.NoError(t, err)
	assert.Equal(t, "temporada-1-2", s2.Slug, "season slugs are unique per content")

	got, err := s.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SeasonCount)

	e1, err := s.CreateEpisode(ctx, s1.ID, Episode{Number: 1, Title: "Secretos", Status: StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, c.ID, e1.ContentID, "episode inherits the season's content")
	assert.Equal(t, "secretos", e1.Slug)
	assert.Equal(t, 1, e1.SeasonNumber)
	_, err = s.CreateEpisode(ctx, s1.ID, Episode{Number: 2})
	require.NoError(t, err)

	season, err := s.GetSeason(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, season.EpisodeCount)

	require.NoError(t, s.DeleteEpisode(ctx, e1.ID))
	season, err = s.GetSeason(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, season.EpisodeCount)

	require.NoError(t, s.DeleteSeason(ctx, s1.ID))
	got, err = s.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SeasonCount)

	eps, err := s.ListAllEpisodes(ctx, ListParams{ContentID: c.ID})
	require.NoError(t, err)
	assert.Empty(t, eps, "deleting a season removes its episodes")

	_, err = s.CreateEpisode(ctx, "no-such-season", Episode{Number: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.CreateSeason(ctx, "no-such-content", Season{Number: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCounterNeverNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := mustContent(t, s, Content{Type: TypeSerie, Title: "Cero"})
	se, err := s.CreateSeason(ctx, c.ID, Season{Number: 1})
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `UPDATE contents SET season_count = 0 WHERE id = ?`, c.ID)
	require.NoError(t, err)
	require.NoError(t, s.DeleteSeason(ctx, se.ID))

	got, err := s.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.SeasonCount)
}

func TestDeleteContentCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := mustContent(t, s, Content{Type: TypeAnime, Title: "Naruto"})
	se, err := s.CreateSeason(ctx, c.ID, Season{Number: 1})
	require.NoError(t, err)
	_, err = s.CreateEpisode(ctx, se.ID, Episode{Number: 1})
	require.NoError(t, err)

	require.NoError(t, s.DeleteContent(ctx, c.ID))

	_, err = s.GetContent(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := s.countRows(ctx, "seasons")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = s.countRows(ctx, "episodes")
	require.NoError(t, err)
	assert.Zero(t, n)

	logs, err := s.ListAuditLogs(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionDelete, logs[0].Action)
	assert.Equal(t, "content", logs[0].EntityType)
	assert.Equal(t, "Naruto", logs[0].Changes["title"])

	assert.ErrorIs(t, s.DeleteContent(ctx, c.ID), ErrNotFound)
}

func TestPublicLookupsRespectStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := mustContent(t, s, Content{Type: TypeSerie, Title: "Dark", Status: StatusPublished})
	pub, err := s.CreateSeason(ctx, c.ID, Season{Number: 1, Status: StatusPublished})
	require.NoError(t, err)
	_, err = s.CreateSeason(ctx, c.ID, Season{Number: 2})
	require.NoError(t, err)
	_, err = s.CreateEpisode(ctx, pub.ID, Episode{Number: 1, Title: "Uno", Status: StatusPublished})
	require.NoError(t, err)
	_, err = s.CreateEpisode(ctx, pub.ID, Episode{Number: 2, Title: "Dos"})
	require.NoError(t, err)

	seasons, err := s.ListPublishedSeasons(ctx, "dark")
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, 1, seasons[0].Number)

	_, err = s.GetSeasonBySlug(ctx, "dark", "temporada-2")
	assert.ErrorIs(t, err, ErrNotFound)

	eps, err := s.ListPublishedEpisodes(ctx, "dark", "temporada-1")
	require.NoError(t, err)
	require.Len(t, eps, 1)

	ep, err := s.GetEpisodeBySlug(ctx, "dark", "temporada-1", "uno")
	require.NoError(t, err)
	assert.Equal(t, "temporada-1", ep.SeasonSlug)
	assert.Equal(t, "dark", ep.ContentSlug)

	_, err = s.GetEpisodeBySlug(ctx, "dark", "temporada-1", "dos")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.IncrementEpisodeViews(ctx, ep))
	ep, err = s.GetEpisode(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ep.Views)
	got, err := s.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	_, err = s.ListPublishedSeasons(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCarouselPinnedOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustContent(t, s, Content{Type: TypeSerie, Title: "A", Status: StatusPublished})
	b := mustContent(t, s, Content{Type: TypeSerie, Title: "B", Status: StatusPublished})
	hidden := mustContent(t, s, Content{Type: TypeSerie, Title: "Hidden"})

	cfg, err := s.SaveCarouselConfig(ctx, CarouselConfig{
		Items: []CarouselItem{
			{ContentID: b.ID, Order: 0},
			{ContentID: hidden.ID, Order: 1},
			{ContentID: "gone", Order: 2},
			{ContentID: a.ID, Order: 3},
			{ContentID: b.ID, Order: 4},
		},
	})
	require.NoError(t, err)
	assert.Len(t, cfg.Items, 4, "duplicates are dropped")

	got, err := s.Carousel(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Title)
	assert.Equal(t, "A", got[1].Title)
}

func TestCarouselAutoPopulate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cfg, err := s.CarouselConfig(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.AutoPopulate)
	assert.Equal(t, AutoPopular, cfg.AutoType)

	mustContent(t, s, Content{Type: TypeSerie, Title: "Low", Status: StatusPublished, IsPopular: true})
	high := mustContent(t, s, Content{Type: TypeSerie, Title: "High", Status: StatusPublished, IsPopular: true})
	mustContent(t, s, Content{Type: TypeSerie, Title: "Trend", Status: StatusPublished, IsTrending: true})
	require.NoError(t, s.IncrementContentViews(ctx, high.ID))

	got, err := s.Carousel(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "High", got[0].Title)

	_, err = s.SaveCarouselConfig(ctx, CarouselConfig{AutoPopulate: true, AutoType: AutoTrending})
	require.NoError(t, err)
	got, err = s.Carousel(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Trend", got[0].Title)

	_, err = s.SaveCarouselConfig(ctx, CarouselConfig{AutoPopulate: true, AutoType: AutoLatest})
	require.NoError(t, err)
	got, err = s.Carousel(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Trend", got[0].Title)

	_, err = s.SaveCarouselConfig(ctx, CarouselConfig{AutoPopulate: false})
	require.NoError(t, err)
	got, err = s.Carousel(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.SaveCarouselConfig(ctx, CarouselConfig{AutoType: "random"})
	assert.True(t, IsValidation(err))
}

func TestFacets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustContent(t, s, Content{Type: TypeSerie, Title: "A", Status: StatusPublished, Country: "España", Genres: []string{"Drama", "Comedia"}})
	mustContent(t, s, Content{Type: TypeSerie, Title: "B", Status: StatusPublished, Country: "Japón", Genres: []string{"Drama"}})
	mustContent(t, s, Content{Type: TypeSerie, Title: "C", Country: "Corea", Genres: []string{"Terror"}})

	genres, err := s.Genres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Comedia", "Drama"}, genres)

	countries, err := s.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"España", "Japón"}, countries)
}

func TestContactMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SubmitContact(ctx, ContactMessage{Name: "Ana", Email: "no-es-email", Subject: "Hola", Message: "Texto"})
	assert.True(t, IsValidation(err))
	_, err = s.SubmitContact(ctx, ContactMessage{Name: "Ana", Email: "Ana <ana@example.com>", Subject: "Hola", Message: "Texto"})
	assert.True(t, IsValidation(err), "display-name addresses are rejected")
	_, err = s.SubmitContact(ctx, ContactMessage{Name: " ", Email: "ana@example.com", Subject: "Hola", Message: "Texto"})
	assert.True(t, IsValidation(err))

	m, err := s.SubmitContact(ctx, ContactMessage{Name: " Ana ", Email: "ana@example.com", Subject: "Hola", Message: "Texto"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", m.Name)
	assert.False(t, m.Read)

	n, err := s.CountUnreadMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.MarkMessageRead(ctx, m.ID))
	n, err = s.CountUnreadMessages(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	msgs, err := s.ListContactMessages(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Read)

	assert.ErrorIs(t, s.MarkMessageRead(ctx, "missing"), ErrNotFound)
}

func TestAdminUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "admin", "supersecret")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.EnsureAdmin(ctx, "other", "supersecret")
	require.NoError(t, err)
	assert.False(t, created, "only bootstraps an empty table")

	u, err := s.Authenticate(ctx, "admin", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)
	assert.NotEqual(t, "supersecret", u.PasswordHash)

	_, err = s.Authenticate(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "nobody", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.CreateAdminUser(ctx, "admin", "anothersecret")
	assert.True(t, IsValidation(err))
	_, err = s.CreateAdminUser(ctx, "short", "123")
	assert.True(t, IsValidation(err))

	require.NoError(t, s.SetAdminPassword(ctx, "admin", "newpassword"))
	_, err = s.Authenticate(ctx, "admin", "newpassword")
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetAdminPassword(ctx, "nobody", "newpassword"), ErrNotFound)

	require.NoError(t, s.RecordLoginAttempt(ctx, "admin", "203.0.113.1", false))
	n, err := s.countRows(ctx, "login_attempts")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOverviewAndTopContents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustContent(t, s, Content{Type: TypeSerie, Title: "A", Status: StatusPublished})
	mustContent(t, s, Content{Type: TypePelicula, Title: "B"})
	mustContent(t, s, Content{Type: TypeAnime, Title: "C", Status: StatusPublished})
	_, err := s.CreateSeason(ctx, a.ID, Season{Number: 1})
	require.NoError(t, err)
	require.NoError(t, s.IncrementContentViews(ctx, a.ID))

	o, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, o.TotalContents)
	assert.Equal(t, 2, o.PublishedContents)
	assert.Equal(t, 1, o.PendingContents)
	assert.Equal(t, 1, o.SeriesCount)
	assert.Equal(t, 1, o.MoviesCount)
	assert.Equal(t, 1, o.AnimeCount)
	assert.Zero(t, o.MiniseriesCount)
	assert.Equal(t, 1, o.TotalSeasons)

	top, err := s.TopContents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Title)
}

func TestMedia(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMedia(ctx, Media{Filename: "poster.jpg", OriginalName: "Poster.PNG", Width: 800, Height: 1200, Size: 1024}))
	ok, err := s.MediaExists(ctx, "poster.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := s.ListMedia(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/public/uploads/poster.jpg", list[0].URL())

	require.NoError(t, s.DeleteMedia(ctx, "poster.jpg"))
	ok, err = s.MediaExists(ctx, "poster.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

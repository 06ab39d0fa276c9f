package moonlight

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlightbl/moonlight/catalog"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://moonlight.test", nil, "https://moonlight.test"},
		{"https://moonlight.test", []string{"series", "dark"}, "https://moonlight.test/series/dark/"},
		{"https://moonlight.test/", []string{"buscar"}, "https://moonlight.test/buscar/"},
		{"https://moonlight.test/sub", []string{"anime"}, "https://moonlight.test/sub/anime/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildURL(tt.base, tt.segments...))
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Drama", "Ciencia ficción"}, SplitList(" Drama , ,Ciencia ficción,"))
	assert.Nil(t, SplitList(""))
}

func TestFilterRelated(t *testing.T) {
	current := catalog.Content{ID: "1", Genres: []string{"Drama"}}
	contents := []catalog.Content{
		{ID: "1", Genres: []string{"Drama"}},
		{ID: "2", Genres: []string{"drama "}},
		{ID: "3", Genres: []string{"Comedia"}},
		{ID: "4", Genres: []string{"Terror", "Drama"}},
	}

	related := FilterRelated(current, contents, 10)
	require.Len(t, related, 2)
	assert.Equal(t, "2", related[0].ID)
	assert.Equal(t, "4", related[1].ID)

	assert.Len(t, FilterRelated(current, contents, 1), 1)
}

func TestPageParam(t *testing.T) {
	e := echo.New()
	for raw, want := range map[string]int{
		"":           1,
		"abc":        1,
		"-3":         1,
		"0":          1,
		"7":          7,
		"10000":      maxPage,
		"2147483647": maxPage,
	} {
		req := httptest.NewRequest(http.MethodGet, "/series/?page="+url.QueryEscape(raw), nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, want, pageParam(c), "page=%q", raw)
	}
}

func TestListingHugePage(t *testing.T) {
	a := newTestApp(t)
	seedSeries(t, a)

	rec := get(a, "/series/?page=2147483647")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildPager(t *testing.T) {
	query := url.Values{"genre": {"Drama"}, "year": {""}, "page": {"2"}}

	p := buildPager("/series/", query, 2, true)
	assert.Equal(t, 2, p.Number)
	assert.Equal(t, "/series/?genre=Drama", p.PrevURL)
	assert.Equal(t, "/series/?genre=Drama&page=3", p.NextURL)

	p = buildPager("/series/", url.Values{}, 1, false)
	assert.Empty(t, p.PrevURL)
	assert.Empty(t, p.NextURL)
}

func TestContentJsonLD(t *testing.T) {
	cfg := SiteConfig{URL: "https://moonlight.test"}
	movie := catalog.Content{
		Type:   catalog.TypePelicula,
		Title:  "Amélie",
		Slug:   "amelie",
		Year:   2001,
		Rating: 8.3,
		Cast:   []string{"Audrey Tautou"},
	}

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(ContentJsonLD(movie, cfg)), &data))
	assert.Equal(t, "Movie", data["@type"])
	assert.Equal(t, "https://moonlight.test/peliculas/amelie/", data["url"])
	assert.Equal(t, "2001", data["dateCreated"])
	assert.NotContains(t, data, "numberOfSeasons")

	series := catalog.Content{Type: catalog.TypeSerie, Title: "Dark", Slug: "dark", SeasonCount: 3}
	data = nil
	require.NoError(t, json.Unmarshal([]byte(ContentJsonLD(series, cfg)), &data))
	assert.Equal(t, "TVSeries", data["@type"])
	assert.EqualValues(t, 3, data["numberOfSeasons"])
}

func TestEpisodeJsonLD(t *testing.T) {
	ep := catalog.Episode{
		Number: 2, Slug: "mentiras", Duration: 52,
		SeasonNumber: 1, SeasonSlug: "temporada-1",
		ContentTitle: "Dark", ContentType: catalog.TypeSerie, ContentSlug: "dark",
	}
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(EpisodeJsonLD(ep, SiteConfig{URL: "https://moonlight.test/"})), &data))
	assert.Equal(t, "Episodio 2", data["name"])
	assert.Equal(t, "https://moonlight.test/series/dark/temporada/temporada-1/episodio/mentiras/", data["url"])
	assert.Equal(t, "PT52M", data["timeRequired"])
}

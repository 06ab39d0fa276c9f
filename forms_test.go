package moonlight

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlightbl/moonlight/catalog"
)

func TestParseServers(t *testing.T) {
	form := url.Values{
		"server_name":      {"Principal", "Vacío", "Respaldo"},
		"server_url":       {" https://player.example/a ", "", `<iframe src="https://player.example/b"></iframe>`},
		"server_quality":   {"1080p", "", "720p"},
		"server_audio":     {"Latino", "", ""},
		"server_subtitles": {"", "", "Español"},
		"server_active":    {"1", "1", "0"},
		"server_order":     {"0", "1", "2"},
	}

	servers := parseServers(form)
	require.Len(t, servers, 2)

	assert.Equal(t, catalog.Server{
		Name: "Principal", URL: "https://player.example/a", EmbedType: "url",
		Quality: "1080p", Audio: "Latino", IsActive: true, Order: 0,
	}, servers[0])

	assert.Equal(t, "Respaldo", servers[1].Name)
	assert.Equal(t, "iframe", servers[1].EmbedType)
	assert.Equal(t, "Español", servers[1].Subtitles)
	assert.False(t, servers[1].IsActive)
	assert.Equal(t, 2, servers[1].Order)
}

func TestParseServersToleratesShortColumns(t *testing.T) {
	servers := parseServers(url.Values{"server_url": {"https://player.example/a"}})
	require.Len(t, servers, 1)
	assert.True(t, servers[0].IsActive)
	assert.Empty(t, servers[0].Name)
}

func TestServerRowsAddsBlankRows(t *testing.T) {
	rows := serverRows([]catalog.Server{{URL: "https://player.example/a"}})
	require.Len(t, rows, 1+blankServerRows)
	assert.Empty(t, rows[1].URL)
	assert.True(t, rows[1].IsActive)
	assert.Equal(t, 1, rows[1].Order)
}

func TestCarouselItemsFromForm(t *testing.T) {
	items := carouselItemsFromForm(
		[]string{"a", "b", "c"},
		[]string{"2", "0", "1"},
		[]string{"b"},
		"d",
	)
	assert.Equal(t, []catalog.CarouselItem{
		{ContentID: "c", Order: 0},
		{ContentID: "a", Order: 1},
		{ContentID: "d", Order: 2},
	}, items)

	assert.Equal(t, []catalog.CarouselItem{{ContentID: "x", Order: 0}}, carouselItemsFromForm(nil, nil, nil, "x"))
	assert.Empty(t, carouselItemsFromForm(nil, nil, nil, ""))
}

func TestFormInt(t *testing.T) {
	form := url.Values{"year": {" 2021 "}, "bad": {"abc"}}

	n, err := formInt(form, "year", "año")
	require.NoError(t, err)
	assert.Equal(t, 2021, n)

	n, err = formInt(form, "missing", "número")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = formInt(form, "bad", "número")
	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "bad", ve.Field)
}

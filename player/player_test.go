package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlightbl/moonlight/catalog"
)

func TestResolvePlainURL(t *testing.T) {
	e, err := Resolve(catalog.Server{Name: "Principal", URL: " https://player.example/e/abc ", Quality: "1080p", Audio: "Latino"})
	require.NoError(t, err)
	assert.Equal(t, Embed{Src: "https://player.example/e/abc", Name: "Principal", Quality: "1080p", Audio: "Latino"}, e)
}

func TestResolveIframeSnippet(t *testing.T) {
	snippet := `<IFRAME SRC="//stream.example/embed/42?autoplay=0" width="640" allowfullscreen></IFRAME>`
	e, err := Resolve(catalog.Server{URL: snippet})
	require.NoError(t, err)
	assert.Equal(t, "https://stream.example/embed/42?autoplay=0", e.Src)
	assert.Equal(t, "stream.example", e.Name, "name falls back to the host")
}

func TestResolveSkipsUnsafeSources(t *testing.T) {
	snippet := `<div><iframe src="javascript:alert(1)"></iframe><video><source src="https://cdn.example/v.mp4"></video></div>`
	e, err := Resolve(catalog.Server{Name: "CDN", URL: snippet})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/v.mp4", e.Src)
}

func TestResolveRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"javascript:alert(1)",
		"/relative/path",
		"ftp://files.example/x",
		`<script>alert(1)</script>`,
		`<iframe src="data:text/html,hi"></iframe>`,
	} {
		_, err := Resolve(catalog.Server{URL: raw})
		assert.ErrorIs(t, err, ErrNoSource, raw)
	}
}

func TestActiveServersOrder(t *testing.T) {
	servers := []catalog.Server{
		{Name: "B", URL: "https://b.example", IsActive: true, Order: 1},
		{Name: "Off", URL: "https://off.example", IsActive: false, Order: 0},
		{Name: "A", URL: "https://a.example", IsActive: true, Order: 1},
		{Name: "Z", URL: "https://z.example", IsActive: true, Order: 0},
	}
	got := ActiveServers(servers)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Z", "A", "B"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestResolveAll(t *testing.T) {
	embeds := ResolveAll([]catalog.Server{
		{Name: "Bad", URL: "javascript:void(0)", IsActive: true},
		{Name: "Good", URL: "https://good.example/e/1", IsActive: true, Order: 2},
		{Name: "Hidden", URL: "https://hidden.example", IsActive: false},
	})
	require.Len(t, embeds, 1)
	assert.Equal(t, "Good", embeds[0].Name)
}

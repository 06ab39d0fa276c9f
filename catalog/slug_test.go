package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  La Casa de Papel  ", "la-casa-de-papel"},
		{"Había una vez", "habia-una-vez"},
		{"Niño & Señor: El Regreso", "nino-senor-el-regreso"},
		{"Spider-Man: No Way Home", "spider-man-no-way-home"},
		{"snake_case_title", "snake-case-title"},
		{"Tom's Story!!", "toms-story"},
		{"---", ""},
		{"Temporada 2", "temporada-2"},
		{"Crème brûlée", "creme-brulee"},
		{"Dr. Who?", "dr-who"},
		{"Ocho.Apellidos", "ochoapellidos"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.input), "Slugify(%q)", tt.input)
	}
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"dark": true, "dark-2": true}
	got, err := uniqueSlug("dark", func(s string) (bool, error) { return taken[s], nil })
	require.NoError(t, err)
	assert.Equal(t, "dark-3", got)

	got, err = uniqueSlug("fresh", func(s string) (bool, error) { return taken[s], nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestContentTypeSlugs(t *testing.T) {
	for _, ct := range ContentTypes {
		back, ok := TypeFromSlug(ct.Slug())
		require.True(t, ok, ct)
		assert.Equal(t, ct, back)
	}
	_, ok := TypeFromSlug("podcasts")
	assert.False(t, ok)
	assert.Equal(t, "peliculas", TypePelicula.Slug())
	assert.False(t, TypePelicula.HasSeasons())
	assert.True(t, TypeAnime.HasSeasons())
}

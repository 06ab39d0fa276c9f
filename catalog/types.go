// Package catalog is the data-access layer for contents, seasons, episodes
// and the admin records around them. Everything is stored in SQLite.
package catalog

import "time"

// ContentType is the kind of a catalog entry.
type ContentType string

const (
	TypeSerie     ContentType = "serie"
	TypeMiniserie ContentType = "miniserie"
	TypePelicula  ContentType = "pelicula"
	TypeAnime     ContentType = "anime"
)

// ContentTypes lists every type in menu order.
var ContentTypes = []ContentType{TypeSerie, TypeMiniserie, TypePelicula, TypeAnime}

var typeSlugs = map[ContentType]string{
	TypeSerie:     "series",
	TypeMiniserie: "miniseries",
	TypePelicula:  "peliculas",
	TypeAnime:     "anime",
}

var typeLabels = map[ContentType]string{
	TypeSerie:     "Series",
	TypeMiniserie: "Miniseries",
	TypePelicula:  "Películas",
	TypeAnime:     "Anime",
}

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	_, ok := typeSlugs[t]
	return ok
}

// Slug is the URL segment used for the type's pages.
func (t ContentType) Slug() string {
	if s, ok := typeSlugs[t]; ok {
		return s
	}
	return string(t)
}

// Label is the human readable plural name.
func (t ContentType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// HasSeasons reports whether contents of this type are split into seasons.
// Films carry their servers directly.
func (t ContentType) HasSeasons() bool {
	return t != TypePelicula
}

// TypeFromSlug maps a URL segment back to its content type.
func TypeFromSlug(slug string) (ContentType, bool) {
	for t, s := range typeSlugs {
		if s == slug {
			return t, true
		}
	}
	return "", false
}

// Status is the publication state shared by contents, seasons and episodes.
type Status string

const (
	StatusPublished Status = "published"
	StatusPending   Status = "pending"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPublished || s == StatusPending
}

// Label is the Spanish badge text used in the admin.
func (s Status) Label() string {
	if s == StatusPublished {
		return "Publicado"
	}
	return "Pendiente"
}

// Server is one embedded video source.
type Server struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	EmbedType string `json:"embed_type,omitempty"`
	Subtitles string `json:"subtitles,omitempty"`
	Audio     string `json:"audio,omitempty"`
	Quality   string `json:"quality,omitempty"`
	IsActive  bool   `json:"is_active"`
	Order     int    `json:"order"`
}

// Content is a series, miniseries, film or anime.
type Content struct {
	ID                string      `json:"id"`
	Type              ContentType `json:"content_type"`
	Title             string      `json:"title"`
	Slug              string      `json:"slug"`
	Year              int         `json:"year,omitempty"`
	Synopsis          string      `json:"synopsis"`
	Genres            []string    `json:"genres"`
	Tags              []string    `json:"tags"`
	Rating            float64     `json:"rating,omitempty"`
	ProductionCompany string      `json:"production_company,omitempty"`
	Producer          string      `json:"producer,omitempty"`
	Cast              []string    `json:"cast"`
	Poster            string      `json:"poster"`
	Backdrop          string      `json:"backdrop"`
	Gallery           []string    `json:"gallery"`
	TrailerURL        string      `json:"trailer_url,omitempty"`
	TMDBID            string      `json:"tmdb_id,omitempty"`
	IMDBID            string      `json:"imdb_id,omitempty"`
	Country           string      `json:"country,omitempty"`
	Status            Status      `json:"status"`
	IsFeatured        bool        `json:"is_featured"`
	IsTrending        bool        `json:"is_trending"`
	IsPopular         bool        `json:"is_popular"`
	Servers           []Server    `json:"servers"`
	Views             int64       `json:"views"`
	SeasonCount       int         `json:"season_count"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Link is the public path of the content page.
func (c Content) Link() string {
	return "/" + c.Type.Slug() + "/" + c.Slug + "/"
}

// Season belongs to a content. The Content* fields are filled by joins.
type Season struct {
	ID           string    `json:"id"`
	ContentID    string    `json:"content_id"`
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	CustomURL    string    `json:"custom_url,omitempty"`
	Poster       string    `json:"poster"`
	Backdrop     string    `json:"backdrop"`
	Year         int       `json:"year,omitempty"`
	Synopsis     string    `json:"synopsis"`
	TMDBID       string    `json:"tmdb_id,omitempty"`
	IMDBID       string    `json:"imdb_id,omitempty"`
	AirDate      string    `json:"air_date,omitempty"`
	Status       Status    `json:"status"`
	EpisodeCount int       `json:"episode_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	ContentTitle string      `json:"content_title,omitempty"`
	ContentType  ContentType `json:"content_type,omitempty"`
	ContentSlug  string      `json:"content_slug,omitempty"`
}

// DisplayTitle falls back to "Temporada N" when the season has no title.
func (s Season) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return "Temporada " + itoa(s.Number)
}

// Link is the public path of the season. It needs the joined content fields.
func (s Season) Link() string {
	return "/" + s.ContentType.Slug() + "/" + s.ContentSlug + "/temporada/" + s.Slug + "/"
}

// Episode belongs to a season. The Season* and Content* fields are filled by joins.
type Episode struct {
	ID        string    `json:"id"`
	SeasonID  string    `json:"season_id"`
	ContentID string    `json:"content_id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CustomURL string    `json:"custom_url,omitempty"`
	Synopsis  string    `json:"synopsis"`
	Duration  int       `json:"duration,omitempty"`
	Poster    string    `json:"poster"`
	Thumbnail string    `json:"thumbnail"`
	TMDBID    string    `json:"tmdb_id,omitempty"`
	IMDBID    string    `json:"imdb_id,omitempty"`
	AirDate   string    `json:"air_date,omitempty"`
	Status    Status    `json:"status"`
	Servers   []Server  `json:"servers"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SeasonNumber int         `json:"season_number,omitempty"`
	SeasonTitle  string      `json:"season_title,omitempty"`
	SeasonSlug   string      `json:"season_slug,omitempty"`
	ContentTitle string      `json:"content_title,omitempty"`
	ContentType  ContentType `json:"content_type,omitempty"`
	ContentSlug  string      `json:"content_slug,omitempty"`
}

// DisplayTitle falls back to "Episodio N" when the episode has no title.
func (e Episode) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return "Episodio " + itoa(e.Number)
}

// Link is the public path of the episode. It needs the joined fields.
func (e Episode) Link() string {
	return "/" + e.ContentType.Slug() + "/" + e.ContentSlug + "/temporada/" + e.SeasonSlug + "/episodio/" + e.Slug + "/"
}

// SeasonLink is the public path of the episode's season.
func (e Episode) SeasonLink() string {
	return "/" + e.ContentType.Slug() + "/" + e.ContentSlug + "/temporada/" + e.SeasonSlug + "/"
}

// Carousel auto-fill strategies.
const (
	AutoPopular  = "popular"
	AutoTrending = "trending"
	AutoLatest   = "latest"
)

// CarouselItem pins one content into the home carousel.
type CarouselItem struct {
	ContentID string `json:"content_id"`
	Order     int    `json:"order"`
}

// CarouselConfig is the single-row home carousel configuration.
type CarouselConfig struct {
	Items        []CarouselItem `json:"items"`
	AutoPopulate bool           `json:"auto_populate"`
	AutoType     string         `json:"auto_type"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ContactMessage is a message sent through the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// AuditLog records one admin write.
type AuditLog struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Changes    map[string]any `json:"changes"`
	Timestamp  time.Time      `json:"timestamp"`
}

// AdminUser is an account allowed into the admin.
type AdminUser struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Media is an uploaded image stored under the uploads directory.
type Media struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   time.Time
}

// URL is the public path of the uploaded file.
func (m Media) URL() string {
	return "/public/uploads/" + m.Filename
}

// Overview holds the admin dashboard counters.
type Overview struct {
	TotalContents     int `json:"total_contents"`
	PublishedContents int `json:"published_contents"`
	PendingContents   int `json:"pending_contents"`
	SeriesCount       int `json:"series_count"`
	MiniseriesCount   int `json:"miniseries_count"`
	MoviesCount       int `json:"movies_count"`
	AnimeCount        int `json:"anime_count"`
	TotalSeasons      int `json:"total_seasons"`
	TotalEpisodes     int `json:"total_episodes"`
	TotalViews        int `json:"total_views"`
}

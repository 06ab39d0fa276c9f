package views

import (
	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/player"
	"github.com/moonlightbl/moonlight/stats"
)

// Site holds the site-wide settings every page needs.
type Site struct {
	Name        string
	URL         string
	Description string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website", "video.tv_show", "video.movie", "video.episode"
	Image       string
	JSONLD      string
}

// Page is embedded in every page model.
type Page struct {
	Site  Site
	Meta  PageMeta
	CSRF  string
	Admin bool
	Flash string
	// Unread is shown next to the inbox link in the admin menu.
	Unread int
}

// Row is a titled strip of content cards.
type Row struct {
	Title string
	Link  string
	Items []catalog.Content
}

// HomePage is the landing page.
type HomePage struct {
	Page
	Carousel []catalog.Content
	Rows     []Row
}

// Filter holds the listing filters echoed back into the form.
type Filter struct {
	Genre   string
	Year    int
	Country string
	Sort    string
}

// Pager links to neighbouring listing pages. Empty URLs mean no page.
type Pager struct {
	Number  int
	PrevURL string
	NextURL string
}

// ListingPage is a per-type index such as /series/.
type ListingPage struct {
	Page
	Type      catalog.ContentType
	Contents  []catalog.Content
	Genres    []string
	Countries []string
	Filter    Filter
	Pager     Pager
}

// SearchPage lists search results.
type SearchPage struct {
	Page
	Query   string
	Genre   string
	Genres  []string
	Results []catalog.Content
}

// ContentPage shows a content with its seasons or, for films, its players.
type ContentPage struct {
	Page
	Content catalog.Content
	Seasons []catalog.Season
	Embeds  []player.Embed
	Related []catalog.Content
}

// SeasonPage lists the episodes of a season.
type SeasonPage struct {
	Page
	Content  catalog.Content
	Season   catalog.Season
	Seasons  []catalog.Season
	Episodes []catalog.Episode
}

// EpisodePage plays an episode.
type EpisodePage struct {
	Page
	Content catalog.Content
	Season  catalog.Season
	Episode catalog.Episode
	Embeds  []player.Embed
	Prev    *catalog.Episode
	Next    *catalog.Episode
}

// ContactPage is the contact form.
type ContactPage struct {
	Page
	Form  catalog.ContactMessage
	Error string
	Sent  bool
}

// LegalPage renders a Markdown document.
type LegalPage struct {
	Page
	Heading string
	Body    string
}

// ErrorPage is shown for 404 and 5xx responses.
type ErrorPage struct {
	Page
	Code    int
	Message string
}

// LoginPage is the admin login form.
type LoginPage struct {
	Page
	Username string
	Error    string
}

// DashboardPage is the admin landing page.
type DashboardPage struct {
	Page
	Overview catalog.Overview
	Top      []catalog.Content
	Recent   []catalog.AuditLog
}

// ContentsPage is the admin content list.
type ContentsPage struct {
	Page
	Contents []catalog.Content
	Query    catalog.AdminContentQuery
	Types    []catalog.ContentType
}

// ContentFormPage creates or edits a content.
type ContentFormPage struct {
	Page
	Content catalog.Content
	IsNew   bool
	Error   string
	Types   []catalog.ContentType
	Servers []catalog.Server
}

// SeasonsPage lists seasons, either of one content or across contents.
type SeasonsPage struct {
	Page
	Content *catalog.Content
	Seasons []catalog.Season
	Search  string
}

// SeasonFormPage creates or edits a season.
type SeasonFormPage struct {
	Page
	Content catalog.Content
	Season  catalog.Season
	IsNew   bool
	Error   string
}

// EpisodesPage lists episodes, either of one season or across seasons.
type EpisodesPage struct {
	Page
	Season   *catalog.Season
	Episodes []catalog.Episode
	Search   string
}

// EpisodeFormPage creates or edits an episode.
type EpisodeFormPage struct {
	Page
	Season  catalog.Season
	Episode catalog.Episode
	IsNew   bool
	Error   string
	Servers []catalog.Server
}

// CarouselPage edits the home carousel.
type CarouselPage struct {
	Page
	Config     catalog.CarouselConfig
	Pinned     []catalog.Content
	Candidates []catalog.Content
}

// RankedContent pairs a content with its views in a period.
type RankedContent struct {
	Content catalog.Content
	Views   int
}

// StatsPage shows view statistics.
type StatsPage struct {
	Page
	Period   string
	Summary  *stats.Summary
	Ranked   []RankedContent
	// MaxDaily scales the bar chart.
	MaxDaily int
}

// MessagesPage is the contact inbox.
type MessagesPage struct {
	Page
	Messages []catalog.ContactMessage
}

// AuditPage lists audit log entries.
type AuditPage struct {
	Page
	Logs  []catalog.AuditLog
	Pager Pager
}

// MediaPage lists uploaded artwork.
type MediaPage struct {
	Page
	Media []catalog.Media
	Error string
}

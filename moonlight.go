// Package moonlight serves a catalog of series, miniseries, films and anime
// with embedded third-party players, built with Go, Echo, and templ.
//
// It provides the public pages, a read-only JSON API, a session-protected
// admin, view statistics, RSS and a sitemap out of the box.
package moonlight

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/stats"
)

// App is the central Moonlight application. It wires together the stores,
// cache, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Catalog *catalog.Store
	Stats   *stats.Store
	Cache   *CatalogCache

	loginLimiter   *RateLimiter
	contactLimiter *RateLimiter
	customRoutes   []func(*App)
	stopCleanup    func()
}

// New creates a Moonlight App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the databases, bootstraps the first admin and registers
// middleware and routes. Start calls it; tests call it directly and drive
// a.Echo with httptest.
func (a *App) Setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("moonlight: SessionSecret is required")
	}
	a.Echo.Logger.SetLevel(parseLogLevel(a.Config.LogLevel))

	store, err := catalog.NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("moonlight: init catalog: %w", err)
	}
	a.Catalog = store

	created, err := a.Catalog.EnsureAdmin(context.Background(), a.Config.AdminUser, a.Config.AdminPassword)
	if err != nil {
		return fmt.Errorf("moonlight: bootstrap admin: %w", err)
	}
	if created {
		a.Echo.Logger.Infof("created admin user %q", a.Config.AdminUser)
	}

	statsStore, err := stats.NewStore(a.Config.StatsDatabasePath, stats.WithDedupWindow(a.Config.ViewDedupWindow))
	if err != nil {
		return fmt.Errorf("moonlight: init stats: %w", err)
	}
	a.Stats = statsStore
	a.stopCleanup = a.Stats.StartCleanupScheduler(a.Config.StatsRetentionDays, 24*time.Hour, a.Echo.Logger)

	a.Cache = NewCatalogCache(a.Catalog, a.Config.CacheTTL)

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.contactLimiter = NewRateLimiter(3, 10*time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/style.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/favicon.svg", echo.WrapHandler(embeddedHandler))

	// Uploads and any site-owned assets.
	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/buscar/", a.handleSearch)
	e.GET("/aviso-legal/", a.handleLegal)
	e.GET("/privacidad/", a.handlePrivacy)
	e.GET("/contacto/", a.handleContact)
	e.POST("/contacto/", a.handleContactSubmit)
	for _, t := range catalog.ContentTypes {
		e.GET("/"+t.Slug()+"/", a.handleListing(t))
	}
	e.GET("/:type/:slug/", a.handleContent)
	e.GET("/:type/:slug/temporada/:season/", a.handleSeason)
	e.GET("/:type/:slug/temporada/:season/episodio/:episode/", a.handleEpisode)

	a.registerAPI(e.Group("/api/v1"))
	a.registerAdmin(e.Group("/admin"))
}

// Close stops background work and closes the databases.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.contactLimiter != nil {
		a.contactLimiter.Stop()
	}
	if a.Stats != nil {
		a.Stats.Close()
	}
	if a.Catalog != nil {
		a.Catalog.Close()
	}
	return nil
}

func parseLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

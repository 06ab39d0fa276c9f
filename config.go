package moonlight

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a Moonlight site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Moonlight")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags

	Addr              string `yaml:"addr"`                // Listen address (default ":3000")
	DatabasePath      string `yaml:"database_path"`       // SQLite path (default "data/moonlight.db")
	StatsDatabasePath string `yaml:"stats_database_path"` // View statistics SQLite path (default "data/stats.db")
	StaticDir         string `yaml:"static_dir"`          // Static assets and uploads (default "public")

	AdminUser     string `yaml:"admin_user"`     // Bootstrap admin username (default "admin")
	AdminPassword string `yaml:"admin_password"` // Bootstrap admin password, used while no admin exists
	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	CacheTTL           time.Duration `yaml:"cache_ttl"`            // Home/facet cache TTL (default 5m)
	StatsRetentionDays int           `yaml:"stats_retention_days"` // View rows kept (default 365)
	ViewDedupWindow    time.Duration `yaml:"view_dedup_window"`    // Repeat-view window per client (default 10m)
	LogLevel           string        `yaml:"log_level"`            // debug, info, warn, error (default info)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Moonlight"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/moonlight.db"
	}
	if c.StatsDatabasePath == "" {
		c.StatsDatabasePath = "data/stats.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.AdminUser == "" {
		c.AdminUser = "admin"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.StatsRetentionDays == 0 {
		c.StatsRetentionDays = 365
	}
	if c.ViewDedupWindow == 0 {
		c.ViewDedupWindow = 10 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoadConfig reads a YAML config file, then applies MOONLIGHT_* environment
// overrides. An empty path or a missing file yields a config from the
// environment alone.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	c.Name = EnvOr("MOONLIGHT_SITE_NAME", c.Name)
	c.URL = EnvOr("MOONLIGHT_SITE_URL", c.URL)
	c.Description = EnvOr("MOONLIGHT_SITE_DESCRIPTION", c.Description)
	c.Addr = EnvOr("MOONLIGHT_ADDR", c.Addr)
	c.DatabasePath = EnvOr("MOONLIGHT_DATABASE_PATH", c.DatabasePath)
	c.StatsDatabasePath = EnvOr("MOONLIGHT_STATS_DATABASE_PATH", c.StatsDatabasePath)
	c.StaticDir = EnvOr("MOONLIGHT_STATIC_DIR", c.StaticDir)
	c.AdminUser = EnvOr("MOONLIGHT_ADMIN_USER", c.AdminUser)
	c.AdminPassword = EnvOr("MOONLIGHT_ADMIN_PASSWORD", c.AdminPassword)
	c.SessionSecret = EnvOr("MOONLIGHT_SESSION_SECRET", c.SessionSecret)
	c.LogLevel = EnvOr("MOONLIGHT_LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("MOONLIGHT_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MOONLIGHT_COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	if v := os.Getenv("MOONLIGHT_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MOONLIGHT_CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	if v := os.Getenv("MOONLIGHT_STATS_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MOONLIGHT_STATS_RETENTION_DAYS: %w", err)
		}
		c.StatsRetentionDays = n
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides SiteConfig.StaticDir.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

package moonlight

import (
	"context"
	"sync"
	"time"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/views"
)

// homeRowSize is how many cards each home row shows.
const homeRowSize = 12

// CatalogCache is an in-memory cache of the home page data and the
// genre/country facets with TTL. Admin writes invalidate it.
type CatalogCache struct {
	mu      sync.RWMutex
	data    cacheData
	loaded  bool
	fetched time.Time
	ttl     time.Duration
	store   *catalog.Store
}

type cacheData struct {
	carousel  []catalog.Content
	rows      []views.Row
	genres    []string
	countries []string
}

// NewCatalogCache creates a CatalogCache backed by the given Store.
func NewCatalogCache(s *catalog.Store, ttl time.Duration) *CatalogCache {
	return &CatalogCache{store: s, ttl: ttl}
}

func (c *CatalogCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.data = cacheData{}
	c.mu.Unlock()
}

func (c *CatalogCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	carousel, err := c.store.Carousel(ctx)
	if err != nil {
		return err
	}
	rows, err := c.loadRows(ctx)
	if err != nil {
		return err
	}
	genres, err := c.store.Genres(ctx)
	if err != nil {
		return err
	}
	countries, err := c.store.Countries(ctx)
	if err != nil {
		return err
	}
	c.data = cacheData{carousel: carousel, rows: rows, genres: genres, countries: countries}
	c.loaded = true
	c.fetched = time.Now()
	return nil
}

func (c *CatalogCache) loadRows(ctx context.Context) ([]views.Row, error) {
	var rows []views.Row

	trending, err := c.store.ListContents(ctx, catalog.ContentQuery{IsTrending: catalog.Bool(true), SortBy: "views", Limit: homeRowSize})
	if err != nil {
		return nil, err
	}
	rows = append(rows, views.Row{Title: "Tendencias", Items: trending})

	popular, err := c.store.ListContents(ctx, catalog.ContentQuery{IsPopular: catalog.Bool(true), SortBy: "views", Limit: homeRowSize})
	if err != nil {
		return nil, err
	}
	rows = append(rows, views.Row{Title: "Populares", Items: popular})

	for _, t := range catalog.ContentTypes {
		latest, err := c.store.ListContents(ctx, catalog.ContentQuery{Type: t, Limit: homeRowSize})
		if err != nil {
			return nil, err
		}
		rows = append(rows, views.Row{Title: t.Label(), Link: "/" + t.Slug() + "/", Items: latest})
	}
	return rows, nil
}

// snapshot returns the cached data after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *CatalogCache) snapshot(ctx context.Context) (cacheData, error) {
	c.mu.RLock()
	if c.valid() {
		data := c.data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return cacheData{}, err
	}
	return c.data, nil
}

// Home returns the carousel and the home rows.
func (c *CatalogCache) Home(ctx context.Context) ([]catalog.Content, []views.Row, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap.carousel, snap.rows, nil
}

// Genres returns the genres of published contents.
func (c *CatalogCache) Genres(ctx context.Context) ([]string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.genres, nil
}

// Countries returns the countries of published contents.
func (c *CatalogCache) Countries(ctx context.Context) ([]string, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.countries, nil
}

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const carouselAutoLimit = 10

// DefaultCarouselConfig is used until an admin saves one.
func DefaultCarouselConfig() CarouselConfig {
	return CarouselConfig{
		Items:        []CarouselItem{},
		AutoPopulate: true,
		AutoType:     AutoPopular,
	}
}

// CarouselConfig returns the stored carousel configuration, or the default.
func (s *Store) CarouselConfig(ctx context.Context) (CarouselConfig, error) {
	var items, updated string
	var auto int
	cfg := CarouselConfig{}
	err := s.db.QueryRowContext(ctx, `SELECT items, auto_populate, auto_type, updated_at FROM carousel_config WHERE id = 1`).
		Scan(&items, &auto, &cfg.AutoType, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultCarouselConfig(), nil
	}
	if err != nil {
		return CarouselConfig{}, err
	}
	if err := json.Unmarshal([]byte(items), &cfg.Items); err != nil || cfg.Items == nil {
		cfg.Items = []CarouselItem{}
	}
	cfg.AutoPopulate = auto == 1
	cfg.UpdatedAt = parseTime(updated)
	return cfg, nil
}

// SaveCarouselConfig upserts the single carousel row. Items are stored in
// ascending order; duplicates keep their first position.
func (s *Store) SaveCarouselConfig(ctx context.Context, cfg CarouselConfig) (CarouselConfig, error) {
	switch cfg.AutoType {
	case AutoPopular, AutoTrending, AutoLatest:
	case "":
		cfg.AutoType = AutoPopular
	default:
		return CarouselConfig{}, invalid("auto_type", "tipo automático no válido")
	}
	items := make([]CarouselItem, 0, len(cfg.Items))
	seen := make(map[string]struct{})
	sort.SliceStable(cfg.Items, func(i, j int) bool { return cfg.Items[i].Order < cfg.Items[j].Order })
	for _, it := range cfg.Items {
		if it.ContentID == "" {
			continue
		}
		if _, dup := seen[it.ContentID]; dup {
			continue
		}
		seen[it.ContentID] = struct{}{}
		items = append(items, CarouselItem{ContentID: it.ContentID, Order: len(items)})
	}
	b, err := json.Marshal(items)
	if err != nil {
		return CarouselConfig{}, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO carousel_config (id, items, auto_populate, auto_type, updated_at)
			VALUES (1, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET items = excluded.items, auto_populate = excluded.auto_populate,
			auto_type = excluded.auto_type, updated_at = excluded.updated_at`,
			string(b), boolInt(cfg.AutoPopulate), cfg.AutoType, s.stamp())
		if err != nil {
			return fmt.Errorf("save carousel: %w", err)
		}
		return s.audit(ctx, tx, ActionUpdate, "carousel", "1", map[string]any{
			"items": len(items), "auto_populate": cfg.AutoPopulate, "auto_type": cfg.AutoType,
		})
	})
	if err != nil {
		return CarouselConfig{}, err
	}
	return s.CarouselConfig(ctx)
}

// Carousel resolves the home carousel. Pinned items win, in configured
// order, skipping contents that are gone or unpublished. With no pinned
// items and auto_populate on, up to ten contents are picked by auto_type.
func (s *Store) Carousel(ctx context.Context) ([]Content, error) {
	cfg, err := s.CarouselConfig(ctx)
	if err != nil {
		return nil, err
	}
	if len(cfg.Items) > 0 {
		ids := make([]string, len(cfg.Items))
		for i, it := range cfg.Items {
			ids[i] = it.ContentID
		}
		byID, err := s.ContentsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		ordered := make([]Content, 0, len(ids))
		for _, id := range ids {
			if c, ok := byID[id]; ok {
				ordered = append(ordered, c)
			}
		}
		return ordered, nil
	}
	if !cfg.AutoPopulate {
		return []Content{}, nil
	}
	q := ContentQuery{Limit: carouselAutoLimit}
	switch cfg.AutoType {
	case AutoPopular:
		q.IsPopular = Bool(true)
		q.SortBy = "views"
	case AutoTrending:
		q.IsTrending = Bool(true)
		q.SortBy = "views"
	default:
		q.SortBy = "created_at"
	}
	return s.ListContents(ctx, q)
}

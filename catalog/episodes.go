package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const episodeColumns = `e.id, e.season_id, e.content_id, e.number, e.title, e.slug, e.custom_url, e.synopsis,
e.duration, e.poster, e.thumbnail, e.tmdb_id, e.imdb_id, e.air_date, e.status, e.servers, e.views,
e.created_at, e.updated_at,
COALESCE(s.number, 0), COALESCE(s.title, ''), COALESCE(s.slug, ''),
COALESCE(c.title, ''), COALESCE(c.content_type, ''), COALESCE(c.slug, '')`

const episodeFrom = ` FROM episodes e
LEFT JOIN seasons s ON s.id = e.season_id
LEFT JOIN contents c ON c.id = e.content_id`

func scanEpisode(row rowScanner) (Episode, error) {
	var ep Episode
	var servers, created, updated string
	err := row.Scan(&ep.ID, &ep.SeasonID, &ep.ContentID, &ep.Number, &ep.Title, &ep.Slug, &ep.CustomURL, &ep.Synopsis,
		&ep.Duration, &ep.Poster, &ep.Thumbnail, &ep.TMDBID, &ep.IMDBID, &ep.AirDate, &ep.Status, &servers, &ep.Views,
		&created, &updated,
		&ep.SeasonNumber, &ep.SeasonTitle, &ep.SeasonSlug,
		&ep.ContentTitle, &ep.ContentType, &ep.ContentSlug)
	if err != nil {
		return Episode{}, err
	}
	if ep.ContentTitle == "" {
		ep.ContentTitle = "N/A"
	}
	if ep.ContentType == "" {
		ep.ContentType = "N/A"
	}
	ep.Servers = decodeServers(servers)
	ep.CreatedAt = parseTime(created)
	ep.UpdatedAt = parseTime(updated)
	return ep, nil
}

func (s *Store) queryEpisodes(ctx context.Context, query string, args ...any) ([]Episode, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	episodes := []Episode{}
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// ListPublishedEpisodes returns the published episodes of a published season.
func (s *Store) ListPublishedEpisodes(ctx context.Context, contentSlug, seasonSlug string) ([]Episode, error) {
	se, err := s.GetSeasonBySlug(ctx, contentSlug, seasonSlug)
	if err != nil {
		return nil, err
	}
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+episodeFrom+`
		WHERE e.season_id = ? AND e.status = 'published' ORDER BY e.number, e.slug`, se.ID)
}

// GetEpisodeBySlug returns a published episode. The caller records the view.
func (s *Store) GetEpisodeBySlug(ctx context.Context, contentSlug, seasonSlug, episodeSlug string) (Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+episodeFrom+`
		WHERE c.slug = ? AND c.status = 'published'
		AND s.slug = ? AND s.status = 'published'
		AND e.slug = ? AND e.status = 'published'`, contentSlug, seasonSlug, episodeSlug)
	return scanEpisode(row)
}

// ListEpisodes returns every episode of a season, ordered by number (for admin).
func (s *Store) ListEpisodes(ctx context.Context, seasonID string) ([]Episode, error) {
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+episodeFrom+` WHERE e.season_id = ? ORDER BY e.number, e.slug`, seasonID)
}

// ListAllEpisodes returns episodes across contents, newest first.
func (s *Store) ListAllEpisodes(ctx context.Context, p ListParams) ([]Episode, error) {
	where := []string{"1 = 1"}
	var args []any
	if p.SeasonID != "" {
		where = append(where, "e.season_id = ?")
		args = append(args, p.SeasonID)
	}
	if p.ContentID != "" {
		where = append(where, "e.content_id = ?")
		args = append(args, p.ContentID)
	}
	if term := strings.TrimSpace(p.Search); term != "" {
		where = append(where, `(e.title LIKE ? ESCAPE '\' OR e.tmdb_id = ? OR e.imdb_id = ?)`)
		args = append(args, likePattern(term), term, term)
	}
	args = append(args, clampLimit(p.Limit, 50, 500), max(p.Skip, 0))
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+episodeFrom+` WHERE `+strings.Join(where, " AND ")+
		` ORDER BY e.created_at DESC, e.id LIMIT ? OFFSET ?`, args...)
}

// GetEpisode returns an episode by id with season and content fields joined.
func (s *Store) GetEpisode(ctx context.Context, id string) (Episode, error) {
	return scanEpisode(s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+episodeFrom+` WHERE e.id = ?`, id))
}

func normalizeEpisode(ep *Episode) {
	ep.Title = strings.TrimSpace(ep.Title)
	ep.Slug = Slugify(ep.Slug)
	if ep.Slug == "" {
		ep.Slug = Slugify(ep.DisplayTitle())
	}
	if ep.Status == "" {
		ep.Status = StatusPending
	}
}

func validateEpisode(ep Episode) error {
	if ep.Number < 0 {
		return invalid("number", "el número no puede ser negativo")
	}
	if ep.Duration < 0 {
		return invalid("duration", "la duración no puede ser negativa")
	}
	if !ep.Status.Valid() {
		return invalid("status", "estado no válido")
	}
	if ep.Slug == "" {
		return invalid("slug", "slug obligatorio")
	}
	if !validAssetURL(ep.Poster) {
		return invalid("poster", "URL no válida")
	}
	if !validAssetURL(ep.Thumbnail) {
		return invalid("thumbnail", "URL no válida")
	}
	return validateServers(ep.Servers)
}

func episodeSlugTaken(ctx context.Context, tx *sql.Tx, seasonID, slug, exceptID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM episodes WHERE season_id = ? AND slug = ?`, seasonID, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id != exceptID, nil
}

// CreateEpisode adds an episode to a season, inheriting the season's
// content_id, and bumps the season's episode_count. An unknown season
// yields ErrNotFound.
func (s *Store) CreateEpisode(ctx context.Context, seasonID string, ep Episode) (Episode, error) {
	normalizeEpisode(&ep)
	if err := validateEpisode(ep); err != nil {
		return Episode{}, err
	}
	ep.ID = newID()
	ep.SeasonID = seasonID
	now := s.stamp()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT content_id FROM seasons WHERE id = ?`, seasonID).Scan(&ep.ContentID); err != nil {
			return err
		}
		slug, err := uniqueSlug(ep.Slug, func(candidate string) (bool, error) {
			return episodeSlugTaken(ctx, tx, seasonID, candidate, "")
		})
		if err != nil {
			return err
		}
		ep.Slug = slug
		_, err = tx.ExecContext(ctx, `INSERT INTO episodes (id, season_id, content_id, number, title, slug, custom_url,
			synopsis, duration, poster, thumbnail, tmdb_id, imdb_id, air_date, status, servers, views, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			ep.ID, ep.SeasonID, ep.ContentID, ep.Number, ep.Title, ep.Slug, ep.CustomURL,
			ep.Synopsis, ep.Duration, ep.Poster, ep.Thumbnail, ep.TMDBID, ep.IMDBID, ep.AirDate,
			string(ep.Status), encodeServers(ep.Servers), now, now)
		if err != nil {
			return fmt.Errorf("insert episode: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE seasons SET episode_count = episode_count + 1 WHERE id = ?`, seasonID); err != nil {
			return fmt.Errorf("bump episode_count: %w", err)
		}
		return s.audit(ctx, tx, ActionCreate, "episode", ep.ID, map[string]any{"season_id": seasonID, "number": ep.Number})
	})
	if err != nil {
		return Episode{}, err
	}
	return s.GetEpisode(ctx, ep.ID)
}

// UpdateEpisode replaces the editable fields of the episode with ep.ID.
func (s *Store) UpdateEpisode(ctx context.Context, ep Episode) (Episode, error) {
	normalizeEpisode(&ep)
	if err := validateEpisode(ep); err != nil {
		return Episode{}, err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var seasonID string
		if err := tx.QueryRowContext(ctx, `SELECT season_id FROM episodes WHERE id = ?`, ep.ID).Scan(&seasonID); err != nil {
			return err
		}
		taken, err := episodeSlugTaken(ctx, tx, seasonID, ep.Slug, ep.ID)
		if err != nil {
			return err
		}
		if taken {
			return invalid("slug", "ya existe otro episodio con ese slug")
		}
		_, err = tx.ExecContext(ctx, `UPDATE episodes SET number = ?, title = ?, slug = ?, custom_url = ?, synopsis = ?,
			duration = ?, poster = ?, thumbnail = ?, tmdb_id = ?, imdb_id = ?, air_date = ?, status = ?, servers = ?,
			updated_at = ? WHERE id = ?`,
			ep.Number, ep.Title, ep.Slug, ep.CustomURL, ep.Synopsis, ep.Duration, ep.Poster, ep.Thumbnail,
			ep.TMDBID, ep.IMDBID, ep.AirDate, string(ep.Status), encodeServers(ep.Servers), s.stamp(), ep.ID)
		if err != nil {
			return fmt.Errorf("update episode: %w", err)
		}
		return s.audit(ctx, tx, ActionUpdate, "episode", ep.ID, map[string]any{"number": ep.Number, "status": ep.Status})
	})
	if err != nil {
		return Episode{}, err
	}
	return s.GetEpisode(ctx, ep.ID)
}

// DeleteEpisode removes an episode and decrements its season's
// episode_count, never below zero.
func (s *Store) DeleteEpisode(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var seasonID string
		if err := tx.QueryRowContext(ctx, `SELECT season_id FROM episodes WHERE id = ?`, id).Scan(&seasonID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete episode: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE seasons SET episode_count = MAX(episode_count - 1, 0) WHERE id = ?`, seasonID); err != nil {
			return fmt.Errorf("decrement episode_count: %w", err)
		}
		return s.audit(ctx, tx, ActionDelete, "episode", id, map[string]any{"season_id": seasonID})
	})
}

// IncrementEpisodeViews bumps the views counter of an episode and of its content.
func (s *Store) IncrementEpisodeViews(ctx context.Context, ep Episode) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE episodes SET views = views + 1 WHERE id = ?`, ep.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE contents SET views = views + 1 WHERE id = ?`, ep.ContentID)
		return err
	})
}

// AllPublishedEpisodes returns every published episode whose season and
// content are published too.
func (s *Store) AllPublishedEpisodes(ctx context.Context) ([]Episode, error) {
	return s.queryEpisodes(ctx, `SELECT `+episodeColumns+episodeFrom+`
		WHERE e.status = 'published' AND s.status = 'published' AND c.status = 'published'
		ORDER BY c.slug, s.number, e.number`)
}

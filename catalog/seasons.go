package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const seasonColumns = `s.id, s.content_id, s.number, s.title, s.slug, s.custom_url, s.poster, s.backdrop,
s.year, s.synopsis, s.tmdb_id, s.imdb_id, s.air_date, s.status, s.episode_count, s.created_at, s.updated_at,
COALESCE(c.title, ''), COALESCE(c.content_type, ''), COALESCE(c.slug, '')`

const seasonFrom = ` FROM seasons s LEFT JOIN contents c ON c.id = s.content_id`

// ListParams filters the admin-wide season and episode listings.
type ListParams struct {
	ContentID string
	SeasonID  string
	Search    string
	Limit     int
	Skip      int
}

func scanSeason(row rowScanner) (Season, error) {
	var se Season
	var created, updated string
	err := row.Scan(&se.ID, &se.ContentID, &se.Number, &se.Title, &se.Slug, &se.CustomURL, &se.Poster, &se.Backdrop,
		&se.Year, &se.Synopsis, &se.TMDBID, &se.IMDBID, &se.AirDate, &se.Status, &se.EpisodeCount, &created, &updated,
		&se.ContentTitle, &se.ContentType, &se.ContentSlug)
	if err != nil {
		return Season{}, err
	}
	if se.ContentTitle == "" {
		se.ContentTitle = "N/A"
	}
	if se.ContentType == "" {
		se.ContentType = "N/A"
	}
	se.CreatedAt = parseTime(created)
	se.UpdatedAt = parseTime(updated)
	return se, nil
}

func (s *Store) querySeasons(ctx context.Context, query string, args ...any) ([]Season, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seasons := []Season{}
	for rows.Next() {
		se, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, se)
	}
	return seasons, rows.Err()
}

// ListPublishedSeasons returns the published seasons of a published content,
// ordered by number.
func (s *Store) ListPublishedSeasons(ctx context.Context, contentSlug string) ([]Season, error) {
	c, err := s.GetContentBySlug(ctx, contentSlug)
	if err != nil {
		return nil, err
	}
	return s.querySeasons(ctx, `SELECT `+seasonColumns+seasonFrom+` WHERE s.content_id = ? AND s.status = 'published' ORDER BY s.number, s.slug`, c.ID)
}

// GetSeasonBySlug returns a published season of a published content.
func (s *Store) GetSeasonBySlug(ctx context.Context, contentSlug, seasonSlug string) (Season, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seasonColumns+seasonFrom+`
		WHERE c.slug = ? AND c.status = 'published' AND s.slug = ? AND s.status = 'published'`, contentSlug, seasonSlug)
	return scanSeason(row)
}

// ListSeasons returns every season of a content, ordered by number (for admin).
func (s *Store) ListSeasons(ctx context.Context, contentID string) ([]Season, error) {
	return s.querySeasons(ctx, `SELECT `+seasonColumns+seasonFrom+` WHERE s.content_id = ? ORDER BY s.number, s.slug`, contentID)
}

// ListAllSeasons returns seasons across contents, newest first.
func (s *Store) ListAllSeasons(ctx context.Context, p ListParams) ([]Season, error) {
	where := []string{"1 = 1"}
	var args []any
	if p.ContentID != "" {
		where = append(where, "s.content_id = ?")
		args = append(args, p.ContentID)
	}
	if term := strings.TrimSpace(p.Search); term != "" {
		where = append(where, `(s.title LIKE ? ESCAPE '\' OR s.tmdb_id = ? OR s.imdb_id = ?)`)
		args = append(args, likePattern(term), term, term)
	}
	args = append(args, clampLimit(p.Limit, 50, 500), max(p.Skip, 0))
	return s.querySeasons(ctx, `SELECT `+seasonColumns+seasonFrom+` WHERE `+strings.Join(where, " AND ")+
		` ORDER BY s.created_at DESC, s.id LIMIT ? OFFSET ?`, args...)
}

// GetSeason returns a season by id with its content fields joined.
func (s *Store) GetSeason(ctx context.Context, id string) (Season, error) {
	return scanSeason(s.db.QueryRowContext(ctx, `SELECT `+seasonColumns+seasonFrom+` WHERE s.id = ?`, id))
}

func normalizeSeason(se *Season) {
	se.Title = strings.TrimSpace(se.Title)
	se.Slug = Slugify(se.Slug)
	if se.Slug == "" {
		se.Slug = Slugify(se.DisplayTitle())
	}
	if se.Status == "" {
		se.Status = StatusPending
	}
}

func validateSeason(se Season) error {
	if se.Number < 0 {
		return invalid("number", "el número no puede ser negativo")
	}
	if !se.Status.Valid() {
		return invalid("status", "estado no válido")
	}
	if se.Slug == "" {
		return invalid("slug", "slug obligatorio")
	}
	if se.Year != 0 && (se.Year < 1870 || se.Year > 2200) {
		return invalid("year", "año fuera de rango")
	}
	if !validAssetURL(se.Poster) {
		return invalid("poster", "URL no válida")
	}
	if !validAssetURL(se.Backdrop) {
		return invalid("backdrop", "URL no válida")
	}
	return nil
}

func seasonSlugTaken(ctx context.Context, tx *sql.Tx, contentID, slug, exceptID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM seasons WHERE content_id = ? AND slug = ?`, contentID, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id != exceptID, nil
}

// CreateSeason adds a season to a content and bumps the content's season_count.
func (s *Store) CreateSeason(ctx context.Context, contentID string, se Season) (Season, error) {
	normalizeSeason(&se)
	if err := validateSeason(se); err != nil {
		return Season{}, err
	}
	se.ID = newID()
	se.ContentID = contentID
	now := s.stamp()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var contentType string
		if err := tx.QueryRowContext(ctx, `SELECT content_type FROM contents WHERE id = ?`, contentID).Scan(&contentType); err != nil {
			return err
		}
		if !ContentType(contentType).HasSeasons() {
			return invalid("content_id", "las películas no tienen temporadas")
		}
		slug, err := uniqueSlug(se.Slug, func(candidate string) (bool, error) {
			return seasonSlugTaken(ctx, tx, contentID, candidate, "")
		})
		if err != nil {
			return err
		}
		se.Slug = slug
		_, err = tx.ExecContext(ctx, `INSERT INTO seasons (id, content_id, number, title, slug, custom_url, poster, backdrop,
			year, synopsis, tmdb_id, imdb_id, air_date, status, episode_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			se.ID, se.ContentID, se.Number, se.Title, se.Slug, se.CustomURL, se.Poster, se.Backdrop,
			se.Year, se.Synopsis, se.TMDBID, se.IMDBID, se.AirDate, string(se.Status), now, now)
		if err != nil {
			return fmt.Errorf("insert season: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE contents SET season_count = season_count + 1 WHERE id = ?`, contentID); err != nil {
			return fmt.Errorf("bump season_count: %w", err)
		}
		return s.audit(ctx, tx, ActionCreate, "season", se.ID, map[string]any{"content_id": contentID, "number": se.Number})
	})
	if err != nil {
		return Season{}, err
	}
	return s.GetSeason(ctx, se.ID)
}

// UpdateSeason replaces the editable fields of the season with se.ID.
func (s *Store) UpdateSeason(ctx context.Context, se Season) (Season, error) {
	normalizeSeason(&se)
	if err := validateSeason(se); err != nil {
		return Season{}, err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var contentID string
		if err := tx.QueryRowContext(ctx, `SELECT content_id FROM seasons WHERE id = ?`, se.ID).Scan(&contentID); err != nil {
			return err
		}
		taken, err := seasonSlugTaken(ctx, tx, contentID, se.Slug, se.ID)
		if err != nil {
			return err
		}
		if taken {
			return invalid("slug", "ya existe otra temporada con ese slug")
		}
		_, err = tx.ExecContext(ctx, `UPDATE seasons SET number = ?, title = ?, slug = ?, custom_url = ?, poster = ?,
			backdrop = ?, year = ?, synopsis = ?, tmdb_id = ?, imdb_id = ?, air_date = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			se.Number, se.Title, se.Slug, se.CustomURL, se.Poster, se.Backdrop, se.Year, se.Synopsis,
			se.TMDBID, se.IMDBID, se.AirDate, string(se.Status), s.stamp(), se.ID)
		if err != nil {
			return fmt.Errorf("update season: %w", err)
		}
		return s.audit(ctx, tx, ActionUpdate, "season", se.ID, map[string]any{"number": se.Number, "status": se.Status})
	})
	if err != nil {
		return Season{}, err
	}
	return s.GetSeason(ctx, se.ID)
}

// DeleteSeason removes a season and its episodes and decrements the
// content's season_count, never below zero.
func (s *Store) DeleteSeason(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var contentID string
		if err := tx.QueryRowContext(ctx, `SELECT content_id FROM seasons WHERE id = ?`, id).Scan(&contentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE season_id = ?`, id); err != nil {
			return fmt.Errorf("delete episodes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM seasons WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete season: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE contents SET season_count = MAX(season_count - 1, 0) WHERE id = ?`, contentID); err != nil {
			return fmt.Errorf("decrement season_count: %w", err)
		}
		return s.audit(ctx, tx, ActionDelete, "season", id, map[string]any{"content_id": contentID})
	})
}

// AllPublishedSeasons returns every published season of a published content.
func (s *Store) AllPublishedSeasons(ctx context.Context) ([]Season, error) {
	return s.querySeasons(ctx, `SELECT `+seasonColumns+seasonFrom+`
		WHERE s.status = 'published' AND c.status = 'published' ORDER BY c.slug, s.number`)
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
)

const contentColumns = `id, content_type, title, slug, year, synopsis, genres, tags, rating,
production_company, producer, cast_members, poster, backdrop, gallery, trailer_url,
tmdb_id, imdb_id, country, status, is_featured, is_trending, is_popular, servers,
views, season_count, created_at, updated_at`

// sortColumns whitelists the columns ListContents may order by.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title COLLATE NOCASE",
	"year":       "year",
	"views":      "views",
	"rating":     "rating",
}

// ContentQuery filters the public content listing. Zero values mean "any".
type ContentQuery struct {
	Status     Status
	Type       ContentType
	Genre      string
	Year       int
	Country    string
	IsFeatured *bool
	IsTrending *bool
	IsPopular  *bool
	Search     string
	SortBy     string
	SortAsc    bool
	Limit      int
	Skip       int
}

// AdminContentQuery filters the admin content listing.
type AdminContentQuery struct {
	Type   ContentType
	Status Status
	Search string
	Limit  int
	Skip   int
}

// Bool returns a pointer to b, for the optional flags of ContentQuery.
func Bool(b bool) *bool {
	return &b
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (Content, error) {
	var c Content
	var genres, tags, cast, gallery, servers, created, updated string
	var featured, trending, popular int
	err := row.Scan(&c.ID, &c.Type, &c.Title, &c.Slug, &c.Year, &c.Synopsis, &genres, &tags, &c.Rating,
		&c.ProductionCompany, &c.Producer, &cast, &c.Poster, &c.Backdrop, &gallery, &c.TrailerURL,
		&c.TMDBID, &c.IMDBID, &c.Country, &c.Status, &featured, &trending, &popular, &servers,
		&c.Views, &c.SeasonCount, &created, &updated)
	if err != nil {
		return Content{}, err
	}
	c.Genres = decodeList(genres)
	c.Tags = decodeList(tags)
	c.Cast = decodeList(cast)
	c.Gallery = decodeList(gallery)
	c.Servers = decodeServers(servers)
	c.IsFeatured = featured == 1
	c.IsTrending = trending == 1
	c.IsPopular = popular == 1
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

func (s *Store) queryContents(ctx context.Context, query string, args ...any) ([]Content, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := []Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// ListContents returns contents matching q. Status defaults to published.
func (s *Store) ListContents(ctx context.Context, q ContentQuery) ([]Content, error) {
	status := q.Status
	if status == "" {
		status = StatusPublished
	}
	where := []string{"status = ?"}
	args := []any{string(status)}

	if q.Type != "" {
		where = append(where, "content_type = ?")
		args = append(args, string(q.Type))
	}
	if g := strings.TrimSpace(q.Genre); g != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(contents.genres) WHERE lower(json_each.value) = lower(?))")
		args = append(args, g)
	}
	if q.Year > 0 {
		where = append(where, "year = ?")
		args = append(args, q.Year)
	}
	if c := strings.TrimSpace(q.Country); c != "" {
		where = append(where, "country = ?")
		args = append(args, c)
	}
	if q.IsFeatured != nil {
		where = append(where, "is_featured = ?")
		args = append(args, boolInt(*q.IsFeatured))
	}
	if q.IsTrending != nil {
		where = append(where, "is_trending = ?")
		args = append(args, boolInt(*q.IsTrending))
	}
	if q.IsPopular != nil {
		where = append(where, "is_popular = ?")
		args = append(args, boolInt(*q.IsPopular))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		where = append(where, `(title LIKE ? ESCAPE '\' OR synopsis LIKE ? ESCAPE '\')`)
		p := likePattern(term)
		args = append(args, p, p)
	}

	order, ok := sortColumns[q.SortBy]
	if !ok {
		order = sortColumns["created_at"]
	}
	dir := "DESC"
	if q.SortAsc {
		dir = "ASC"
	}
	limit := clampLimit(q.Limit, 20, 100)
	skip := q.Skip
	if skip < 0 {
		skip = 0
	}
	args = append(args, limit, skip)

	query := fmt.Sprintf(`SELECT %s FROM contents WHERE %s ORDER BY %s %s, id LIMIT ? OFFSET ?`,
		contentColumns, strings.Join(where, " AND "), order, dir)
	return s.queryContents(ctx, query, args...)
}

// ListAllContents returns contents of any status for the admin, most
// recently updated first. Search matches the title, or the TMDB/IMDB id exactly.
func (s *Store) ListAllContents(ctx context.Context, q AdminContentQuery) ([]Content, error) {
	where := []string{"1 = 1"}
	var args []any
	if q.Type != "" {
		where = append(where, "content_type = ?")
		args = append(args, string(q.Type))
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		where = append(where, `(title LIKE ? ESCAPE '\' OR tmdb_id = ? OR imdb_id = ?)`)
		args = append(args, likePattern(term), term, term)
	}
	args = append(args, clampLimit(q.Limit, 50, 500), max(q.Skip, 0))
	query := fmt.Sprintf(`SELECT %s FROM contents WHERE %s ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		contentColumns, strings.Join(where, " AND "))
	return s.queryContents(ctx, query, args...)
}

// GetContentBySlug returns a published content.
func (s *Store) GetContentBySlug(ctx context.Context, slug string) (Content, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE slug = ? AND status = 'published'`, slug)
	return scanContent(row)
}

// GetContent returns a content by id regardless of status (for admin).
func (s *Store) GetContent(ctx context.Context, id string) (Content, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = ?`, id)
	return scanContent(row)
}

// ContentsByIDs returns the published contents among ids, keyed by id.
func (s *Store) ContentsByIDs(ctx context.Context, ids []string) (map[string]Content, error) {
	out := make(map[string]Content, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	contents, err := s.queryContents(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE status = 'published' AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, c := range contents {
		out[c.ID] = c
	}
	return out, nil
}

func normalizeContent(c *Content) {
	c.Title = strings.TrimSpace(c.Title)
	c.Slug = Slugify(c.Slug)
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	c.Country = strings.TrimSpace(c.Country)
	c.TMDBID = strings.TrimSpace(c.TMDBID)
	c.IMDBID = strings.TrimSpace(c.IMDBID)
}

func validateContent(c Content) error {
	if c.Title == "" {
		return invalid("title", "el título es obligatorio")
	}
	if !c.Type.Valid() {
		return invalid("content_type", "tipo de contenido no válido")
	}
	if !c.Status.Valid() {
		return invalid("status", "estado no válido")
	}
	if c.Slug == "" {
		return invalid("slug", "no se pudo generar un slug a partir del título")
	}
	if c.Year != 0 && (c.Year < 1870 || c.Year > 2200) {
		return invalid("year", "año fuera de rango")
	}
	if math.IsNaN(c.Rating) || c.Rating < 0 || c.Rating > 10 {
		return invalid("rating", "la valoración debe estar entre 0 y 10")
	}
	for field, v := range map[string]string{"poster": c.Poster, "backdrop": c.Backdrop, "trailer_url": c.TrailerURL} {
		if !validAssetURL(v) {
			return invalid(field, "URL no válida")
		}
	}
	for _, g := range c.Gallery {
		if !validAssetURL(g) {
			return invalid("gallery", "URL no válida")
		}
	}
	return validateServers(c.Servers)
}

func validateServers(servers []Server) error {
	for _, sv := range servers {
		if strings.TrimSpace(sv.URL) == "" {
			return invalid("servers", "cada servidor necesita una URL")
		}
	}
	return nil
}

// validAssetURL accepts empty strings, absolute http(s) URLs and
// site-relative paths such as /public/uploads/x.jpg.
func validAssetURL(raw string) bool {
	if raw == "" {
		return true
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contentSlugTaken(ctx context.Context, tx *sql.Tx, slug, exceptID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM contents WHERE slug = ?`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id != exceptID, nil
}

// CreateContent inserts c, deriving a unique slug, and records an audit entry.
// The stored record is returned.
func (s *Store) CreateContent(ctx context.Context, c Content) (Content, error) {
	normalizeContent(&c)
	if err := validateContent(c); err != nil {
		return Content{}, err
	}
	c.ID = newID()
	now := s.stamp()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		slug, err := uniqueSlug(c.Slug, func(candidate string) (bool, error) {
			return contentSlugTaken(ctx, tx, candidate, "")
		})
		if err != nil {
			return err
		}
		c.Slug = slug
		_, err = tx.ExecContext(ctx, `INSERT INTO contents (`+contentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
			c.ID, string(c.Type), c.Title, c.Slug, c.Year, c.Synopsis, encodeList(c.Genres), encodeList(c.Tags), c.Rating,
			c.ProductionCompany, c.Producer, encodeList(c.Cast), c.Poster, c.Backdrop, encodeList(c.Gallery), c.TrailerURL,
			c.TMDBID, c.IMDBID, c.Country, string(c.Status), boolInt(c.IsFeatured), boolInt(c.IsTrending), boolInt(c.IsPopular),
			encodeServers(c.Servers), now, now)
		if err != nil {
			return fmt.Errorf("insert content: %w", err)
		}
		return s.audit(ctx, tx, ActionCreate, "content", c.ID, map[string]any{"title": c.Title})
	})
	if err != nil {
		return Content{}, err
	}
	return s.GetContent(ctx, c.ID)
}

// UpdateContent replaces the editable fields of the content with c.ID.
// Views, season_count and created_at are preserved. A slug held by another
// content is rejected.
func (s *Store) UpdateContent(ctx context.Context, c Content) (Content, error) {
	normalizeContent(&c)
	if err := validateContent(c); err != nil {
		return Content{}, err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		old, err := scanContent(tx.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = ?`, c.ID))
		if err != nil {
			return err
		}
		taken, err := contentSlugTaken(ctx, tx, c.Slug, c.ID)
		if err != nil {
			return err
		}
		if taken {
			return invalid("slug", "ya existe otro contenido con ese slug")
		}
		_, err = tx.ExecContext(ctx, `UPDATE contents SET content_type = ?, title = ?, slug = ?, year = ?, synopsis = ?,
			genres = ?, tags = ?, rating = ?, production_company = ?, producer = ?, cast_members = ?, poster = ?,
			backdrop = ?, gallery = ?, trailer_url = ?, tmdb_id = ?, imdb_id = ?, country = ?, status = ?,
			is_featured = ?, is_trending = ?, is_popular = ?, servers = ?, updated_at = ? WHERE id = ?`,
			string(c.Type), c.Title, c.Slug, c.Year, c.Synopsis, encodeList(c.Genres), encodeList(c.Tags), c.Rating,
			c.ProductionCompany, c.Producer, encodeList(c.Cast), c.Poster, c.Backdrop, encodeList(c.Gallery),
			c.TrailerURL, c.TMDBID, c.IMDBID, c.Country, string(c.Status), boolInt(c.IsFeatured),
			boolInt(c.IsTrending), boolInt(c.IsPopular), encodeServers(c.Servers), s.stamp(), c.ID)
		if err != nil {
			return fmt.Errorf("update content: %w", err)
		}
		return s.audit(ctx, tx, ActionUpdate, "content", c.ID, contentChanges(old, c))
	})
	if err != nil {
		return Content{}, err
	}
	return s.GetContent(ctx, c.ID)
}

// contentChanges lists the scalar fields that differ between old and updated.
func contentChanges(old, updated Content) map[string]any {
	changes := map[string]any{}
	set := func(name string, before, after any) {
		if before != after {
			changes[name] = after
		}
	}
	set("content_type", old.Type, updated.Type)
	set("title", old.Title, updated.Title)
	set("slug", old.Slug, updated.Slug)
	set("year", old.Year, updated.Year)
	set("rating", old.Rating, updated.Rating)
	set("country", old.Country, updated.Country)
	set("status", old.Status, updated.Status)
	set("is_featured", old.IsFeatured, updated.IsFeatured)
	set("is_trending", old.IsTrending, updated.IsTrending)
	set("is_popular", old.IsPopular, updated.IsPopular)
	set("poster", old.Poster, updated.Poster)
	set("backdrop", old.Backdrop, updated.Backdrop)
	if old.Synopsis != updated.Synopsis {
		changes["synopsis"] = "modified"
	}
	if encodeList(old.Genres) != encodeList(updated.Genres) {
		changes["genres"] = updated.Genres
	}
	if encodeServers(old.Servers) != encodeServers(updated.Servers) {
		changes["servers"] = len(updated.Servers)
	}
	return changes
}

// DeleteContent removes a content with its seasons and episodes.
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var title string
		if err := tx.QueryRowContext(ctx, `SELECT title FROM contents WHERE id = ?`, id).Scan(&title); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE content_id = ?`, id); err != nil {
			return fmt.Errorf("delete episodes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM seasons WHERE content_id = ?`, id); err != nil {
			return fmt.Errorf("delete seasons: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contents WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete content: %w", err)
		}
		return s.audit(ctx, tx, ActionDelete, "content", id, map[string]any{"title": title})
	})
}

// Genres returns the sorted set of genres used by published contents.
func (s *Store) Genres(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT genres FROM contents WHERE status = 'published'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, g := range decodeList(raw) {
			set[g] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortedKeys(set), nil
}

// Countries returns the sorted set of countries of published contents.
func (s *Store) Countries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT country FROM contents WHERE status = 'published' AND country != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var country string
		if err := rows.Scan(&country); err != nil {
			return nil, err
		}
		set[country] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortedKeys(set), nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IncrementContentViews bumps the views counter of a content.
func (s *Store) IncrementContentViews(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE contents SET views = views + 1 WHERE id = ?`, id)
	return err
}

// TopContents returns the most viewed contents of any status.
func (s *Store) TopContents(ctx context.Context, limit int) ([]Content, error) {
	return s.queryContents(ctx, `SELECT `+contentColumns+` FROM contents ORDER BY views DESC, title LIMIT ?`,
		clampLimit(limit, 10, 100))
}

// Overview counts contents, seasons and episodes. TotalViews is left for the
// caller, which owns the view statistics.
func (s *Store) Overview(ctx context.Context) (Overview, error) {
	var o Overview
	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(status = 'published'), 0),
		COALESCE(SUM(status = 'pending'), 0),
		COALESCE(SUM(content_type = 'serie'), 0),
		COALESCE(SUM(content_type = 'miniserie'), 0),
		COALESCE(SUM(content_type = 'pelicula'), 0),
		COALESCE(SUM(content_type = 'anime'), 0)
		FROM contents`).Scan(&o.TotalContents, &o.PublishedContents, &o.PendingContents,
		&o.SeriesCount, &o.MiniseriesCount, &o.MoviesCount, &o.AnimeCount)
	if err != nil {
		return Overview{}, fmt.Errorf("count contents: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seasons`).Scan(&o.TotalSeasons); err != nil {
		return Overview{}, fmt.Errorf("count seasons: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episodes`).Scan(&o.TotalEpisodes); err != nil {
		return Overview{}, fmt.Errorf("count episodes: %w", err)
	}
	return o, nil
}

// AllPublishedContents returns every published content, newest first. It
// feeds the sitemap, so it is not paginated.
func (s *Store) AllPublishedContents(ctx context.Context) ([]Content, error) {
	return s.queryContents(ctx, `SELECT `+contentColumns+` FROM contents WHERE status = 'published' ORDER BY created_at DESC, id`)
}

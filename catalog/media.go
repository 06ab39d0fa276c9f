package catalog

import (
	"context"
	"database/sql"
	"errors"
)

// SaveMedia records an uploaded file.
func (s *Store) SaveMedia(ctx context.Context, m Media) error {
	if m.UploadedAt.IsZero() {
		m.UploadedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO media (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.Filename, m.OriginalName, m.Width, m.Height, m.Size, m.UploadedAt.Format(timeLayout))
	return err
}

// ListMedia returns uploads newest first.
func (s *Store) ListMedia(ctx context.Context) ([]Media, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at FROM media ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Media
	for rows.Next() {
		var m Media
		var ts string
		if err := rows.Scan(&m.Filename, &m.OriginalName, &m.Width, &m.Height, &m.Size, &ts); err != nil {
			return nil, err
		}
		m.UploadedAt = parseTime(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MediaExists reports whether filename is already recorded.
func (s *Store) MediaExists(ctx context.Context, filename string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM media WHERE filename = ?`, filename).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// DeleteMedia removes the record of an upload.
func (s *Store) DeleteMedia(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE filename = ?`, filename)
	return err
}

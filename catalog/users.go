package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// CreateAdminUser stores a new admin with a bcrypt hash of password.
func (s *Store) CreateAdminUser(ctx context.Context, username, password string) (AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return AdminUser{}, invalid("username", "el usuario es obligatorio")
	}
	if len(password) < minPasswordLen {
		return AdminUser{}, invalid("password", fmt.Sprintf("la contraseña debe tener al menos %d caracteres", minPasswordLen))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AdminUser{}, fmt.Errorf("hash password: %w", err)
	}
	u := AdminUser{ID: newID(), Username: username, PasswordHash: string(hash), CreatedAt: s.now()}
	_, err = s.db.ExecContext(ctx, `INSERT INTO admin_users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(timeLayout))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return AdminUser{}, invalid("username", "ese usuario ya existe")
		}
		return AdminUser{}, fmt.Errorf("insert admin user: %w", err)
	}
	return u, nil
}

// SetAdminPassword replaces the password of an existing admin.
func (s *Store) SetAdminPassword(ctx context.Context, username, password string) error {
	if len(password) < minPasswordLen {
		return invalid("password", fmt.Sprintf("la contraseña debe tener al menos %d caracteres", minPasswordLen))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE admin_users SET password_hash = ? WHERE username = ?`, string(hash), username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAdminUsers returns the number of admin accounts.
func (s *Store) CountAdminUsers(ctx context.Context) (int, error) {
	return s.countRows(ctx, "admin_users")
}

// EnsureAdmin creates the first admin when no admin exists yet. It returns
// true when a user was created.
func (s *Store) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.CountAdminUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 || username == "" || password == "" {
		return false, nil
	}
	if _, err := s.CreateAdminUser(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (AdminUser, error) {
	var u AdminUser
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM admin_users WHERE username = ?`,
		strings.TrimSpace(username)).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return AdminUser{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return AdminUser{}, ErrInvalidCredentials
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// RecordLoginAttempt appends a row to login_attempts.
func (s *Store) RecordLoginAttempt(ctx context.Context, username, ip string, success bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO login_attempts (username, ip, success, timestamp) VALUES (?, ?, ?, ?)`,
		username, ip, boolInt(success), s.stamp())
	return err
}

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Contact form limits.
const (
	maxNameLen    = 120
	maxEmailLen   = 254
	maxSubjectLen = 200
	maxMessageLen = 5000
)

func validateContact(m ContactMessage) error {
	if m.Name == "" {
		return invalid("name", "el nombre es obligatorio")
	}
	if utf8.RuneCountInString(m.Name) > maxNameLen {
		return invalid("name", "nombre demasiado largo")
	}
	if len(m.Email) > maxEmailLen {
		return invalid("email", "email demasiado largo")
	}
	addr, err := mail.ParseAddress(m.Email)
	if err != nil || addr.Address != m.Email {
		return invalid("email", "email no válido")
	}
	if m.Subject == "" {
		return invalid("subject", "el asunto es obligatorio")
	}
	if utf8.RuneCountInString(m.Subject) > maxSubjectLen {
		return invalid("subject", "asunto demasiado largo")
	}
	if m.Message == "" {
		return invalid("message", "el mensaje es obligatorio")
	}
	if utf8.RuneCountInString(m.Message) > maxMessageLen {
		return invalid("message", "mensaje demasiado largo")
	}
	return nil
}

// SubmitContact validates and stores a contact message as unread.
func (s *Store) SubmitContact(ctx context.Context, m ContactMessage) (ContactMessage, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
	if err := validateContact(m); err != nil {
		return ContactMessage{}, err
	}
	m.ID = newID()
	m.Read = false
	m.Timestamp = s.now()
	_, err := s.db.ExecContext(ctx, `INSERT INTO contact_messages (id, name, email, subject, message, read, timestamp) VALUES (?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.Timestamp.Format(timeLayout))
	if err != nil {
		return ContactMessage{}, fmt.Errorf("insert contact message: %w", err)
	}
	return m, nil
}

// ListContactMessages returns messages newest first.
func (s *Store) ListContactMessages(ctx context.Context, limit, skip int) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, subject, message, read, timestamp FROM contact_messages
		ORDER BY timestamp DESC, id LIMIT ? OFFSET ?`, clampLimit(limit, 50, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []ContactMessage{}
	for rows.Next() {
		var m ContactMessage
		var read int
		var ts string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &read, &ts); err != nil {
			return nil, err
		}
		m.Read = read == 1
		m.Timestamp = parseTime(ts)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkMessageRead flags a message as read.
func (s *Store) MarkMessageRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE contact_messages SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnreadMessages returns the number of unread contact messages.
func (s *Store) CountUnreadMessages(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages WHERE read = 0`).Scan(&n)
	return n, err
}

// ListAuditLogs returns audit entries newest first.
func (s *Store) ListAuditLogs(ctx context.Context, limit, skip int) ([]AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, action, entity_type, entity_id, changes, timestamp FROM audit_logs
		ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?`, clampLimit(limit, 50, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []AuditLog{}
	for rows.Next() {
		var l AuditLog
		var changes, ts string
		if err := rows.Scan(&l.ID, &l.Action, &l.EntityType, &l.EntityID, &changes, &ts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(changes), &l.Changes); err != nil {
			l.Changes = map[string]any{}
		}
		l.Timestamp = parseTime(ts)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// countRows returns the number of rows in table. table is never user input.
func (s *Store) countRows(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

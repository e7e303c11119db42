package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reroute/internal/domain"
)

// EnsureUser upserts a user keyed by subject and returns the stored row.
// Email and name are refreshed from the claims on every call.
func (s *Store) EnsureUser(ctx context.Context, claims domain.IdentityClaims) (*User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (subject, email, name)
		VALUES (?, ?, ?)
		ON CONFLICT(subject) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			updated_at = CURRENT_TIMESTAMP
	`, claims.Sub, nullString(claims.Email), nullString(claims.Name))
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	return s.UserBySubject(ctx, claims.Sub)
}

// UserBySubject looks up a user by auth subject.
func (s *Store) UserBySubject(ctx context.Context, subject string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject, email, name FROM users WHERE subject = ?
	`, subject)
	return scanUser(row)
}

// UserByID looks up a user by id.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject, email, name FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var email, name sql.NullString
	err := row.Scan(&u.ID, &u.Subject, &email, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u.Email = stringOf(email)
	u.Name = stringOf(name)
	return &u, nil
}

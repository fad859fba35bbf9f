package store

import (
	"context"
	"strings"
)

// EmailExists answers with an indexed lookup on lower(email).
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}
	var ok bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&ok)
	return ok, err
}

func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := s.Pool.QueryRow(ctx,
		`SELECT id::text, email, created_at FROM users WHERE id = $1`, userID).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

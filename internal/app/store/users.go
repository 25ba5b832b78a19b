package store

import (
	"context"
	"fmt"

	"minimessenger/internal/app/user"
)

// CreateUser inserts a new account and returns its identity. The unique index
// on lower(username) enforces case-insensitive uniqueness; callers translate
// the violation into a conflict error.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, avatar string) (user.User, error) {
	var u user.User
	var av *string

	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, avatar)
		 VALUES ($1, $2, NULLIF($3, ''))
		 RETURNING id, username, avatar`,
		username, passwordHash, avatar,
	).Scan(&u.ID, &u.Username, &av)
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	if av != nil {
		u.Avatar = *av
	}
	return u, nil
}

// UserByID fetches the identity view of an account.
func (s *Store) UserByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	var av *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, username, avatar FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &av)
	if err != nil {
		return user.User{}, fmt.Errorf("user by id: %w", err)
	}

	if av != nil {
		u.Avatar = *av
	}
	return u, nil
}

// CredentialsByUsername resolves a case-insensitive username to the account id
// and password hash for login verification.
func (s *Store) CredentialsByUsername(ctx context.Context, username string) (int64, string, error) {
	var id int64
	var hash string

	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM users WHERE lower(username) = lower($1)`,
		username,
	).Scan(&id, &hash)
	if err != nil {
		return 0, "", fmt.Errorf("credentials by username: %w", err)
	}

	return id, hash, nil
}

// UserIDByUsername resolves a case-insensitive username to an account id.
func (s *Store) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	var id int64

	err := s.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE lower(username) = lower($1)`,
		username,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("user id by username: %w", err)
	}

	return id, nil
}

// UpdateAvatar replaces the account's avatar URI.
func (s *Store) UpdateAvatar(ctx context.Context, userID int64, avatar string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET avatar = NULLIF($2, '') WHERE id = $1`,
		userID, avatar,
	)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return nil
}

// DeleteUser removes the account. Memberships, friendships, owned rooms and
// messages go with it via the schema's cascade rules.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

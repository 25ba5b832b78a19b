package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Friendship statuses. A DM conversation is only surfaced in listings once the
// friendship between the pair is accepted.
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendRejected = "rejected"
)

func isNoRowsErr(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// CreateFriendRequest records a pending friendship from requester to
// addressee. The ordered-pair uniqueness constraint rejects duplicates.
func (s *Store) CreateFriendRequest(ctx context.Context, requesterID, addresseeID int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO friends (requester_id, addressee_id, status)
		 VALUES ($1, $2, $3)`,
		requesterID, addresseeID, FriendPending,
	)
	if err != nil {
		return fmt.Errorf("create friend request: %w", err)
	}
	return nil
}

// RespondFriendRequest moves a pending request addressed to userID into the
// accepted or rejected state. Requests not addressed to userID are untouched.
func (s *Store) RespondFriendRequest(ctx context.Context, requesterID, userID int64, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE friends SET status = $3
		 WHERE requester_id = $1 AND addressee_id = $2 AND status = $4`,
		requesterID, userID, status, FriendPending,
	)
	if err != nil {
		return fmt.Errorf("respond friend request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AcceptedFriends lists users connected to userID by an accepted friendship,
// in either direction, ordered by username.
func (s *Store) AcceptedFriends(ctx context.Context, userID int64) ([]Friend, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.username, COALESCE(u.avatar, '')
		 FROM users u
		 JOIN friends f
		   ON (f.requester_id = $1 AND f.addressee_id = u.id)
		   OR (f.addressee_id = $1 AND f.requester_id = u.id)
		 WHERE f.status = $2
		 ORDER BY u.username`,
		userID, FriendAccepted,
	)
	if err != nil {
		return nil, fmt.Errorf("accepted friends: %w", err)
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		f := Friend{Status: FriendAccepted}
		if err := rows.Scan(&f.UserID, &f.Username, &f.Avatar); err != nil {
			return nil, fmt.Errorf("accepted friends: scan: %w", err)
		}
		friends = append(friends, f)
	}

	return friends, rows.Err()
}

// PendingFriendRequests lists users whose requests to userID are awaiting a
// response.
func (s *Store) PendingFriendRequests(ctx context.Context, userID int64) ([]Friend, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.username, COALESCE(u.avatar, '')
		 FROM users u
		 JOIN friends f ON f.requester_id = u.id
		 WHERE f.addressee_id = $1 AND f.status = $2
		 ORDER BY u.username`,
		userID, FriendPending,
	)
	if err != nil {
		return nil, fmt.Errorf("pending friend requests: %w", err)
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		f := Friend{Status: FriendPending}
		if err := rows.Scan(&f.UserID, &f.Username, &f.Avatar); err != nil {
			return nil, fmt.Errorf("pending friend requests: scan: %w", err)
		}
		friends = append(friends, f)
	}

	return friends, rows.Err()
}

/*
Package store is the persistence layer for MiniMessenger.

It owns every entity table (users, friendships, servers, channels, DM/group
rooms, memberships, messages, invites) and mediates all mutation. The message
append path and the DM find-or-create path run inside transactions so the
database provides the serialization boundary: ids are assigned monotonically by
the store and concurrent DM creation for the same user pair cannot produce
duplicates.
*/
package store

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store executes all database operations against a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps the given pool in a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// MessageRecord is a raw message row. Exactly one of ChannelID and DMID is set,
// matching the room the message belongs to.
type MessageRecord struct {
	ID          int64
	ChannelID   *int64
	DMID        *int64
	SenderID    int64
	Content     string
	ContentType string
	TS          time.Time
	Deleted     bool
}

// MessageView is a message row joined with its sender's identity, the shape
// handed to history consumers and broadcast events. Tombstoned rows carry no
// content.
type MessageView struct {
	ID          int64
	SenderID    int64
	Username    string
	Avatar      string
	Content     string
	ContentType string
	TS          time.Time
	Deleted     bool
}

// Server is a named container of channels owned by a user.
type Server struct {
	ID      int64
	Name    string
	OwnerID int64
	Avatar  string
}

// Channel is a room scoped to a server; membership is inherited from the server.
type Channel struct {
	ID       int64
	ServerID int64
	Name     string
}

// Conversation is a DM or group room as listed in a user's conversation panel.
type Conversation struct {
	ID      int64
	Name    string
	Avatar  string
	IsGroup bool
	IsOwner bool
}

// Friend is one accepted or pending friendship edge from the acting user's
// point of view.
type Friend struct {
	UserID   int64
	Username string
	Avatar   string
	Status   string
}

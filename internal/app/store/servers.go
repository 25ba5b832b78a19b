package store

import (
	"context"
	"fmt"
	"time"
)

// CreateServer inserts a server, enrolls the owner as its first member and
// creates the default "general" channel, all in one transaction.
func (s *Store) CreateServer(ctx context.Context, name string, ownerID int64) (Server, Channel, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Server{}, Channel{}, fmt.Errorf("create server: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var srv Server
	srv.Name = name
	srv.OwnerID = ownerID

	err = tx.QueryRow(ctx,
		`INSERT INTO servers (name, owner_id) VALUES ($1, $2) RETURNING id`,
		name, ownerID,
	).Scan(&srv.ID)
	if err != nil {
		return Server{}, Channel{}, fmt.Errorf("create server: insert: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO server_members (server_id, user_id) VALUES ($1, $2)`,
		srv.ID, ownerID,
	)
	if err != nil {
		return Server{}, Channel{}, fmt.Errorf("create server: enroll owner: %w", err)
	}

	ch := Channel{ServerID: srv.ID, Name: "general"}
	err = tx.QueryRow(ctx,
		`INSERT INTO channels (server_id, name) VALUES ($1, 'general') RETURNING id`,
		srv.ID,
	).Scan(&ch.ID)
	if err != nil {
		return Server{}, Channel{}, fmt.Errorf("create server: default channel: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Server{}, Channel{}, fmt.Errorf("create server: commit: %w", err)
	}

	return srv, ch, nil
}

// ServersForUser lists the servers the user is a member of, ordered by name.
func (s *Store) ServersForUser(ctx context.Context, userID int64) ([]Server, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.name, s.owner_id, COALESCE(s.avatar, '')
		 FROM servers s
		 JOIN server_members m ON s.id = m.server_id
		 WHERE m.user_id = $1
		 ORDER BY s.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("servers for user: %w", err)
	}
	defer rows.Close()

	var servers []Server
	for rows.Next() {
		var srv Server
		if err := rows.Scan(&srv.ID, &srv.Name, &srv.OwnerID, &srv.Avatar); err != nil {
			return nil, fmt.Errorf("servers for user: scan: %w", err)
		}
		servers = append(servers, srv)
	}

	return servers, rows.Err()
}

// IsServerMember reports whether the user belongs to the server.
func (s *Store) IsServerMember(ctx context.Context, serverID, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM server_members WHERE server_id = $1 AND user_id = $2
		 )`,
		serverID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is server member: %w", err)
	}
	return exists, nil
}

// ServerByID fetches a server row.
func (s *Store) ServerByID(ctx context.Context, serverID int64) (Server, error) {
	var srv Server
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, COALESCE(avatar, '') FROM servers WHERE id = $1`,
		serverID,
	).Scan(&srv.ID, &srv.Name, &srv.OwnerID, &srv.Avatar)
	if err != nil {
		return Server{}, fmt.Errorf("server by id: %w", err)
	}
	return srv, nil
}

// ChannelsForServer lists the server's channels ordered by name.
func (s *Store) ChannelsForServer(ctx context.Context, serverID int64) ([]Channel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, server_id, name FROM channels WHERE server_id = $1 ORDER BY name`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("channels for server: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.ID, &ch.ServerID, &ch.Name); err != nil {
			return nil, fmt.Errorf("channels for server: scan: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

// ServerIDForChannel resolves a channel to its owning server.
func (s *Store) ServerIDForChannel(ctx context.Context, channelID int64) (int64, error) {
	var serverID int64
	err := s.pool.QueryRow(ctx,
		`SELECT server_id FROM channels WHERE id = $1`,
		channelID,
	).Scan(&serverID)
	if err != nil {
		return 0, fmt.Errorf("server id for channel: %w", err)
	}
	return serverID, nil
}

// IsChannelMember reports whether the user may post in the channel, i.e. is a
// member of the server owning it.
func (s *Store) IsChannelMember(ctx context.Context, channelID, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1
		   FROM server_members sm
		   JOIN channels c ON sm.server_id = c.server_id
		   WHERE c.id = $1 AND sm.user_id = $2
		 )`,
		channelID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is channel member: %w", err)
	}
	return exists, nil
}

// CreateInvite stores a join token for the server. A zero ttl means the invite
// never expires.
func (s *Store) CreateInvite(ctx context.Context, serverID, creatorID int64, token string, ttl time.Duration) error {
	var expires *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expires = &t
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO invites (server_id, token, creator_id, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		serverID, token, creatorID, expires,
	)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

// RedeemInvite resolves a live invite token and enrolls the user in its server.
// Enrolling twice is a no-op thanks to the membership uniqueness constraint.
func (s *Store) RedeemInvite(ctx context.Context, token string, userID int64) (int64, error) {
	var serverID int64
	err := s.pool.QueryRow(ctx,
		`SELECT server_id FROM invites
		 WHERE token = $1 AND (expires_at IS NULL OR expires_at > now())`,
		token,
	).Scan(&serverID)
	if err != nil {
		return 0, fmt.Errorf("redeem invite: lookup: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO server_members (server_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (server_id, user_id) DO NOTHING`,
		serverID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("redeem invite: enroll: %w", err)
	}

	return serverID, nil
}

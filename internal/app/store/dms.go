package store

import (
	"context"
	"fmt"
)

// EnsureDM finds or creates the unique non-group DM room between two users.
// The lookup and insert run in one transaction under a pair-scoped advisory
// lock, so concurrent calls for the same unordered pair serialize and agree on
// a single room id.
func (s *Store) EnsureDM(ctx context.Context, userA, userB int64) (int64, error) {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ensure dm: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes racing creators for this pair; released at commit/rollback.
	// The single-bigint lock form keeps the full int64 id range (the two-key
	// form only takes int4); a hash collision merely serializes an unrelated
	// pair alongside this one.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`,
		lo, hi,
	); err != nil {
		return 0, fmt.Errorf("ensure dm: lock: %w", err)
	}

	var dmID int64
	err = tx.QueryRow(ctx,
		`SELECT d.id
		 FROM dms d
		 JOIN dm_members a ON a.dm_id = d.id AND a.user_id = $1
		 JOIN dm_members b ON b.dm_id = d.id AND b.user_id = $2
		 WHERE NOT d.is_group
		 LIMIT 1`,
		lo, hi,
	).Scan(&dmID)
	if err == nil {
		return dmID, tx.Commit(ctx)
	}
	if !isNoRowsErr(err) {
		return 0, fmt.Errorf("ensure dm: lookup: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO dms (is_group) VALUES (FALSE) RETURNING id`,
	).Scan(&dmID)
	if err != nil {
		return 0, fmt.Errorf("ensure dm: insert room: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO dm_members (dm_id, user_id) VALUES ($1, $2), ($1, $3)`,
		dmID, lo, hi,
	); err != nil {
		return 0, fmt.Errorf("ensure dm: insert members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ensure dm: commit: %w", err)
	}

	return dmID, nil
}

// CreateGroup inserts a group room owned by ownerID and enrolls the owner plus
// the given members atomically. Duplicate member ids are tolerated.
func (s *Store) CreateGroup(ctx context.Context, name string, ownerID int64, memberIDs []int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("create group: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var groupID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO dms (name, is_group, owner_id) VALUES ($1, TRUE, $2) RETURNING id`,
		name, ownerID,
	).Scan(&groupID)
	if err != nil {
		return 0, fmt.Errorf("create group: insert room: %w", err)
	}

	members := append([]int64{ownerID}, memberIDs...)
	for _, id := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dm_members (dm_id, user_id)
			 VALUES ($1, $2)
			 ON CONFLICT (dm_id, user_id) DO NOTHING`,
			groupID, id,
		); err != nil {
			return 0, fmt.Errorf("create group: enroll member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("create group: commit: %w", err)
	}

	return groupID, nil
}

// IsDMMember reports whether the user holds a membership row in the DM or
// group room.
func (s *Store) IsDMMember(ctx context.Context, dmID, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM dm_members WHERE dm_id = $1 AND user_id = $2
		 )`,
		dmID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is dm member: %w", err)
	}
	return exists, nil
}

// GroupOwner returns the owner of a group room, or an error when the id is not
// a group.
func (s *Store) GroupOwner(ctx context.Context, groupID int64) (int64, error) {
	var ownerID int64
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id FROM dms WHERE id = $1 AND is_group`,
		groupID,
	).Scan(&ownerID)
	if err != nil {
		return 0, fmt.Errorf("group owner: %w", err)
	}
	return ownerID, nil
}

// RemoveGroupMember drops a member from a group room.
func (s *Store) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM dm_members WHERE dm_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	return nil
}

// GroupsForUser lists the group rooms the user belongs to, ordered by name.
func (s *Store) GroupsForUser(ctx context.Context, userID int64) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, COALESCE(d.name, ''), COALESCE(d.avatar, ''), COALESCE(d.owner_id = $1, FALSE)
		 FROM dms d
		 JOIN dm_members m ON d.id = m.dm_id
		 WHERE m.user_id = $1 AND d.is_group
		 ORDER BY d.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("groups for user: %w", err)
	}
	defer rows.Close()

	var groups []Conversation
	for rows.Next() {
		var c Conversation
		c.IsGroup = true
		if err := rows.Scan(&c.ID, &c.Name, &c.Avatar, &c.IsOwner); err != nil {
			return nil, fmt.Errorf("groups for user: scan: %w", err)
		}
		groups = append(groups, c)
	}

	return groups, rows.Err()
}

package store

import (
	"context"
	"fmt"
)

// AppendChannelMessage durably appends a message to a server channel. The
// database assigns the monotonic id and the UTC timestamp; both are returned
// in the record.
func (s *Store) AppendChannelMessage(ctx context.Context, channelID, senderID int64, content, contentType string) (MessageRecord, error) {
	rec := MessageRecord{
		ChannelID:   &channelID,
		SenderID:    senderID,
		Content:     content,
		ContentType: contentType,
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (channel_id, sender_id, content, content_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, ts`,
		channelID, senderID, content, contentType,
	).Scan(&rec.ID, &rec.TS)
	if err != nil {
		return MessageRecord{}, fmt.Errorf("append channel message: %w", err)
	}

	return rec, nil
}

// AppendDMMessage durably appends a message to a DM or group room.
func (s *Store) AppendDMMessage(ctx context.Context, dmID, senderID int64, content, contentType string) (MessageRecord, error) {
	rec := MessageRecord{
		DMID:        &dmID,
		SenderID:    senderID,
		Content:     content,
		ContentType: contentType,
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (dm_id, sender_id, content, content_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, ts`,
		dmID, senderID, content, contentType,
	).Scan(&rec.ID, &rec.TS)
	if err != nil {
		return MessageRecord{}, fmt.Errorf("append dm message: %w", err)
	}

	return rec, nil
}

// MessageByID fetches a raw message row. Tombstoned rows come back with empty
// content regardless of what was stored.
func (s *Store) MessageByID(ctx context.Context, id int64) (MessageRecord, error) {
	var rec MessageRecord

	err := s.pool.QueryRow(ctx,
		`SELECT id, channel_id, dm_id, sender_id, COALESCE(content, ''), content_type, ts, deleted
		 FROM messages WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.ChannelID, &rec.DMID, &rec.SenderID, &rec.Content, &rec.ContentType, &rec.TS, &rec.Deleted)
	if err != nil {
		return MessageRecord{}, fmt.Errorf("message by id: %w", err)
	}

	return rec, nil
}

// TombstoneMessage irreversibly clears a message's payload: content is dropped
// and the content type resets to the text sentinel, while the row itself
// persists to mark the deletion.
func (s *Store) TombstoneMessage(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE messages SET deleted = TRUE, content = NULL, content_type = 'text'
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("tombstone message: %w", err)
	}
	return nil
}

// historyQuery picks the newest rows of the room, then re-sorts them ascending
// so clients render oldest-first.
const historyQuery = `
	SELECT * FROM (
		SELECT m.id, m.sender_id, u.username, COALESCE(u.avatar, '') AS avatar,
		       COALESCE(m.content, '') AS content, m.content_type, m.ts, m.deleted
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE %s = $1
		ORDER BY m.id DESC
		LIMIT $2
	) recent
	ORDER BY recent.id ASC`

// ChannelHistory returns the most recent messages of a channel in ascending
// timestamp order, tombstones included (without content).
func (s *Store) ChannelHistory(ctx context.Context, channelID int64, limit int) ([]MessageView, error) {
	return s.history(ctx, fmt.Sprintf(historyQuery, "m.channel_id"), channelID, limit)
}

// DMHistory returns the most recent messages of a DM or group room in
// ascending timestamp order, tombstones included (without content).
func (s *Store) DMHistory(ctx context.Context, dmID int64, limit int) ([]MessageView, error) {
	return s.history(ctx, fmt.Sprintf(historyQuery, "m.dm_id"), dmID, limit)
}

func (s *Store) history(ctx context.Context, query string, roomID int64, limit int) ([]MessageView, error) {
	rows, err := s.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var messages []MessageView
	for rows.Next() {
		var m MessageView
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Username, &m.Avatar, &m.Content, &m.ContentType, &m.TS, &m.Deleted); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

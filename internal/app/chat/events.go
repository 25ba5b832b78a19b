package chat

import (
	"encoding/json"
	"time"

	"minimessenger/internal/app/store"
)

// EventType discriminates outbound live events.
type EventType string

const (
	// EventMessage carries a newly persisted message to room subscribers.
	EventMessage EventType = "message"

	// EventMessageDeleted tells subscribers to tombstone a rendered message.
	EventMessageDeleted EventType = "message_deleted"
)

// tsFormat renders timestamps as ISO-8601 UTC with millisecond precision.
const tsFormat = "2006-01-02T15:04:05.000Z07:00"

// Event is the envelope for every frame delivered over the live transport.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MessagePayload is the broadcast shape of a persisted message.
type MessagePayload struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"sender_id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	TS          string `json:"ts"`
	Deleted     bool   `json:"deleted"`
}

// MessageDeletedPayload identifies a tombstoned message.
type MessageDeletedPayload struct {
	MessageID int64 `json:"message_id"`
}

// FormatTS renders a store timestamp for the wire.
func FormatTS(ts time.Time) string {
	return ts.UTC().Format(tsFormat)
}

// EncodeEvent marshals an event envelope around the given payload.
func EncodeEvent(eventType EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

// messageView converts a history row into the broadcast payload shape used by
// both the history endpoint and live events.
func messageView(m store.MessageView) MessagePayload {
	return MessagePayload{
		ID:          m.ID,
		SenderID:    m.SenderID,
		Username:    m.Username,
		Avatar:      m.Avatar,
		Content:     m.Content,
		ContentType: m.ContentType,
		TS:          FormatTS(m.TS),
		Deleted:     m.Deleted,
	}
}

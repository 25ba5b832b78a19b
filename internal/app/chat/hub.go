package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"minimessenger/internal/app/db"
	"minimessenger/internal/app/store"
	"minimessenger/internal/pkg/logx"
)

// HistoryLimit bounds the number of messages a history query returns.
const HistoryLimit = 100

// Hub is the message broadcaster: it accepts inbound message intents,
// authorizes them, persists them, and fans the resulting events out to every
// live subscriber of the room.
//
// A message intent moves through Received -> Authorized -> Persisted ->
// Broadcast; a failed validation or authorization terminates it as Rejected
// with no persistence and no broadcast, and the live-channel sender is never
// told (rejections are logged server-side only). Persistence and broadcast are
// deliberately decoupled: once a row is stored it stays stored even if
// delivery to some subscribers fails.
type Hub struct {
	store    Store
	registry *Registry
	authz    *Authorizer
	logger   zerolog.Logger

	// roomMu serializes persist+fan-out per room so subscribers observe
	// events in insertion order. Delivery itself never blocks on a slow
	// subscriber; only the ordering of enqueue operations is pinned.
	mu      sync.Mutex
	roomMus map[string]*sync.Mutex
}

// NewHub constructs a Hub over the given store.
func NewHub(st Store) *Hub {
	return &Hub{
		store:    st,
		registry: NewRegistry(),
		authz:    NewAuthorizer(st),
		logger:   logx.Logger().With().Str("component", "Hub").Logger(),
		roomMus:  make(map[string]*sync.Mutex),
	}
}

// Registry exposes the live-subscriber registry to sessions.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Authorizer exposes the membership resolver to sessions and handlers.
func (h *Hub) Authorizer() *Authorizer {
	return h.authz
}

func (h *Hub) roomMu(key string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	mu, ok := h.roomMus[key]
	if !ok {
		mu = &sync.Mutex{}
		h.roomMus[key] = mu
	}
	return mu
}

// Submit handles an inbound message intent. Empty or unparseable rooms and
// empty payloads are dropped silently; unauthorized senders are dropped with a
// server-side audit log line. On success the message is durably appended (the
// store assigns the id and timestamp) and broadcast to every current
// subscriber of the room, the sender's own session included.
func (h *Hub) Submit(ctx context.Context, senderID int64, room, contentType, payload string) {
	if room == "" || payload == "" {
		return
	}

	if !IsValidContentType(contentType) {
		h.logger.Warn().
			Int64("sender_id", senderID).
			Str("content_type", contentType).
			Msg("Submit dropped: unsupported content type.")
		return
	}

	ref, err := ParseRoomRef(room)
	if err != nil {
		h.logger.Debug().
			Int64("sender_id", senderID).
			Str("room", room).
			Msg("Submit dropped: malformed room reference.")
		return
	}

	if !h.authz.CanPost(ctx, senderID, ref) {
		h.logger.Warn().
			Int64("sender_id", senderID).
			Str("room", ref.String()).
			Msg("Submit rejected: sender is not a room member.")
		return
	}

	sender, err := h.store.UserByID(ctx, senderID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("sender_id", senderID).
			Msg("Submit dropped: sender lookup failed.")
		return
	}

	mu := h.roomMu(ref.String())
	mu.Lock()
	defer mu.Unlock()

	var rec store.MessageRecord
	switch r := ref.(type) {
	case ChannelRef:
		rec, err = h.store.AppendChannelMessage(ctx, r.ChannelID, senderID, payload, contentType)
	case DMRef:
		rec, err = h.store.AppendDMMessage(ctx, r.DMID, senderID, payload, contentType)
	}
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("sender_id", senderID).
			Str("room", ref.String()).
			Msg("Submit failed: could not persist message.")
		return
	}

	event, err := EncodeEvent(EventMessage, MessagePayload{
		ID:          rec.ID,
		SenderID:    sender.ID,
		Username:    sender.Username,
		Avatar:      sender.Avatar,
		Content:     rec.Content,
		ContentType: rec.ContentType,
		TS:          FormatTS(rec.TS),
		Deleted:     false,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("message_id", rec.ID).
			Msg("Failed to encode message event; message stored but not broadcast.")
		return
	}

	h.fanOut(ref, event)
}

// Delete tombstones a message on behalf of its sender and notifies the owning
// room. Absent or already-deleted messages are a no-op; a non-sender request
// is rejected silently. The content wipe is irreversible: payload cleared,
// content type reset to the text sentinel, row kept as a tombstone.
func (h *Hub) Delete(ctx context.Context, userID, messageID int64) {
	rec, err := h.store.MessageByID(ctx, messageID)
	if err != nil {
		if !db.IsNoRows(err) {
			h.logger.Error().
				Err(err).
				Int64("message_id", messageID).
				Msg("Delete failed: message lookup error.")
		}
		return
	}

	if rec.Deleted {
		return
	}

	if rec.SenderID != userID {
		h.logger.Warn().
			Int64("user_id", userID).
			Int64("message_id", messageID).
			Int64("sender_id", rec.SenderID).
			Msg("Delete rejected: requester is not the sender.")
		return
	}

	ref, err := h.roomOfMessage(ctx, rec)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("message_id", messageID).
			Msg("Delete failed: could not resolve owning room.")
		return
	}

	mu := h.roomMu(ref.String())
	mu.Lock()
	defer mu.Unlock()

	if err := h.store.TombstoneMessage(ctx, messageID); err != nil {
		h.logger.Error().
			Err(err).
			Int64("message_id", messageID).
			Msg("Delete failed: could not tombstone message.")
		return
	}

	event, err := EncodeEvent(EventMessageDeleted, MessageDeletedPayload{MessageID: messageID})
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("message_id", messageID).
			Msg("Failed to encode message_deleted event.")
		return
	}

	h.fanOut(ref, event)
}

// History returns the room's most recent messages in ascending timestamp
// order, authorization-gated exactly like Submit. Unauthorized or malformed
// requests yield an empty sequence, indistinguishable from an empty room.
// Tombstoned rows are included without content.
func (h *Hub) History(ctx context.Context, userID int64, room string) ([]MessagePayload, error) {
	ref, err := ParseRoomRef(room)
	if err != nil {
		return nil, nil
	}

	if !h.authz.CanPost(ctx, userID, ref) {
		h.logger.Warn().
			Int64("user_id", userID).
			Str("room", ref.String()).
			Msg("History rejected: requester is not a room member.")
		return nil, nil
	}

	var rows []store.MessageView
	switch r := ref.(type) {
	case ChannelRef:
		rows, err = h.store.ChannelHistory(ctx, r.ChannelID, HistoryLimit)
	case DMRef:
		rows, err = h.store.DMHistory(ctx, r.DMID, HistoryLimit)
	}
	if err != nil {
		return nil, err
	}

	messages := make([]MessagePayload, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, messageView(row))
	}
	return messages, nil
}

// EnsureDM finds or creates the unique DM room between two users. Idempotent
// and race-safe: the store serializes concurrent calls for the same pair.
func (h *Hub) EnsureDM(ctx context.Context, userA, userB int64) (int64, error) {
	return h.store.EnsureDM(ctx, userA, userB)
}

// roomOfMessage derives the room reference a message belongs to.
func (h *Hub) roomOfMessage(ctx context.Context, rec store.MessageRecord) (RoomRef, error) {
	if rec.ChannelID != nil {
		serverID, err := h.store.ServerIDForChannel(ctx, *rec.ChannelID)
		if err != nil {
			return nil, err
		}
		return ChannelRef{ServerID: serverID, ChannelID: *rec.ChannelID}, nil
	}
	return DMRef{DMID: *rec.DMID}, nil
}

// fanOut delivers one encoded event to every current subscriber of the room.
// Each delivery is an independent, non-blocking enqueue: a saturated or dead
// subscriber loses this event and the rest are unaffected. Late joiners get
// nothing; they fetch history separately.
func (h *Hub) fanOut(ref RoomRef, event []byte) {
	for _, sub := range h.registry.Subscribers(ref) {
		if !sub.Enqueue(event) {
			h.logger.Warn().
				Str("room", ref.String()).
				Msg("Dropped event for slow or closed subscriber.")
		}
	}
}

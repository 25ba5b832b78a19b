package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"minimessenger/internal/app/user"
	"minimessenger/internal/pkg/logx"
)

const (
	// writeWait bounds a single write to the WebSocket connection.
	writeWait = 10 * time.Second

	// pongWait is the maximum silence tolerated before the read side gives up.
	pongWait = 60 * time.Second

	// pingPeriod is the heartbeat interval; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxIntentSize caps the size of a single inbound intent frame.
	maxIntentSize = 8192

	// sendBuffer is the per-session outbound queue depth. When the buffer is
	// full the session is considered a slow consumer and events are dropped
	// for it rather than delaying the broadcast.
	sendBuffer = 256
)

// Session is the per-connection concurrency unit bridging one WebSocket to
// the Hub and Registry. Its identity is bound at handshake time from the
// authenticated transport session and never changes; client-supplied ids are
// informational at best.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	user user.User

	// current is the room the client is presently viewing. Clients switch
	// rooms by leaving the old one before joining the new one; the Registry
	// itself supports more, this just mirrors the reference client pattern.
	current RoomRef

	send   chan []byte
	logger zerolog.Logger
}

// NewSession binds an upgraded connection to an authenticated user.
func NewSession(hub *Hub, conn *websocket.Conn, identity user.User) *Session {
	sessionLogger := logx.Logger().With().
		Str("component", "Session").
		Int64("user_id", identity.ID).
		Logger()

	return &Session{
		hub:    hub,
		conn:   conn,
		user:   identity,
		send:   make(chan []byte, sendBuffer),
		logger: sessionLogger,
	}
}

// Enqueue offers an encoded event to the session's outbound queue without
// blocking. Reports false when the queue is saturated.
func (s *Session) Enqueue(event []byte) bool {
	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

// intentEnvelope is the wire shape of every inbound client frame.
type intentEnvelope struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id,omitempty"`
	Room      string `json:"room,omitempty"`
	Text      string `json:"text,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
}

// ReadPump consumes inbound intents until the connection dies, then cleans up.
// Runs on the handler goroutine; ctx scopes the store operations the intents
// trigger.
func (s *Session) ReadPump(ctx context.Context) {
	defer s.cleanup()

	s.conn.SetReadLimit(maxIntentSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			break
		}

		s.handleIntent(ctx, frame)
	}
}

// cleanup runs on every exit path: the session leaves every room it joined so
// no broadcast can target it again, then the connection is closed. Pending
// deliveries to this session simply drop.
func (s *Session) cleanup() {
	s.hub.Registry().LeaveAll(s)
	s.current = nil

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Connection close after cleanup")
	}

	s.logger.Info().Msg("Session closed and deregistered from all rooms.")
}

// handleIntent dispatches one inbound frame. Malformed frames and unknown
// intent types are logged and ignored; the live channel never answers with
// errors.
func (s *Session) handleIntent(ctx context.Context, frame []byte) {
	var intent intentEnvelope
	if err := json.Unmarshal(frame, &intent); err != nil {
		s.logger.Warn().Err(err).Msg("Client sent invalid JSON intent")
		return
	}

	switch intent.Type {
	case "identify":
		// The claimed id is never authoritative; the handshake already bound
		// the identity. A mismatch is worth flagging, nothing more.
		if intent.UserID != s.user.ID {
			s.logger.Warn().
				Int64("claimed_id", intent.UserID).
				Msg("Identify rejected: claimed id disagrees with authenticated identity.")
			return
		}
		s.logger.Info().Msg("Client identified.")

	case "join":
		s.handleJoin(ctx, intent.Room)

	case "leave":
		s.handleLeave(intent.Room)

	case "send_message":
		s.hub.Submit(ctx, s.user.ID, intent.Room, ContentTypeText, intent.Text)

	case "delete_message":
		if intent.MessageID > 0 {
			s.hub.Delete(ctx, s.user.ID, intent.MessageID)
		}

	default:
		s.logger.Warn().Str("intent_type", intent.Type).Msg("Client sent unsupported intent type")
	}
}

// handleJoin authorizes the subscription, leaves the previously joined room,
// and registers with the new one. Unauthorized or malformed joins are dropped
// silently so room existence is not disclosed.
func (s *Session) handleJoin(ctx context.Context, room string) {
	ref, err := ParseRoomRef(room)
	if err != nil {
		s.logger.Debug().Str("room", room).Msg("Join dropped: malformed room reference.")
		return
	}

	if !s.hub.Authorizer().CanJoin(ctx, s.user.ID, ref) {
		s.logger.Warn().Str("room", ref.String()).Msg("Join rejected: not a room member.")
		return
	}

	if s.current != nil {
		s.hub.Registry().Leave(s.current, s)
	}

	s.hub.Registry().Join(ref, s)
	s.current = ref

	s.logger.Info().Str("room", ref.String()).Msg("Joined room.")
}

// handleLeave deregisters from the given room.
func (s *Session) handleLeave(room string) {
	ref, err := ParseRoomRef(room)
	if err != nil {
		return
	}

	s.hub.Registry().Leave(ref, s)
	if s.current != nil && s.current.String() == ref.String() {
		s.current = nil
	}

	s.logger.Info().Str("room", ref.String()).Msg("Left room.")
}

// WritePump drains the outbound queue to the connection and keeps the
// heartbeat alive. Runs on its own goroutine per session.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Connection close in WritePump")
		}
	}()

	for {
		select {
		case event, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				s.logger.Info().Err(err).Msg("Write failed; closing session")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"minimessenger/internal/app/user"
)

// newConnPair upgrades a loopback connection and hands back both ends, so a
// Session can run against a real websocket transport.
func newConnPair(t *testing.T) (serverConn, clientConn *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	accepted := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	serverConn = <-accepted
	require.NotNil(t, serverConn)

	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})
	return serverConn, clientConn
}

func TestSessionJoinSwitchesRooms(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addDM(1, 1)
	st.addDM(2, 1)

	hub := NewHub(st)
	serverConn, _ := newConnPair(t)
	s := NewSession(hub, serverConn, user.User{ID: 1, Username: "alice"})
	ctx := context.Background()

	s.handleJoin(ctx, "dm:1")
	require.Equal(t, 1, hub.Registry().RoomSize(DMRef{DMID: 1}))
	require.Equal(t, DMRef{DMID: 1}, s.current)

	// Switching rooms leaves the previous one before registering.
	s.handleJoin(ctx, "dm:2")
	require.Equal(t, 0, hub.Registry().RoomSize(DMRef{DMID: 1}))
	require.Equal(t, 1, hub.Registry().RoomSize(DMRef{DMID: 2}))
	require.Equal(t, DMRef{DMID: 2}, s.current)
}

func TestSessionUnauthorizedJoinKeepsCurrent(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addDM(1, 1)

	hub := NewHub(st)
	serverConn, _ := newConnPair(t)
	s := NewSession(hub, serverConn, user.User{ID: 1, Username: "alice"})
	ctx := context.Background()

	s.handleJoin(ctx, "dm:1")

	// A room the user is not a member of, then a malformed reference: both are
	// dropped without touching the current subscription.
	s.handleJoin(ctx, "dm:9")
	s.handleJoin(ctx, "not-a-room")

	require.Equal(t, DMRef{DMID: 1}, s.current)
	require.Equal(t, 1, hub.Registry().RoomSize(DMRef{DMID: 1}))
	require.Equal(t, 0, hub.Registry().RoomSize(DMRef{DMID: 9}))
}

func TestSessionLeaveClearsCurrent(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addDM(1, 1)

	hub := NewHub(st)
	serverConn, _ := newConnPair(t)
	s := NewSession(hub, serverConn, user.User{ID: 1, Username: "alice"})
	ctx := context.Background()

	s.handleJoin(ctx, "dm:1")
	s.handleLeave("dm:1")

	require.Nil(t, s.current)
	require.Equal(t, 0, hub.Registry().RoomSize(DMRef{DMID: 1}))
}

func TestSessionIntentsUseBoundIdentity(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	st.addDM(1, 1, 2)

	hub := NewHub(st)
	serverConn, _ := newConnPair(t)
	s := NewSession(hub, serverConn, user.User{ID: 1, Username: "alice"})
	ctx := context.Background()

	watcher := &memSub{}
	hub.Registry().Join(DMRef{DMID: 1}, watcher)

	// A claimed id disagreeing with the handshake identity is rejected and
	// never adopted.
	s.handleIntent(ctx, []byte(`{"type":"identify","user_id":2}`))
	require.Equal(t, int64(1), s.user.ID)

	s.handleIntent(ctx, []byte(`{"type":"send_message","room":"dm:1","text":"hi"}`))

	events := watcher.received(t)
	require.Len(t, events, 1)
	msg := decodeMessage(t, events[0])
	require.Equal(t, int64(1), msg.SenderID)
	require.Equal(t, "alice", msg.Username)
	require.Equal(t, "hi", msg.Content)
}

func TestSessionIgnoresBadFrames(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addDM(1, 1)

	hub := NewHub(st)
	serverConn, _ := newConnPair(t)
	s := NewSession(hub, serverConn, user.User{ID: 1, Username: "alice"})
	ctx := context.Background()

	s.handleIntent(ctx, []byte(`{nope`))
	s.handleIntent(ctx, []byte(`{"type":"typing","room":"dm:1"}`))
	s.handleIntent(ctx, []byte(`{"type":"delete_message","message_id":0}`))

	require.Empty(t, st.order)
	require.Nil(t, s.current)
}

func TestSessionDeleteIntent(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addDM(1, 1)

	hub := NewHub(st)
	serverConn, _ := newConnPair(t)
	s := NewSession(hub, serverConn, user.User{ID: 1, Username: "alice"})
	ctx := context.Background()

	s.handleIntent(ctx, []byte(`{"type":"send_message","room":"dm:1","text":"doomed"}`))
	require.Len(t, st.order, 1)

	s.handleIntent(ctx, []byte(`{"type":"delete_message","message_id":1}`))

	rec, err := st.MessageByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, rec.Deleted)
	require.Empty(t, rec.Content)
}

func TestSessionDisconnectPurgesSubscriptions(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addDM(1, 1)

	hub := NewHub(st)
	serverConn, clientConn := newConnPair(t)
	s := NewSession(hub, serverConn, user.User{ID: 1, Username: "alice"})

	done := make(chan struct{})
	go func() {
		s.ReadPump(context.Background())
		close(done)
	}()

	require.NoError(t, clientConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","room":"dm:1"}`)))
	require.Eventually(t, func() bool {
		return hub.Registry().RoomSize(DMRef{DMID: 1}) == 1
	}, time.Second, 5*time.Millisecond)

	clientConn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("read pump did not exit after disconnect")
	}

	require.Equal(t, 0, hub.Registry().RoomSize(DMRef{DMID: 1}))
	require.Nil(t, s.current)
}

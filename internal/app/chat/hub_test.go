package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"minimessenger/internal/app/store"
	"minimessenger/internal/app/user"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// memStore is an in-memory Store double. Mutations take one lock so concurrent
// use in tests mirrors the transactional serialization the real store gives.
type memStore struct {
	mu sync.Mutex

	users          map[int64]user.User
	channelMembers map[[2]int64]bool
	dmMembers      map[[2]int64]bool
	channelServer  map[int64]int64

	nextMessageID int64
	messages      map[int64]store.MessageRecord
	order         []int64

	nextDMID int64
	dms      map[[2]int64]int64

	membershipErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:          make(map[int64]user.User),
		channelMembers: make(map[[2]int64]bool),
		dmMembers:      make(map[[2]int64]bool),
		channelServer:  make(map[int64]int64),
		messages:       make(map[int64]store.MessageRecord),
		dms:            make(map[[2]int64]int64),
	}
}

func (m *memStore) addUser(id int64, username string) {
	m.users[id] = user.User{ID: id, Username: username}
}

func (m *memStore) addChannel(serverID, channelID int64, members ...int64) {
	m.channelServer[channelID] = serverID
	for _, uid := range members {
		m.channelMembers[[2]int64{channelID, uid}] = true
	}
}

func (m *memStore) addDM(dmID int64, members ...int64) {
	for _, uid := range members {
		m.dmMembers[[2]int64{dmID, uid}] = true
	}
	if m.nextDMID < dmID {
		m.nextDMID = dmID
	}
}

func (m *memStore) UserByID(_ context.Context, id int64) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *memStore) IsChannelMember(_ context.Context, channelID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.membershipErr != nil {
		return false, m.membershipErr
	}
	return m.channelMembers[[2]int64{channelID, userID}], nil
}

func (m *memStore) IsDMMember(_ context.Context, dmID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.membershipErr != nil {
		return false, m.membershipErr
	}
	return m.dmMembers[[2]int64{dmID, userID}], nil
}

func (m *memStore) ServerIDForChannel(_ context.Context, channelID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	serverID, ok := m.channelServer[channelID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return serverID, nil
}

func (m *memStore) append(channelID, dmID *int64, senderID int64, content, contentType string) store.MessageRecord {
	m.nextMessageID++
	rec := store.MessageRecord{
		ID:          m.nextMessageID,
		ChannelID:   channelID,
		DMID:        dmID,
		SenderID:    senderID,
		Content:     content,
		ContentType: contentType,
		TS:          time.Now(),
	}
	m.messages[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return rec
}

func (m *memStore) AppendChannelMessage(_ context.Context, channelID, senderID int64, content, contentType string) (store.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := channelID
	return m.append(&id, nil, senderID, content, contentType), nil
}

func (m *memStore) AppendDMMessage(_ context.Context, dmID, senderID int64, content, contentType string) (store.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := dmID
	return m.append(nil, &id, senderID, content, contentType), nil
}

func (m *memStore) MessageByID(_ context.Context, id int64) (store.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.messages[id]
	if !ok {
		return store.MessageRecord{}, pgx.ErrNoRows
	}
	return rec, nil
}

func (m *memStore) TombstoneMessage(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.messages[id]
	if !ok {
		return pgx.ErrNoRows
	}

	rec.Deleted = true
	rec.Content = ""
	rec.ContentType = ContentTypeText
	m.messages[id] = rec
	return nil
}

func (m *memStore) history(match func(store.MessageRecord) bool, limit int) []store.MessageView {
	var views []store.MessageView
	for _, id := range m.order {
		rec := m.messages[id]
		if !match(rec) {
			continue
		}

		views = append(views, store.MessageView{
			ID:          rec.ID,
			SenderID:    rec.SenderID,
			Username:    m.users[rec.SenderID].Username,
			Content:     rec.Content,
			ContentType: rec.ContentType,
			TS:          rec.TS,
			Deleted:     rec.Deleted,
		})
	}

	// Newest rows win the limit; the result stays oldest-first.
	if len(views) > limit {
		views = views[len(views)-limit:]
	}
	return views
}

func (m *memStore) ChannelHistory(_ context.Context, channelID int64, limit int) ([]store.MessageView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.history(func(rec store.MessageRecord) bool {
		return rec.ChannelID != nil && *rec.ChannelID == channelID
	}, limit), nil
}

func (m *memStore) DMHistory(_ context.Context, dmID int64, limit int) ([]store.MessageView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.history(func(rec store.MessageRecord) bool {
		return rec.DMID != nil && *rec.DMID == dmID
	}, limit), nil
}

func (m *memStore) EnsureDM(_ context.Context, userA, userB int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}

	pair := [2]int64{lo, hi}
	if dmID, ok := m.dms[pair]; ok {
		return dmID, nil
	}

	m.nextDMID++
	dmID := m.nextDMID
	m.dms[pair] = dmID
	m.dmMembers[[2]int64{dmID, lo}] = true
	m.dmMembers[[2]int64{dmID, hi}] = true
	return dmID, nil
}

// memSub is a recording Subscriber double.
type memSub struct {
	mu        sync.Mutex
	events    [][]byte
	saturated bool
}

func (s *memSub) Enqueue(event []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saturated {
		return false
	}
	s.events = append(s.events, append([]byte(nil), event...))
	return true
}

func (s *memSub) received(t *testing.T) []Event {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, 0, len(s.events))
	for _, raw := range s.events {
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		out = append(out, ev)
	}
	return out
}

func decodeMessage(t *testing.T, ev Event) MessagePayload {
	t.Helper()
	require.Equal(t, EventMessage, ev.Type)

	var p MessagePayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	return p
}

func TestSubmitPersistsAndBroadcasts(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	st.addChannel(10, 100, 1, 2)

	hub := NewHub(st)
	ref := ChannelRef{ServerID: 10, ChannelID: 100}

	alice := &memSub{}
	bob := &memSub{}
	hub.Registry().Join(ref, alice)
	hub.Registry().Join(ref, bob)

	hub.Submit(context.Background(), 1, "server:10:channel:100", ContentTypeText, "hello")

	require.Len(t, st.order, 1)

	for _, sub := range []*memSub{alice, bob} {
		events := sub.received(t)
		require.Len(t, events, 1)

		msg := decodeMessage(t, events[0])
		require.Equal(t, int64(1), msg.SenderID)
		require.Equal(t, "alice", msg.Username)
		require.Equal(t, "hello", msg.Content)
		require.Equal(t, ContentTypeText, msg.ContentType)
		require.False(t, msg.Deleted)
		require.NotEmpty(t, msg.TS)
	}
}

func TestSubmitRejectsNonMember(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(3, "mallory")
	st.addChannel(10, 100, 1)

	hub := NewHub(st)
	ref := ChannelRef{ServerID: 10, ChannelID: 100}

	alice := &memSub{}
	hub.Registry().Join(ref, alice)

	hub.Submit(context.Background(), 3, "server:10:channel:100", ContentTypeText, "let me in")

	require.Empty(t, st.order, "unauthorized message must not be persisted")
	require.Empty(t, alice.received(t), "unauthorized message must not be broadcast")
}

func TestSubmitDropsInvalidIntents(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addChannel(10, 100, 1)

	hub := NewHub(st)
	ctx := context.Background()

	hub.Submit(ctx, 1, "", ContentTypeText, "no room")
	hub.Submit(ctx, 1, "server:10:channel:100", ContentTypeText, "")
	hub.Submit(ctx, 1, "not:a:room", ContentTypeText, "bad room")
	hub.Submit(ctx, 1, "server:10:channel:100", "sticker", "bad type")

	require.Empty(t, st.order)
}

func TestSubmitDeniesOnMembershipFault(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addChannel(10, 100, 1)
	st.membershipErr = fmt.Errorf("connection reset")

	hub := NewHub(st)
	hub.Submit(context.Background(), 1, "server:10:channel:100", ContentTypeText, "hello")

	require.Empty(t, st.order, "an unanswerable membership check is a denial")
}

func TestBroadcastOrderMatchesInsertionOrder(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	dmID, err := st.EnsureDM(context.Background(), 1, 2)
	require.NoError(t, err)

	hub := NewHub(st)
	ref := DMRef{DMID: dmID}

	alice := &memSub{}
	bob := &memSub{}
	hub.Registry().Join(ref, alice)
	hub.Registry().Join(ref, bob)

	const senders = 4
	const perSender = 25

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			uid := int64(1 + sender%2)
			for i := 0; i < perSender; i++ {
				hub.Submit(context.Background(), uid, ref.String(), ContentTypeText, fmt.Sprintf("m-%d-%d", sender, i))
			}
		}(s)
	}
	wg.Wait()

	for _, sub := range []*memSub{alice, bob} {
		events := sub.received(t)
		require.Len(t, events, senders*perSender)

		var lastID int64
		for _, ev := range events {
			msg := decodeMessage(t, ev)
			require.Greater(t, msg.ID, lastID, "events must arrive in insertion order")
			lastID = msg.ID
		}
	}
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addChannel(10, 100, 1)

	hub := NewHub(st)
	ref := ChannelRef{ServerID: 10, ChannelID: 100}

	healthy := &memSub{}
	stuck := &memSub{saturated: true}
	hub.Registry().Join(ref, healthy)
	hub.Registry().Join(ref, stuck)

	hub.Submit(context.Background(), 1, ref.String(), ContentTypeText, "hello")

	require.Len(t, healthy.received(t), 1)
	require.Empty(t, stuck.received(t))
	require.Len(t, st.order, 1, "delivery failure never unwinds persistence")
}

func TestDeleteTombstonesAndNotifies(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	st.addChannel(10, 100, 1, 2)

	hub := NewHub(st)
	ref := ChannelRef{ServerID: 10, ChannelID: 100}
	ctx := context.Background()

	hub.Submit(ctx, 1, ref.String(), ContentTypeText, "delete me")
	require.Len(t, st.order, 1)
	messageID := st.order[0]

	bob := &memSub{}
	hub.Registry().Join(ref, bob)

	hub.Delete(ctx, 1, messageID)

	rec, err := st.MessageByID(ctx, messageID)
	require.NoError(t, err)
	require.True(t, rec.Deleted)
	require.Empty(t, rec.Content)
	require.Equal(t, ContentTypeText, rec.ContentType)

	events := bob.received(t)
	require.Len(t, events, 1)
	require.Equal(t, EventMessageDeleted, events[0].Type)

	var payload MessageDeletedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	require.Equal(t, messageID, payload.MessageID)

	// Repeating the delete is a no-op: no second notification.
	hub.Delete(ctx, 1, messageID)
	require.Len(t, bob.received(t), 1)
}

func TestDeleteRejectsNonSender(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	st.addChannel(10, 100, 1, 2)

	hub := NewHub(st)
	ref := ChannelRef{ServerID: 10, ChannelID: 100}
	ctx := context.Background()

	hub.Submit(ctx, 1, ref.String(), ContentTypeText, "mine")
	messageID := st.order[0]

	bob := &memSub{}
	hub.Registry().Join(ref, bob)

	hub.Delete(ctx, 2, messageID)

	rec, err := st.MessageByID(ctx, messageID)
	require.NoError(t, err)
	require.False(t, rec.Deleted)
	require.Equal(t, "mine", rec.Content)
	require.Empty(t, bob.received(t))
}

func TestDeleteUnknownMessageIsNoop(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")

	hub := NewHub(st)
	hub.Delete(context.Background(), 1, 12345)
}

func TestHistoryIsAuthorizationGated(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	st.addUser(3, "mallory")
	st.addChannel(10, 100, 1, 2)

	hub := NewHub(st)
	ref := ChannelRef{ServerID: 10, ChannelID: 100}
	ctx := context.Background()

	hub.Submit(ctx, 1, ref.String(), ContentTypeText, "first")
	hub.Submit(ctx, 2, ref.String(), ContentTypeText, "second")
	hub.Delete(ctx, 1, st.order[0])

	messages, err := hub.History(ctx, 1, ref.String())
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.True(t, messages[0].Deleted)
	require.Empty(t, messages[0].Content)
	require.False(t, messages[1].Deleted)
	require.Equal(t, "second", messages[1].Content)

	// A non-member sees an empty room, not an error.
	messages, err = hub.History(ctx, 3, ref.String())
	require.NoError(t, err)
	require.Empty(t, messages)

	// So does a malformed reference.
	messages, err = hub.History(ctx, 1, "garbage")
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestHistoryKeepsNewestUpToLimit(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addChannel(10, 100, 1)

	hub := NewHub(st)
	ref := ChannelRef{ServerID: 10, ChannelID: 100}
	ctx := context.Background()

	total := HistoryLimit + 5
	for i := 0; i < total; i++ {
		hub.Submit(ctx, 1, ref.String(), ContentTypeText, fmt.Sprintf("m-%d", i))
	}

	messages, err := hub.History(ctx, 1, ref.String())
	require.NoError(t, err)
	require.Len(t, messages, HistoryLimit)
	require.Equal(t, fmt.Sprintf("m-%d", total-HistoryLimit), messages[0].Content)
	require.Equal(t, fmt.Sprintf("m-%d", total-1), messages[len(messages)-1].Content)
}

func TestEnsureDMIsIdempotent(t *testing.T) {
	// Ids beyond the int32 range must work; pair locking may not assume
	// 32-bit user ids.
	userA := int64(1)
	userB := int64(1) << 40

	st := newMemStore()
	st.addUser(userA, "alice")
	st.addUser(userB, "bob")

	hub := NewHub(st)
	ctx := context.Background()

	first, err := hub.EnsureDM(ctx, userA, userB)
	require.NoError(t, err)

	second, err := hub.EnsureDM(ctx, userB, userA)
	require.NoError(t, err)
	require.Equal(t, first, second, "pair order must not matter")

	const racers = 16
	results := make(chan int64, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dmID, err := hub.EnsureDM(ctx, userA, userB)
			require.NoError(t, err)
			results <- dmID
		}()
	}
	wg.Wait()
	close(results)

	for dmID := range results {
		require.Equal(t, first, dmID)
	}
}

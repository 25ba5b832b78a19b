package chat

import (
	"sync"
)

// Subscriber is a live connection able to receive encoded events. Enqueue must
// not block: implementations buffer and report false when the buffer is
// saturated or the connection is gone, and the caller drops the event for that
// subscriber only.
type Subscriber interface {
	Enqueue(event []byte) bool
}

// Registry tracks, per room, the set of live sessions currently subscribed.
// It is process-local state, rebuilt from scratch on restart; room existence
// and membership live in the store. Reads (fan-out) and writes (join, leave,
// disconnect cleanup) interleave continuously, so every access is guarded.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[Subscriber]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[Subscriber]struct{}),
	}
}

// Join subscribes sub to the room. Adding a subscriber twice is a no-op.
func (r *Registry) Join(ref RoomRef, sub Subscriber) {
	key := ref.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.rooms[key]
	if !ok {
		subs = make(map[Subscriber]struct{})
		r.rooms[key] = subs
	}
	subs[sub] = struct{}{}
}

// Leave unsubscribes sub from the room. Removing an absent subscriber is a
// no-op. Empty rooms are dropped from the map.
func (r *Registry) Leave(ref RoomRef, sub Subscriber) {
	key := ref.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.rooms[key]
	if !ok {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(r.rooms, key)
	}
}

// LeaveAll removes sub from every room it is subscribed to. Called on every
// disconnect path so no dangling subscriptions survive a session.
func (r *Registry) LeaveAll(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, subs := range r.rooms {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(r.rooms, key)
		}
	}
}

// Subscribers returns a snapshot of the room's current subscriber set. The
// snapshot lets fan-out iterate without holding the registry lock while
// enqueueing.
func (r *Registry) Subscribers(ref RoomRef) []Subscriber {
	key := ref.String()

	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.rooms[key]
	if len(subs) == 0 {
		return nil
	}

	snapshot := make([]Subscriber, 0, len(subs))
	for sub := range subs {
		snapshot = append(snapshot, sub)
	}
	return snapshot
}

// RoomSize reports how many subscribers the room currently has.
func (r *Registry) RoomSize(ref RoomRef) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[ref.String()])
}

package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryJoinLeave(t *testing.T) {
	reg := NewRegistry()
	room := DMRef{DMID: 1}
	other := DMRef{DMID: 2}

	a := &memSub{}
	b := &memSub{}

	reg.Join(room, a)
	reg.Join(room, a) // duplicate join is a no-op
	reg.Join(room, b)
	require.Equal(t, 2, reg.RoomSize(room))

	reg.Leave(room, a)
	require.Equal(t, 1, reg.RoomSize(room))

	reg.Leave(room, a) // absent subscriber is a no-op
	reg.Leave(other, b) // unknown room is a no-op
	require.Equal(t, 1, reg.RoomSize(room))

	reg.Leave(room, b)
	require.Equal(t, 0, reg.RoomSize(room))
	require.Nil(t, reg.Subscribers(room))
}

func TestRegistryLeaveAll(t *testing.T) {
	reg := NewRegistry()
	roomA := DMRef{DMID: 1}
	roomB := ChannelRef{ServerID: 1, ChannelID: 1}

	gone := &memSub{}
	stays := &memSub{}

	reg.Join(roomA, gone)
	reg.Join(roomB, gone)
	reg.Join(roomB, stays)

	reg.LeaveAll(gone)

	require.Equal(t, 0, reg.RoomSize(roomA))
	require.Equal(t, 1, reg.RoomSize(roomB))
	require.Equal(t, []Subscriber{stays}, reg.Subscribers(roomB))
}

func TestRegistrySubscribersSnapshot(t *testing.T) {
	reg := NewRegistry()
	room := DMRef{DMID: 1}

	a := &memSub{}
	reg.Join(room, a)

	snapshot := reg.Subscribers(room)
	reg.Leave(room, a)

	// The snapshot taken before the leave is unaffected by it.
	require.Len(t, snapshot, 1)
	require.Equal(t, 0, reg.RoomSize(room))
}

func TestRegistryConcurrentChurn(t *testing.T) {
	reg := NewRegistry()
	room := ChannelRef{ServerID: 1, ChannelID: 1}

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &memSub{}
			for j := 0; j < 100; j++ {
				reg.Join(room, sub)
				reg.Subscribers(room)
				reg.LeaveAll(sub)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, reg.RoomSize(room))
}

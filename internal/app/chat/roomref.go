/*
Package chat contains the real-time core: room references, membership
authorization, the live-subscriber registry, the message hub that persists and
fans out events, and the per-connection session.
*/
package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadRoomRef is returned when a wire-level room string does not match the
// two-variant grammar. Callers treat it as an authorization failure, never as
// a system fault.
var ErrBadRoomRef = errors.New("malformed room reference")

// RoomRef is a typed reference to a message destination, parsed once at the
// boundary so the core never operates on raw strings. The two variants are
// ChannelRef and DMRef.
type RoomRef interface {
	fmt.Stringer

	// roomRef seals the interface to the two variants defined here.
	roomRef()
}

// ChannelRef addresses a channel inside a server. Wire form:
// "server:<serverID>:channel:<channelID>".
type ChannelRef struct {
	ServerID  int64
	ChannelID int64
}

func (r ChannelRef) roomRef() {}

func (r ChannelRef) String() string {
	return fmt.Sprintf("server:%d:channel:%d", r.ServerID, r.ChannelID)
}

// DMRef addresses a direct-message or group room. Wire form: "dm:<dmID>".
type DMRef struct {
	DMID int64
}

func (r DMRef) roomRef() {}

func (r DMRef) String() string {
	return fmt.Sprintf("dm:%d", r.DMID)
}

// ParseRoomRef validates a wire-level room identifier against the exact
// two-variant grammar. Wrong arity, wrong tags, or non-positive numeric ids
// all yield ErrBadRoomRef.
func ParseRoomRef(room string) (RoomRef, error) {
	parts := strings.Split(room, ":")

	switch {
	case len(parts) == 4 && parts[0] == "server" && parts[2] == "channel":
		serverID, err := parseID(parts[1])
		if err != nil {
			return nil, ErrBadRoomRef
		}
		channelID, err := parseID(parts[3])
		if err != nil {
			return nil, ErrBadRoomRef
		}
		return ChannelRef{ServerID: serverID, ChannelID: channelID}, nil

	case len(parts) == 2 && parts[0] == "dm":
		dmID, err := parseID(parts[1])
		if err != nil {
			return nil, ErrBadRoomRef
		}
		return DMRef{DMID: dmID}, nil

	default:
		return nil, ErrBadRoomRef
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadRoomRef
	}
	return id, nil
}

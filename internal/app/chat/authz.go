package chat

import (
	"context"

	"github.com/rs/zerolog"

	"minimessenger/internal/pkg/logx"
)

// Authorizer decides membership rights for a (user, room) pair. Joining and
// posting share one rule: channel rooms resolve through server membership,
// DM/group rooms through a direct membership row. Pure reads, no side effects.
type Authorizer struct {
	store  Store
	logger zerolog.Logger
}

// NewAuthorizer constructs an Authorizer backed by the given store.
func NewAuthorizer(st Store) *Authorizer {
	return &Authorizer{
		store:  st,
		logger: logx.Logger().With().Str("component", "Authorizer").Logger(),
	}
}

// CanPost reports whether the user may post in the room. Store faults resolve
// to false: an unanswerable authorization question is a denial, not an error
// surfaced to the live channel.
func (a *Authorizer) CanPost(ctx context.Context, userID int64, ref RoomRef) bool {
	var (
		member bool
		err    error
	)

	switch room := ref.(type) {
	case ChannelRef:
		member, err = a.store.IsChannelMember(ctx, room.ChannelID, userID)
	case DMRef:
		member, err = a.store.IsDMMember(ctx, room.DMID, userID)
	default:
		return false
	}

	if err != nil {
		a.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("room", ref.String()).
			Msg("Membership check failed; denying access.")
		return false
	}

	return member
}

// CanJoin reports whether the user may subscribe to the room's live events.
// Same rule as posting in this design.
func (a *Authorizer) CanJoin(ctx context.Context, userID int64, ref RoomRef) bool {
	return a.CanPost(ctx, userID, ref)
}

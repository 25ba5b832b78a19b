package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorizerChannelMembership(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	st.addChannel(10, 100, 1)

	authz := NewAuthorizer(st)
	ctx := context.Background()
	ref := ChannelRef{ServerID: 10, ChannelID: 100}

	require.True(t, authz.CanPost(ctx, 1, ref))
	require.False(t, authz.CanPost(ctx, 2, ref))
	require.False(t, authz.CanPost(ctx, 1, ChannelRef{ServerID: 10, ChannelID: 999}))
}

func TestAuthorizerDMMembership(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addUser(2, "bob")
	st.addUser(3, "mallory")
	st.addDM(5, 1, 2)

	authz := NewAuthorizer(st)
	ctx := context.Background()
	ref := DMRef{DMID: 5}

	require.True(t, authz.CanPost(ctx, 1, ref))
	require.True(t, authz.CanPost(ctx, 2, ref))
	require.False(t, authz.CanPost(ctx, 3, ref))
}

func TestAuthorizerDeniesOnStoreFault(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addChannel(10, 100, 1)
	st.membershipErr = fmt.Errorf("connection refused")

	authz := NewAuthorizer(st)
	ctx := context.Background()

	require.False(t, authz.CanPost(ctx, 1, ChannelRef{ServerID: 10, ChannelID: 100}))
	require.False(t, authz.CanJoin(ctx, 1, DMRef{DMID: 5}))
}

func TestCanJoinMatchesCanPost(t *testing.T) {
	st := newMemStore()
	st.addUser(1, "alice")
	st.addDM(5, 1)

	authz := NewAuthorizer(st)
	ctx := context.Background()
	ref := DMRef{DMID: 5}

	require.Equal(t, authz.CanPost(ctx, 1, ref), authz.CanJoin(ctx, 1, ref))
	require.Equal(t, authz.CanPost(ctx, 2, ref), authz.CanJoin(ctx, 2, ref))
}

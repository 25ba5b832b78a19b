package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInviteToken(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		token, err := InviteToken()
		require.NoError(t, err)
		require.True(t, IsValidInviteToken(token), token)

		_, dup := seen[token]
		require.False(t, dup, "duplicate token generated: %s", token)
		seen[token] = struct{}{}
	}
}

func TestIsValidInviteToken(t *testing.T) {
	require.False(t, IsValidInviteToken(""))
	require.False(t, IsValidInviteToken("short"))
	require.False(t, IsValidInviteToken("toolongtoken1"))
	require.False(t, IsValidInviteToken("abc-1234"))
	require.False(t, IsValidInviteToken("abc 1234"))
	require.True(t, IsValidInviteToken("Abc12345"))
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("uploads/", "Photo.PNG")
	require.True(t, strings.HasPrefix(key, "uploads/"))
	require.True(t, strings.HasSuffix(key, ".png"))

	other := ObjectKey("uploads/", "Photo.PNG")
	require.NotEqual(t, key, other, "object keys must be unique per upload")

	bare := ObjectKey("uploads/", "noextension")
	require.True(t, strings.HasPrefix(bare, "uploads/"))
	require.False(t, strings.Contains(strings.TrimPrefix(bare, "uploads/"), "."))
}

/*
Package randx generates cryptographically secure random identifiers.

It produces Base62 server invite tokens and UUID-based object keys for
uploaded media files.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 character set.
	Base62Len = int64(len(Base62Chars))

	// InviteTokenLength is the fixed length of generated server invite tokens.
	InviteTokenLength = 8
)

// InviteToken generates a Base62 invite token of InviteTokenLength characters
// using crypto/rand.
func InviteToken() (string, error) {
	result := make([]byte, InviteTokenLength)

	for i := 0; i < InviteTokenLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for invite token: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsValidInviteToken checks length and character-set membership of a token.
func IsValidInviteToken(token string) bool {
	if len(token) != InviteTokenLength {
		return false
	}

	for _, char := range token {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

// ObjectKey builds a unique storage key for an uploaded file, preserving the
// original extension under a random UUID name.
func ObjectKey(prefix string, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return prefix + uuid.New().String() + ext
}

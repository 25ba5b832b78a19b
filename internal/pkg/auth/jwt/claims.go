package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims carried by a MiniMessenger session token.
// The token is the sole authority for the acting identity: core operations
// never trust a client-supplied user id, only the id recovered from a
// validated token.
type Payload struct {
	// StandardClaims embeds Exp, Iat and Iss for token validity checks.
	jwt.StandardClaims

	// UserID is the authenticated account id.
	UserID int64 `json:"uid"`

	// Username is the account's display name at issue time.
	Username string `json:"username"`
}

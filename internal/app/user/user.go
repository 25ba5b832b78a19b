/*
Package user defines the user identity view-model shared between the core chat
components and the transport layer.
*/
package user

// User is the identity information attached to sessions and broadcast events.
type User struct {
	// ID is the account's immutable database id.
	ID int64 `json:"id"`

	// Username is the account's current display name.
	Username string `json:"username"`

	// Avatar is the URI of the user's avatar image, empty when unset.
	Avatar string `json:"avatar,omitempty"`
}

package chat

import (
	"context"

	"minimessenger/internal/app/store"
	"minimessenger/internal/app/user"
)

// Message content types. Non-text payloads carry a URI minted by the upload
// path; the core never inspects media bytes.
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
	ContentTypeAudio = "audio"
	ContentTypeFile  = "file"
)

// IsValidContentType reports whether t is one of the supported message
// content types.
func IsValidContentType(t string) bool {
	switch t {
	case ContentTypeText, ContentTypeImage, ContentTypeVideo, ContentTypeAudio, ContentTypeFile:
		return true
	}
	return false
}

// Store is the persistence contract the chat core depends on. The production
// implementation is *store.Store; tests substitute an in-memory double. Every
// mutating call runs inside one store transaction, so the store is the
// serialization boundary for concurrent writers.
type Store interface {
	UserByID(ctx context.Context, id int64) (user.User, error)

	IsChannelMember(ctx context.Context, channelID, userID int64) (bool, error)
	IsDMMember(ctx context.Context, dmID, userID int64) (bool, error)
	ServerIDForChannel(ctx context.Context, channelID int64) (int64, error)

	AppendChannelMessage(ctx context.Context, channelID, senderID int64, content, contentType string) (store.MessageRecord, error)
	AppendDMMessage(ctx context.Context, dmID, senderID int64, content, contentType string) (store.MessageRecord, error)
	MessageByID(ctx context.Context, id int64) (store.MessageRecord, error)
	TombstoneMessage(ctx context.Context, id int64) error
	ChannelHistory(ctx context.Context, channelID int64, limit int) ([]store.MessageView, error)
	DMHistory(ctx context.Context, dmID int64, limit int) ([]store.MessageView, error)

	EnsureDM(ctx context.Context, userA, userB int64) (int64, error)
}

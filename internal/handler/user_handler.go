package handler

import (
	"net/http"

	"minimessenger/internal/app/chat"
	"minimessenger/internal/pkg/errs"
	"minimessenger/internal/pkg/logx"
	"minimessenger/internal/pkg/randx"
	"minimessenger/internal/pkg/req"
	"minimessenger/internal/pkg/resp"
)

// HandleGetProfile returns the acting account's identity view.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		account, err := deps.Store.UserByID(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "profile: user fetch failed", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"id":       account.ID,
			"username": account.Username,
			"avatar":   account.Avatar,
		})
	}
}

// HandleUpdateAvatar receives an image as multipart form data, stores it in
// the object backend and sets it as the acting account's avatar. Only image
// extensions are accepted.
func HandleUpdateAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		if customErr := chat.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		contentType, customErr := chat.ContentTypeForFilename(header.Filename)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if contentType != chat.ContentTypeImage {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeNotAllowed))
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		key := randx.ObjectKey("avatars/", header.Filename)
		uri, err := deps.StorageService.Upload(r.Context(), key, mimeType, file)
		if err != nil {
			logx.Error(err, "avatar upload failed", "key", key, "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		if err := deps.Store.UpdateAvatar(r.Context(), payload.UserID, uri); err != nil {
			logx.Error(err, "failed to update avatar", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"avatar": uri})
	}
}

// HandleDeleteAccount removes the acting account. Memberships, friendships,
// owned rooms and messages cascade with the user row.
func HandleDeleteAccount(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		if err := deps.Store.DeleteUser(r.Context(), payload.UserID); err != nil {
			logx.Error(err, "failed to delete account", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		logx.Info("Account deleted", "user_id", payload.UserID)
		resp.RespondSuccess(w, r, nil)
	}
}

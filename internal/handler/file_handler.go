package handler

import (
	"net/http"
	"strconv"
	"time"

	"minimessenger/internal/app/chat"
	"minimessenger/internal/pkg/errs"
	"minimessenger/internal/pkg/logx"
	"minimessenger/internal/pkg/randx"
	"minimessenger/internal/pkg/req"
	"minimessenger/internal/pkg/resp"
)

// PresignExpiration is the lifetime of a presigned media download URL.
const PresignExpiration = 15 * time.Minute

// HandleUpload receives a media file as multipart form data, stores it in the
// object backend, and submits the resulting URI to the target room as a typed
// message. Validation failures answer with JSON errors on this synchronous
// path; the submission itself follows the normal live-channel rules.
func HandleUpload(deps *AppDeps) http.HandlerFunc {
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

		room := r.FormValue("room")
		if room == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
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

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		key := randx.ObjectKey("uploads/", header.Filename)
		uri, err := deps.StorageService.Upload(r.Context(), key, mimeType, file)
		if err != nil {
			logx.Error(err, "upload failed", "key", key, "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		deps.Hub.Submit(r.Context(), payload.UserID, room, contentType, uri)

		resp.RespondSuccess(w, r, map[string]any{
			"url":          uri,
			"content_type": contentType,
		})
	}
}

// HandlePresignDownload returns a time-limited download URL for a stored
// object key.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, authErr := requireUser(r); authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		key := r.URL.Query().Get("key")
		if key == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		expiration := PresignExpiration
		if raw := r.URL.Query().Get("expires_in"); raw != "" {
			seconds, err := strconv.Atoi(raw)
			if err != nil || seconds <= 0 || seconds > 3600 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			expiration = time.Duration(seconds) * time.Second
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), key, expiration)
		if err != nil {
			logx.Error(err, "presign failed", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"url": url})
	}
}

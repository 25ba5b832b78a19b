package chat

import (
	"path/filepath"
	"strings"

	"minimessenger/internal/pkg/errs"
)

const (
	// MaxUploadSizeMB is the maximum allowed media file size in megabytes.
	MaxUploadSizeMB = 25

	// MaxUploadSize is the maximum allowed media file size in bytes.
	MaxUploadSize = MaxUploadSizeMB * 1024 * 1024
)

// extToContentType maps allowed upload extensions to the message content type
// the resulting URI payload is labelled with. Anything outside this map is
// rejected before the intent ever reaches the Hub.
var extToContentType = map[string]string{
	".png":  ContentTypeImage,
	".jpg":  ContentTypeImage,
	".jpeg": ContentTypeImage,
	".gif":  ContentTypeImage,
	".webp": ContentTypeImage,

	".mp4":  ContentTypeVideo,
	".webm": ContentTypeVideo,
	".mov":  ContentTypeVideo,
	".avi":  ContentTypeVideo,

	".mp3": ContentTypeAudio,
	".wav": ContentTypeAudio,
	".ogg": ContentTypeAudio,
	".m4a": ContentTypeAudio,

	".pdf":  ContentTypeFile,
	".doc":  ContentTypeFile,
	".docx": ContentTypeFile,
	".txt":  ContentTypeFile,
	".zip":  ContentTypeFile,
}

// ContentTypeForFilename derives the message content type from the upload's
// file extension. Disallowed or missing extensions fail validation; this is
// the synchronous path, so the caller surfaces the error as JSON.
func ContentTypeForFilename(filename string) (string, *errs.CustomError) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	contentType, ok := extToContentType[ext]
	if !ok {
		return "", errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	return contentType, nil
}

// ValidateFileSize checks an upload's size against the configured limit.
func ValidateFileSize(size int64) *errs.CustomError {
	if size <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if size > MaxUploadSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// Package storage provides media object storage on an S3-compatible backend.
// The chat core never touches it: uploads happen on the synchronous HTTP path
// and only the minted URI string enters a message payload.
package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string
}

// StorageService is the public interface of the media storage backend.
type StorageService interface {
	// Upload stores the object under key and returns its public URI.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) (string, error)

	// PresignDownload generates a time-limited download URL for a stored key.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// NewStorageService initializes the concrete S3-compatible implementation.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	return newS3Client(cfg)
}

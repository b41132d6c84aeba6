package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for blob store operations. Folder
// semantics are a key-prefix convention: renames and deletes of a "folder"
// are expressed as prefix listing plus per-object copy/delete.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// UploadFile uploads a local file to storage
	UploadFile(ctx context.Context, key string, localPath string, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// ListPrefix returns the keys of all objects under the given prefix
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// Copy copies an object to a new key within the bucket
	Copy(ctx context.Context, oldKey, newKey string) error

	// DeletePrefix deletes every object whose key starts with prefix
	DeletePrefix(ctx context.Context, prefix string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// Package storage abstracts cover-image persistence behind a Store
// interface with local-filesystem and S3-compatible implementations.
package storage

import (
	"context"
	"io"
)

// FileInfo describes a stored file.
type FileInfo struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Store saves and serves uploaded files. Implementations: LocalStore for
// development, S3Store (AWS S3 or Cloudflare R2) for production.
type Store interface {
	// Save persists the file under path and returns its metadata.
	Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error)

	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for a stored file.
	URL(path string) string
}

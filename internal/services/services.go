package services

import (
	"context"
	"io"
)

// BlobStore holds owned audio bytes (imported files and offline copies).
type BlobStore interface {
	GetBlob(id string) ([]byte, string, error)
	PutBlob(data []byte, mimeType string) (string, error)
	DeleteBlob(id string) error
}

// Fetcher downloads a whole file from a remote provider and reports its mime type.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
	Name() string
}

// Streamer opens a remote file for incremental reading.
type Streamer interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
}

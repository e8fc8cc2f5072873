// Package storage holds avatar objects. Production uses a NATS JetStream
// object store bucket; tests and local runs use the in-memory store.
package storage

import (
	"context"
	"time"
)

// ObjectStore stores named blobs with a content type.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (*ObjectInfo, error)
	Get(ctx context.Context, name string) ([]byte, *ObjectInfo, error)
	GetInfo(ctx context.Context, name string) (*ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// ObjectInfo is metadata about a stored object.
type ObjectInfo struct {
	Name        string
	Size        uint64
	ContentType string
	ModTime     time.Time
}

const defaultContentType = "application/octet-stream"

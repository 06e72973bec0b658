// Package storage streams document bytes to and from an S3-compatible bucket.
// Nothing is staged on local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"time"
)

// DocumentPrefix is the key prefix under which uploaded documents live.
const DocumentPrefix = "documents"

// ErrObjectNotFound is returned when a key has no object behind it.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions describes an upload. Size is the exact byte count, or -1
// when unknown and the backend has to chunk.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store used for uploaded documents.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get streams an object. A missing key yields ErrObjectNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that downloads key as downloadName until expiry passes.
	PresignGet(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error)
}

// DocumentKey returns the object key for a stored document file name.
func DocumentKey(name string) string {
	return path.Join(DocumentPrefix, name)
}

package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectExists is returned by Put when the key is already taken.
// Storage keys embed a random token so this practically never fires.
var ErrObjectExists = errors.New("object already exists")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the narrow contract the service consumes. Put is
// non-overwriting; Remove is best-effort from the caller's point of view.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

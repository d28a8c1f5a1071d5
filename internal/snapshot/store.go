package snapshot

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by stores when called without a key.
var ErrEmptyKey = errors.New("snapshot: empty key")

// Store is a small key-value store holding serialized snapshots.
type Store interface {
	// Get returns the stored value and whether the key existed.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

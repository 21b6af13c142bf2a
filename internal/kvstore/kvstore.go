// Package kvstore supplies the durable key-value capability the progress
// layer persists into. Values are opaque text blobs; callers own encoding.
package kvstore

import "context"

type Store interface {
	// Get returns the stored value and whether the key exists. A missing key
	// is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put inserts or overwrites the value for key.
	Put(ctx context.Context, key, value string) error
	Close() error
}

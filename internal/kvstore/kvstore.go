// Package kvstore defines the key-value contract every repository is built
// on: JSON blobs under string keys, prefix listing, and a conditional create.
// There are no transactions and no cross-key atomicity; callers must order
// their writes so a partial failure is retryable.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kvstore: key not found")

type Store interface {
	// Get returns the raw value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value under key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// PutIfAbsent writes value only if key does not exist. It reports
	// whether the write happened.
	PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

package domain

import "context"

// KeyValueStore is the persistence capability injected into the rebalancing
// lifecycle. Implementations live in internal/storage.
type KeyValueStore interface {
	// Get returns the stored value. ok is false when the key does not exist.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

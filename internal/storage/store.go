// Package storage is the agent's durable client-local state: the small
// set of keys that must survive a full-page redirect to a login or
// payment provider. The store is advisory and last-write-wins; anything
// held here is re-derivable from a fresh server round trip.
package storage

import "context"

// KeyValueStore is the persistence capability orchestrators depend on.
type KeyValueStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys under which the agent persists state. Opaque to the server.
const (
	keyReturnTarget       = "returnTo"
	keyPendingTransaction = "pendingTransaction"
	keyLocale             = "locale"
)

// PendingTransaction is the durable record that lets a purchase flow
// survive a full-page redirect to a login or payment provider.
type PendingTransaction struct {
	RedirectTarget string   `json:"redirect"`
	AppIDs         []string `json:"appIDs"`
	MissingAppIDs  []string `json:"missingAppIDs"`
}

// StateStore exposes the typed records orchestrators persist on top of
// a raw KeyValueStore.
type StateStore struct {
	kv KeyValueStore
}

// NewStateStore wraps a KeyValueStore.
func NewStateStore(kv KeyValueStore) *StateStore {
	return &StateStore{kv: kv}
}

// SaveReturnTarget records the path the user intended to reach before
// being diverted to authenticate.
func (s *StateStore) SaveReturnTarget(ctx context.Context, path string) error {
	return s.kv.Set(ctx, keyReturnTarget, path)
}

// ReturnTarget returns the persisted return target, if any.
func (s *StateStore) ReturnTarget(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, keyReturnTarget)
}

// ClearReturnTarget removes the persisted return target.
func (s *StateStore) ClearReturnTarget(ctx context.Context) error {
	return s.kv.Remove(ctx, keyReturnTarget)
}

// SavePendingTransaction persists the transaction record.
func (s *StateStore) SavePendingTransaction(ctx context.Context, txn PendingTransaction) error {
	encoded, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("encode pending transaction: %w", err)
	}
	return s.kv.Set(ctx, keyPendingTransaction, string(encoded))
}

// PendingTransaction returns the persisted transaction record, if any.
// A record that fails to decode is treated as absent: it is advisory
// state and the flow fails with a clear message rather than acting on
// a corrupt value.
func (s *StateStore) PendingTransaction(ctx context.Context) (*PendingTransaction, error) {
	raw, ok, err := s.kv.Get(ctx, keyPendingTransaction)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var txn PendingTransaction
	if err := json.Unmarshal([]byte(raw), &txn); err != nil {
		return nil, nil
	}
	return &txn, nil
}

// ClearPendingTransaction removes the persisted transaction record.
func (s *StateStore) ClearPendingTransaction(ctx context.Context) error {
	return s.kv.Remove(ctx, keyPendingTransaction)
}

// SaveLocale records the visitor's preferred locale.
func (s *StateStore) SaveLocale(ctx context.Context, locale string) error {
	return s.kv.Set(ctx, keyLocale, locale)
}

// Locale returns the persisted locale preference, if any.
func (s *StateStore) Locale(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, keyLocale)
}

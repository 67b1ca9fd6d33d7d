// Package credstore persists the client session (bearer token plus user
// profile) under two fixed keys of a durable key-value backend.
package credstore

import "context"

// KV is the durable key-value backend behind a Store. SetMany must write all
// pairs or none.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

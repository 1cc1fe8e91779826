// Package kv provides the small key-value persistence layer used for
// client-side state such as the acknowledged-notification set.
package kv

import "context"

// Store is a string-keyed byte store. Get reports absence through its boolean
// rather than an error.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

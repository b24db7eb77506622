// Package repository defines the narrow persistence interfaces the service
// depends on. The only durable state is the sealed session blob, owned by an
// external TTL key/value store.
package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals a session id that is absent or past its TTL.
var ErrNotFound = errors.New("session store: not found")

// KeepTTL instructs Put to preserve the key's remaining TTL instead of
// resetting it. Used when a token refresh rewrites the blob in place: the
// session must not outlive the lifetime it was created with.
const KeepTTL time.Duration = -1

// SessionStore persists sealed session blobs with a TTL.
//
// Writes are last-write-wins whole-blob overwrites; concurrent writers are
// never locked out. Reads from other request instances may briefly observe a
// prior value, but a write followed by a read in the same causal chain sees
// the written value.
type SessionStore interface {
	// Put upserts the blob under id with an expiry countdown, overwriting
	// any prior value.
	Put(ctx context.Context, id, blob string, ttl time.Duration) error
	// Get returns the current blob, or ErrNotFound once the TTL has elapsed.
	Get(ctx context.Context, id string) (string, error)
}

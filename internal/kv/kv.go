// Package kv holds the key/value persistence collaborators behind the statistics store.
//
// A Backend hands out one Bucket per scope (a player id). A Bucket stores whole
// values under fixed keys; there are no partial updates.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("kv: not found")

// Bucket is a key/value store scoped to a single player.
type Bucket interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Backend returns the bucket for a scope.
type Backend interface {
	Bucket(scope string) Bucket
}

package domain

import (
	"context"
	"time"
)

// IdempotencyRecord caches the outcome of a create request under the
// caller-supplied key. A key, once written, is never overwritten.
type IdempotencyRecord struct {
	Key       string
	Response  TaskRevision
	CreatedAt time.Time
}

type IdempotencyRepository interface {
	Lookup(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Store is first-write-wins: writing an existing key returns ErrConflict
	// and leaves the original record untouched.
	Store(ctx context.Context, rec *IdempotencyRecord) error
}

package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload.
var ErrIdempotencyConflict = errors.New("idempotency key reused with a different staged checkout request")

// IdempotencyRecord ties a client-supplied key to the staged request it created.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	RequestID   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists idempotency keys so staging retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record. If the key already exists the stored record is returned,
	// together with ErrIdempotencyConflict when its hash or request id differ.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}

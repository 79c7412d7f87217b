// Package lock provides per-account-number mutual exclusion for
// balance-affecting operations. Locks are scoped to a single key: two
// holders of different keys never contend. Callers acquire with a bounded
// wait and must release on every exit path (defer the Release).
package lock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTimeout is returned when a lock cannot be acquired within the caller's
// timeout. The services map it to ACCOUNT_TRANSACTION_LOCK.
var ErrTimeout = errors.New("lock: acquisition timed out")

// Token is the proof of a successful acquisition. A Token releases its key
// at most once; extra Release calls are no-ops.
type Token struct {
	Key      string
	value    string
	released atomic.Bool
}

// Locker grants at-most-one concurrent holder per key.
type Locker interface {
	// Acquire blocks until the lock for key is free or timeout elapses.
	// Waiting is interruptible via ctx; a held lock is not.
	Acquire(ctx context.Context, key string, timeout time.Duration) (*Token, error)

	// Release frees the lock held by token. Idempotent: releasing an
	// already-released token is a no-op, never a correctness hazard.
	Release(ctx context.Context, token *Token) error
}

package locker

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when the lock could not be acquired within the wait budget.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker serializes work on a key, such as all refunds of one payment.
type Locker interface {
	// Acquire blocks until the key is held or the wait budget runs out. The returned
	// function releases the lock and is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

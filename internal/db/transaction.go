package db

import (
	"context"
	"fmt"
)

// TransactionManager defines the interface for running operations in a transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (interface{}, error)) (interface{}, error)
}

// Atomic reports whether tm rolls back the writes of a failed callback.
func Atomic(tm TransactionManager) bool {
	_, noop := tm.(*NoOpTransactionManager)
	return !noop
}

// RunInTransaction runs fn inside tm and returns its typed result.
func RunInTransaction[T any](ctx context.Context, tm TransactionManager, fn func(sessCtx context.Context) (T, error)) (T, error) {
	var zero T
	res, err := tm.WithTransaction(ctx, func(sessCtx context.Context) (interface{}, error) {
		return fn(sessCtx)
	})
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("transaction returned %T, want %T", res, zero)
	}
	return typed, nil
}

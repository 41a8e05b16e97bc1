package db

import "context"

// NoOpTransactionManager runs the callback directly. It backs dev and test modes,
// where MongoDB may run as a standalone server without transaction support.
type NoOpTransactionManager struct{}

func NewNoOpTransactionManager() TransactionManager {
	return &NoOpTransactionManager{}
}

func (n *NoOpTransactionManager) WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

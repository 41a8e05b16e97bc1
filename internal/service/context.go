package service

import (
	"context"
	"marketplace_refunds/internal/models"
)

type operatorKey struct{}

// WithOperator stores the authenticated operator in ctx.
func WithOperator(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, operatorKey{}, user)
}

// OperatorFromContext returns the operator set by the auth middleware.
func OperatorFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(operatorKey{}).(*models.User)
	return user, ok && user != nil
}

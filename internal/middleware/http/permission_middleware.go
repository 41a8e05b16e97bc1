package http

import (
	"context"
	"marketplace_refunds/internal/service"
	"marketplace_refunds/pkg/relation"
	"net/http"

	"go.uber.org/zap"
)

// PermissionChecker answers whether a user holds a role on an object. *relation.Client satisfies it.
type PermissionChecker interface {
	HasUserRole(ctx context.Context, userId, namespace, object string, r relation.Role) (bool, error)
}

// PermissionMiddleware guards a console object. It runs after AuthMiddleware.
type PermissionMiddleware func(http.Handler) http.Handler

// NewPermissionMiddleware requires the operator to hold role on Console:object.
// A nil checker disables the check.
func NewPermissionMiddleware(checker PermissionChecker, object string, role relation.Role, logger *zap.Logger) PermissionMiddleware {
	log := logger.Named("PermissionMiddleware")
	return func(next http.Handler) http.Handler {
		if checker == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := service.OperatorFromContext(r.Context())
			if !ok {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			allowed, err := checker.HasUserRole(r.Context(), user.UserId.Hex(), relation.ConsoleNamespace, object, role)
			if err != nil {
				log.Error("permission check failed", zap.Error(err), zap.String("userID", user.UserId.Hex()))
				service.WriteHttpError(w, http.StatusServiceUnavailable, "Permission check unavailable")
				return
			}
			if !allowed {
				service.WriteHttpError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

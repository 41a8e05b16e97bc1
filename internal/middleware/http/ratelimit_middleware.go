package http

import (
	"marketplace_refunds/internal/limiter"
	"marketplace_refunds/internal/service"
	"net/http"
)

// CreateRateLimitMiddleware is a generator function that creates a rate-limiting middleware for a specific policy.
func CreateRateLimitMiddleware(limiterManager *limiter.Manager, policyName string) func(http.Handler) http.Handler {
	// Get the specific limiter for the policy once.
	l := limiterManager.Get(policyName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The operator is set by the AuthMiddleware.
			user, ok := service.OperatorFromContext(r.Context())
			if !ok {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: operator not found in context.")
				return
			}

			allowed, err := l.Allow(r.Context(), user.UserId.Hex())
			if err != nil {
				service.WriteHttpError(w, http.StatusInternalServerError, "Failed to check rate limit.")
				return
			}

			if !allowed {
				service.WriteHttpError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

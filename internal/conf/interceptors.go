package conf

import (
	middleware "marketplace_refunds/internal/middleware/grpc"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// NewUnaryInterceptors creates and returns a slice of gRPC UnaryServerInterceptor.
func NewUnaryInterceptors(logger *zap.Logger) []grpc.UnaryServerInterceptor {
	timeoutOverrides := map[string]time.Duration{
		"/grpc.health.v1.Health/Check": 2 * time.Second,
	}

	return []grpc.UnaryServerInterceptor{
		middleware.NewUnaryTimeoutInterceptor(timeoutOverrides),
		middleware.NewUnaryPanicInterceptor(logger),
	}
}

// NewAllowedHeaders lists the extra request headers forwarded through the gRPC-Gateway.
func NewAllowedHeaders() map[string]struct{} {
	return map[string]struct{}{
		"X-Request-Id":    {},
		"Idempotency-Key": {},
	}
}

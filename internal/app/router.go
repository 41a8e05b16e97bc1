package app

import (
	"encoding/json"
	"net/http"

	"marketplace_refunds/internal/limiter"
	http_middleware "marketplace_refunds/internal/middleware/http"
	"marketplace_refunds/internal/service"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const apiPrefix = "/api/v1/console"

// registerHealthHandler exposes the gRPC health state over plain HTTP on the gateway mux.
func registerHealthHandler(gwmux *runtime.ServeMux, healthcheck *health.Server) error {
	return gwmux.HandlePath(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		resp, err := healthcheck.Check(r.Context(), &grpc_health_v1.HealthCheckRequest{})
		w.Header().Set("Content-Type", "application/json")
		if err != nil || resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "NOT_SERVING"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": resp.GetStatus().String()})
	})
}

// NewHttpHandlerRegister creates the registrar function for the refund console endpoints.
func NewHttpHandlerRegister(
	authMiddleware http_middleware.AuthMiddleware,
	permissionMiddleware http_middleware.PermissionMiddleware,
	limiterManager *limiter.Manager,
	refundsHandler *service.RefundsHandler,
	exportHandler *service.RefundExportHandler,
) HttpHandlerRegister {
	return func(mux *http.ServeMux) {
		refundRateLimiter := http_middleware.CreateRateLimitMiddleware(limiterManager, "refunds")
		exportRateLimiter := http_middleware.CreateRateLimitMiddleware(limiterManager, "export_refunds")

		guarded := func(h http.Handler) http.Handler {
			return authMiddleware(permissionMiddleware(h))
		}

		mux.Handle("POST "+apiPrefix+"/refunds",
			guarded(refundRateLimiter(http.HandlerFunc(refundsHandler.CreateRefund))))
		mux.Handle("GET "+apiPrefix+"/refunds",
			guarded(http.HandlerFunc(refundsHandler.ListRefunds)))
		mux.Handle("GET "+apiPrefix+"/refunds/export",
			guarded(exportRateLimiter(exportHandler)))
		mux.Handle("GET "+apiPrefix+"/refunds/{id}",
			guarded(http.HandlerFunc(refundsHandler.GetRefund)))
	}
}

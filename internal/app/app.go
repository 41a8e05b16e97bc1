package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"marketplace_refunds/internal/dto"
	"marketplace_refunds/internal/service"
	"marketplace_refunds/internal/worker"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// HttpHandlerRegister defines a function that registers custom HTTP handlers.
type HttpHandlerRegister func(mux *http.ServeMux)

// App owns the console listener, the gRPC health endpoint and the background workers.
type App struct {
	httpServer  *http.Server
	gRPCServer  *grpc.Server
	healthcheck *health.Server
	workers     []worker.Worker
	workersWG   sync.WaitGroup
	port        int
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewApp creates and configures a new application server.
func NewApp(port int, logger *zap.Logger, register HttpHandlerRegister, unaryInterceptors []grpc.UnaryServerInterceptor, allowHeaders map[string]struct{}, workers []worker.Worker) (*App, func(), error) {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryInterceptors...))

	healthcheck := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthcheck)
	reflection.Register(s)

	gwmux := newGatewayMux(allowHeaders)
	if err := registerHealthHandler(gwmux, healthcheck); err != nil {
		return nil, nil, fmt.Errorf("failed to register health handler: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", gwmux)
	if register != nil {
		register(mux)
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           grpcHandlerFunc(s, mux),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		gRPCServer:  s,
		healthcheck: healthcheck,
		workers:     workers,
		port:        port,
		logger:      logger.Named("App"),
		ctx:         ctx,
		cancel:      cancel,
	}

	return a, a.shutdown, nil
}

// shutdown stops accepting requests, then waits for the workers to finish their current batch.
func (a *App) shutdown() {
	a.logger.Info("Cleanup: stopping server and workers...")
	a.healthcheck.Shutdown()
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	a.gRPCServer.GracefulStop()

	done := make(chan struct{})
	go func() {
		a.workersWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		a.logger.Warn("Workers did not stop before the shutdown deadline")
	}
	a.logger.Info("Cleanup finished.")
}

// Run serves until SIGINT or SIGTERM. The returned cleanup from NewApp finishes the shutdown.
func (a *App) Run() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", a.port, err)
	}

	for _, w := range a.workers {
		a.workersWG.Add(1)
		go func(w worker.Worker) {
			defer a.workersWG.Done()
			w.Start(a.ctx)
		}(w)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server started", zap.Int("port", a.port))
		if err := a.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		a.logger.Info("Shutting down server...")
	case err := <-serveErr:
		a.logger.Error("HTTP server Serve error", zap.Error(err))
		a.cancel()
		return fmt.Errorf("serve: %w", err)
	}

	a.cancel()
	return nil
}

// newGatewayMux builds the gateway mux; errors use the same envelope as the console handlers.
func newGatewayMux(allowHeaders map[string]struct{}) *runtime.ServeMux {
	return runtime.NewServeMux(
		runtime.WithIncomingHeaderMatcher(func(k string) (string, bool) {
			if _, ok := allowHeaders[k]; ok {
				return k, true
			}
			return runtime.DefaultHeaderMatcher(k)
		}),
		runtime.WithErrorHandler(func(ctx context.Context, mux *runtime.ServeMux, marshaler runtime.Marshaler, w http.ResponseWriter, r *http.Request, err error) {
			st, ok := status.FromError(err)
			if !ok {
				st = status.New(codes.Unknown, "Unknown error")
			}
			service.WriteJSON(w, runtime.HTTPStatusFromCode(st.Code()), dto.ErrorResponse{Error: st.Message()})
		}),
	)
}

func grpcHandlerFunc(grpcServer *grpc.Server, otherHandler http.Handler) http.Handler {
	return h2c.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ProtoMajor == 2 && strings.Contains(r.Header.Get("Content-Type"), "application/grpc") {
			grpcServer.ServeHTTP(w, r)
			return
		}
		otherHandler.ServeHTTP(w, r)
	}), &http2.Server{})
}

package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryTimeoutInterceptor(t *testing.T) {
	interceptor := NewUnaryTimeoutInterceptor(map[string]time.Duration{"/svc/Fast": 50 * time.Millisecond})

	t.Run("override applies", func(t *testing.T) {
		var deadline time.Time
		_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Fast"}, func(ctx context.Context, req interface{}) (interface{}, error) {
			deadline, _ = ctx.Deadline()
			return nil, nil
		})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
	})

	t.Run("default applies", func(t *testing.T) {
		var deadline time.Time
		_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Other"}, func(ctx context.Context, req interface{}) (interface{}, error) {
			deadline, _ = ctx.Deadline()
			return nil, nil
		})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(DefaultRequestTimeout), deadline, time.Second)
	})
}

func TestUnaryPanicInterceptor(t *testing.T) {
	interceptor := NewUnaryPanicInterceptor(zap.NewNop())

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Boom"}, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

package gateway

import (
	"context"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/helper"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStripeTestClient(t *testing.T, handler http.HandlerFunc) *StripeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewCredentialStore(&conf.GatewayConfig{
		Provider:       ProviderStripe,
		BaseURL:        srv.URL,
		AccessToken:    "sk_test_123",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return NewStripeClient(store, zap.NewNop())
}

func TestStripeClient_Refund(t *testing.T) {
	t.Run("partial refund in minor units", func(t *testing.T) {
		client := newStripeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/refunds", r.URL.Path)
			assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "pi_1", r.PostForm.Get("payment_intent"))
			assert.Equal(t, "1050", r.PostForm.Get("amount"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","amount":1050,"status":"succeeded"}`))
		})

		amount := helper.MustParseAmount("10.50")
		res, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pi_1", Amount: &amount, IdempotencyKey: "key-1"})
		require.NoError(t, err)
		assert.Equal(t, "re_1", res.ExternalRefundID)
		assert.Equal(t, "10.50", helper.FormatAmount(res.Amount))
		assert.Equal(t, StatusSucceeded, res.Status)
	})

	t.Run("full refund omits amount", func(t *testing.T) {
		client := newStripeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Empty(t, r.PostForm.Get("amount"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"re_2","object":"refund","amount":5000,"status":"pending"}`))
		})

		res, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pi_2", IdempotencyKey: "key-2"})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, res.Status)
		assert.Equal(t, "50.00", helper.FormatAmount(res.Amount))
	})

	t.Run("already refunded charge", func(t *testing.T) {
		client := newStripeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"charge_already_refunded","message":"Charge has already been refunded."}}`))
		})

		_, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pi_3", IdempotencyKey: "key-3"})
		gwErr := AsError(err)
		assert.Equal(t, KindAlreadyRefunded, gwErr.Kind)
		assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	})

	t.Run("invalid api key", func(t *testing.T) {
		client := newStripeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`))
		})

		_, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pi_4", IdempotencyKey: "key-4"})
		assert.Equal(t, KindInvalidCredentials, AsError(err).Kind)
	})

	t.Run("caller cancellation aborts the call", func(t *testing.T) {
		client := newStripeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(3 * time.Second):
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := client.Refund(ctx, &RefundRequest{PaymentID: "pi_5", IdempotencyKey: "key-5"})
		require.Error(t, err)
		assert.Equal(t, KindUnknown, AsError(err).Kind)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestProviderClient_Dispatch(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"id":"rf","amount":1,"status":"approved"}`))
	}))
	defer srv.Close()

	store := newReferenceStore(t, srv.URL)
	client := NewProviderClient(store, zap.NewNop())

	_, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pay", IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

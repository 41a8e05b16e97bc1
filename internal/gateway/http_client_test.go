package gateway

import (
	"context"
	"encoding/json"
	"io"
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

func newReferenceStore(t *testing.T, baseURL string) *CredentialStore {
	t.Helper()
	store, err := NewCredentialStore(&conf.GatewayConfig{
		Provider:       ProviderReference,
		BaseURL:        baseURL,
		AccessToken:    "test-token",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return store
}

func TestHTTPClient_Refund(t *testing.T) {
	t.Run("partial refund sends amount and headers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/payments/pay-1/refunds", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "key-1", r.Header.Get("X-Idempotency-Key"))

			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"amount": 12.35}`, string(body))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"rf-1","amount":12.35,"status":"approved"}`))
		}))
		defer srv.Close()

		client := NewHTTPClient(newReferenceStore(t, srv.URL), zap.NewNop())
		amount := helper.MustParseAmount("12.345")
		res, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pay-1", Amount: &amount, IdempotencyKey: "key-1"})
		require.NoError(t, err)
		assert.Equal(t, "rf-1", res.ExternalRefundID)
		assert.Equal(t, "12.35", helper.FormatAmount(res.Amount))
		assert.Equal(t, StatusSucceeded, res.Status)
	})

	t.Run("full refund sends empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{}`, string(body))
			_, _ = w.Write([]byte(`{"id":"rf-2","status":"in_process"}`))
		}))
		defer srv.Close()

		client := NewHTTPClient(newReferenceStore(t, srv.URL), zap.NewNop())
		res, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pay-2", IdempotencyKey: "key-2"})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, res.Status)
		assert.True(t, helper.IsZero(res.Amount))
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			name   string
			status int
			body   string
			kind   Kind
		}{
			{"unauthorized", http.StatusUnauthorized, `{"message":"invalid token"}`, KindInvalidCredentials},
			{"forbidden", http.StatusForbidden, `{"message":"forbidden"}`, KindPermissionDenied},
			{"not found", http.StatusNotFound, `{"message":"payment not found"}`, KindPaymentNotFound},
			{"already refunded", http.StatusBadRequest, `{"message":"bad_request","cause":[{"code":"2063","description":"Payment already refunded"}]}`, KindAlreadyRefunded},
			{"insufficient", http.StatusBadRequest, `{"message":"Insufficient amount in account"}`, KindInsufficientGatewayBalance},
			{"other bad request", http.StatusBadRequest, `{"message":"invalid amount"}`, KindUnknown},
			{"server error", http.StatusInternalServerError, `oops`, KindUnknown},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
					_, _ = w.Write([]byte(tc.body))
				}))
				defer srv.Close()

				client := NewHTTPClient(newReferenceStore(t, srv.URL), zap.NewNop())
				_, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pay", IdempotencyKey: "k"})
				gwErr := AsError(err)
				require.NotNil(t, gwErr)
				assert.Equal(t, tc.kind, gwErr.Kind)
				assert.Equal(t, tc.status, gwErr.StatusCode)
				assert.Equal(t, tc.body, gwErr.Raw)
			})
		}
	})

	t.Run("timeout is unknown", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		client := NewHTTPClient(newReferenceStore(t, srv.URL), zap.NewNop())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Refund(ctx, &RefundRequest{PaymentID: "pay", IdempotencyKey: "k"})
		gwErr := AsError(err)
		require.NotNil(t, gwErr)
		assert.Equal(t, KindUnknown, gwErr.Kind)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("unexpected provider status is unknown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "rf", "status": "rejected"})
		}))
		defer srv.Close()

		client := NewHTTPClient(newReferenceStore(t, srv.URL), zap.NewNop())
		_, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pay", IdempotencyKey: "k"})
		assert.Equal(t, KindUnknown, AsError(err).Kind)
	})
}

func TestCredentialStore_Rotate(t *testing.T) {
	store := newReferenceStore(t, "http://provider.local")

	err := store.Rotate(&conf.GatewayConfig{Provider: ProviderReference, AccessToken: "new", TimeoutSeconds: 5})
	require.Error(t, err)

	cfg, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "test-token", cfg.AccessToken)

	require.NoError(t, store.Rotate(&conf.GatewayConfig{Provider: ProviderStripe, AccessToken: "sk_test", TimeoutSeconds: 5}))
	cfg, err = store.Current()
	require.NoError(t, err)
	assert.Equal(t, ProviderStripe, cfg.Provider)

	var empty CredentialStore
	_, err = empty.Current()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, KindPermissionDenied.HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, KindUnknown.HTTPStatus())
	assert.Equal(t, KindUnknown.Message(), Kind("other").Message())

	plain := AsError(assert.AnError)
	assert.Equal(t, KindUnknown, plain.Kind)
	assert.ErrorIs(t, plain, assert.AnError)
	assert.Nil(t, AsError(nil))
}

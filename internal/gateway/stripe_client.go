package gateway

import (
	"context"
	"errors"
	"marketplace_refunds/internal/helper"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"
	"go.uber.org/zap"
)

// StripeClient refunds Stripe payment intents.
type StripeClient struct {
	store  *CredentialStore
	logger *zap.Logger
}

func NewStripeClient(store *CredentialStore, logger *zap.Logger) *StripeClient {
	return &StripeClient{
		store:  store,
		logger: logger.Named("StripeGateway"),
	}
}

// backend builds a Stripe API backend bounded by the configured timeout. A non-empty
// base URL points the client at another API host, such as stripe-mock.
func (c *StripeClient) backend(timeout time.Duration, baseURL string) stripe.Backend {
	bc := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     c.logger.Sugar(),
	}
	if baseURL != "" {
		bc.URL = stripe.String(baseURL)
	}
	return stripe.GetBackendWithConfig(stripe.APIBackend, bc)
}

func (c *StripeClient) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	cfg, err := c.store.Current()
	if err != nil {
		return nil, &Error{Kind: KindInvalidCredentials, Raw: err.Error(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentID),
	}
	params.Context = ctx
	if req.Amount != nil {
		minor, err := helper.Decimal128ToMinorUnits(*req.Amount)
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
		}
		params.Amount = stripe.Int64(minor)
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	sc := &refund.Client{
		B:   c.backend(cfg.Timeout(), cfg.BaseURL),
		Key: cfg.AccessToken,
	}

	r, err := sc.New(params)
	if err != nil {
		gwErr := classifyStripeError(err)
		c.logger.Info("refund rejected by stripe",
			zap.String("paymentID", req.PaymentID),
			zap.Int("status", gwErr.StatusCode),
			zap.String("kind", string(gwErr.Kind)))
		return nil, gwErr
	}

	res := &RefundResult{
		ExternalRefundID: r.ID,
		Amount:           helper.MinorUnitsToDecimal128(r.Amount),
	}
	switch r.Status {
	case stripe.RefundStatusSucceeded:
		res.Status = StatusSucceeded
	case stripe.RefundStatusPending, stripe.RefundStatusRequiresAction:
		res.Status = StatusPending
	default:
		return nil, &Error{Kind: KindUnknown, Raw: string(r.Status), Err: errors.New("stripe returned refund status " + string(r.Status))}
	}
	return res, nil
}

func classifyStripeError(err error) *Error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
	}

	e := &Error{Kind: KindUnknown, StatusCode: se.HTTPStatusCode, Raw: se.Error(), Err: err}
	switch {
	case se.Code == stripe.ErrorCodeChargeAlreadyRefunded:
		e.Kind = KindAlreadyRefunded
	case se.Code == stripe.ErrorCodeBalanceInsufficient:
		e.Kind = KindInsufficientGatewayBalance
	case se.Code == stripe.ErrorCodeResourceMissing:
		e.Kind = KindPaymentNotFound
	case se.HTTPStatusCode == http.StatusUnauthorized:
		e.Kind = KindInvalidCredentials
	case se.HTTPStatusCode == http.StatusForbidden:
		e.Kind = KindPermissionDenied
	}
	return e
}

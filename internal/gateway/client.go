package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	ProviderReference = "reference"
	ProviderStripe    = "stripe"
)

// ProviderClient picks the adapter of the currently configured provider on every call,
// so a credential rotation may also switch providers.
type ProviderClient struct {
	store     *CredentialStore
	reference Client
	stripe    Client
}

func NewProviderClient(store *CredentialStore, logger *zap.Logger) *ProviderClient {
	return &ProviderClient{
		store:     store,
		reference: NewHTTPClient(store, logger),
		stripe:    NewStripeClient(store, logger),
	}
}

func (c *ProviderClient) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	cfg, err := c.store.Current()
	if err != nil {
		return nil, &Error{Kind: KindInvalidCredentials, Raw: err.Error(), Err: err}
	}
	switch cfg.Provider {
	case ProviderReference:
		return c.reference.Refund(ctx, req)
	case ProviderStripe:
		return c.stripe.Refund(ctx, req)
	default:
		err := fmt.Errorf("unsupported gateway provider %q", cfg.Provider)
		return nil, &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
	}
}

var (
	_ Client = (*ProviderClient)(nil)
	_ Client = (*HTTPClient)(nil)
	_ Client = (*StripeClient)(nil)
)

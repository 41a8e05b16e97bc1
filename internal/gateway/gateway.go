package gateway

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the provider-side state of a refund the provider accepted.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
)

// RefundRequest asks the provider to refund a payment. A nil Amount refunds whatever the
// provider still holds for the payment.
type RefundRequest struct {
	PaymentID      string
	Amount         *primitive.Decimal128
	IdempotencyKey string
}

// RefundResult is the provider's confirmation. Amount is zero when the provider did not echo it.
type RefundResult struct {
	ExternalRefundID string
	Amount           primitive.Decimal128
	Status           Status
}

// Client issues refunds against one payment provider. Failures are always returned as *Error.
type Client interface {
	Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
}

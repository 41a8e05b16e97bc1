package dto

import (
	"marketplace_refunds/internal/constants"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/pkg/pagination"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- ProcessRefund DTOs ---

// NewProcessRefundRequest builds an engine request. A nil amount asks for everything still refundable.
func NewProcessRefundRequest(orderRef, paymentID string, amount *primitive.Decimal128, reason string, itemIDs []string, operator *models.User) *ProcessRefundRequest {
	return &ProcessRefundRequest{
		orderRef:  orderRef,
		paymentID: paymentID,
		amount:    amount,
		reason:    reason,
		itemIDs:   itemIDs,
		operator:  operator,
	}
}

type ProcessRefundRequest struct {
	orderRef    string
	paymentID   string
	amount      *primitive.Decimal128
	reason      string
	itemIDs     []string
	operator    *models.User
	clientKey   string
	requestedAt time.Time
}

// WithClientKey attaches a caller supplied idempotency key.
func (r *ProcessRefundRequest) WithClientKey(key string) *ProcessRefundRequest {
	r.clientKey = key
	return r
}

// WithRequestedAt pins the request timestamp used to derive the idempotency key.
func (r *ProcessRefundRequest) WithRequestedAt(t time.Time) *ProcessRefundRequest {
	r.requestedAt = t
	return r
}

func (r *ProcessRefundRequest) GetOrderRef() string              { return r.orderRef }
func (r *ProcessRefundRequest) GetPaymentID() string             { return r.paymentID }
func (r *ProcessRefundRequest) GetAmount() *primitive.Decimal128 { return r.amount }
func (r *ProcessRefundRequest) GetReason() string                { return r.reason }
func (r *ProcessRefundRequest) GetItemIDs() []string             { return r.itemIDs }
func (r *ProcessRefundRequest) GetOperator() *models.User        { return r.operator }
func (r *ProcessRefundRequest) GetClientKey() string             { return r.clientKey }
func (r *ProcessRefundRequest) GetRequestedAt() time.Time        { return r.requestedAt }

// RefundResult is returned after a refund was confirmed by the provider and recorded.
type RefundResult struct {
	Refund           *models.Refund
	Items            []*models.RefundItem
	AllItemsRefunded bool
	OrderStatus      constants.OrderOutcome
	// Replayed is set when the result comes from an earlier request with the same idempotency key.
	Replayed bool
}

// --- Ledger listing DTOs ---

// RefundStatusTotal aggregates ledger rows sharing one status.
type RefundStatusTotal struct {
	Status string               `bson:"_id"`
	Count  int64                `bson:"count"`
	Amount primitive.Decimal128 `bson:"amount"`
}

// ListRefundsRequest carries the ledger listing query.
type ListRefundsRequest struct {
	Status string `validate:"omitempty,oneof=pending approved rejected"`
	Search string `validate:"max=100"`
	Page   int    `validate:"gte=0"`
	Limit  int    `validate:"gte=0,lte=100"`
}

// RefundWithItems is a single ledger row with the items it covers.
type RefundWithItems struct {
	Refund *models.Refund
	Items  []*models.RefundItem
}

// ListRefundsResult is one ledger page plus per-status totals for the same search.
type ListRefundsResult struct {
	Page   *pagination.PageResult
	Totals []*RefundStatusTotal
}

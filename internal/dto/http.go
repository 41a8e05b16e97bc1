package dto

import (
	"encoding/json"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/models"
	"time"
)

// CreateRefundBody is the JSON body of POST /refunds.
type CreateRefundBody struct {
	PaymentID string       `json:"paymentId" validate:"required,max=128"`
	OrderID   string       `json:"orderId" validate:"required,max=128"`
	Amount    *json.Number `json:"amount,omitempty"`
	Reason    string       `json:"reason,omitempty" validate:"max=500"`
	Items     []string     `json:"items,omitempty" validate:"omitempty,max=500,dive,required,max=128"`
}

// RefundView is the JSON form of a ledger row.
type RefundView struct {
	ID               string           `json:"id"`
	Serial           uint64           `json:"serial"`
	OrderID          string           `json:"orderId"`
	PaymentID        string           `json:"paymentId"`
	ExternalRefundID string           `json:"externalRefundId,omitempty"`
	Amount           json.Number      `json:"amount"`
	Reason           string           `json:"reason"`
	Status           string           `json:"status"`
	GatewayKind      string           `json:"gatewayKind,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	CreatedBy        *models.User     `json:"createdBy,omitempty"`
	Items            []RefundItemView `json:"items,omitempty"`
}

// RefundItemView is the JSON form of a refund item.
type RefundItemView struct {
	OrderID     string      `json:"orderId"`
	OrderItemID string      `json:"orderItemId"`
	Amount      json.Number `json:"amount"`
}

// CreateRefundResponse is the 200 body of POST /refunds.
type CreateRefundResponse struct {
	Success          bool        `json:"success"`
	Refund           *RefundView `json:"refund"`
	AllItemsRefunded bool        `json:"allItemsRefunded"`
	OrderStatus      string      `json:"orderStatus"`
	Replayed         bool        `json:"replayed,omitempty"`
}

// ErrorResponse is the body of every failed refund request.
type ErrorResponse struct {
	Error           string       `json:"error"`
	AvailableAmount *json.Number `json:"availableAmount,omitempty"`
	Details         interface{}  `json:"details,omitempty"`
}

// StatusTotalView is one entry of the totals map.
type StatusTotalView struct {
	Count  int64       `json:"count"`
	Amount json.Number `json:"amount"`
}

// PaginationView describes the returned page.
type PaginationView struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListRefundsResponse is the body of GET /refunds.
type ListRefundsResponse struct {
	Refunds    []*RefundView              `json:"refunds"`
	Pagination PaginationView             `json:"pagination"`
	Totals     map[string]StatusTotalView `json:"totals"`
}

// NewRefundView converts a ledger row and its items for output.
func NewRefundView(r *models.Refund, items []*models.RefundItem) *RefundView {
	if r == nil {
		return nil
	}
	v := &RefundView{
		ID:               r.ID.Hex(),
		Serial:           r.Serial,
		OrderID:          r.OrderID,
		PaymentID:        r.PaymentID,
		ExternalRefundID: r.ExternalRefundID,
		Amount:           helper.AmountJSONNumber(r.Amount),
		Reason:           r.Reason,
		Status:           r.Status,
		GatewayKind:      r.GatewayKind,
		CreatedAt:        r.CreatedAt,
		CreatedBy:        r.CreatedBy,
	}
	for _, it := range items {
		v.Items = append(v.Items, RefundItemView{
			OrderID:     it.OrderID,
			OrderItemID: it.OrderItemID,
			Amount:      helper.AmountJSONNumber(it.Amount),
		})
	}
	return v
}

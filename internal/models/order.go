package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is owned by the back office. Only the refund fields are written by this service.
type Order struct {
	ID                string               `bson:"_id" json:"id"`
	ParentOrderID     string               `bson:"parent_order_id,omitempty" json:"parent_order_id,omitempty"`
	ExternalPaymentID string               `bson:"external_payment_id,omitempty" json:"external_payment_id,omitempty"`
	Total             primitive.Decimal128 `bson:"total" json:"total"`
	PaymentStatus     string               `bson:"payment_status" json:"payment_status"`
	Status            string               `bson:"status" json:"status"`
	CancelReason      string               `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	CreatedAt         time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time            `bson:"updated_at" json:"updated_at"`
	UpdatedBy         *User                `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

type OrderItem struct {
	ID         string               `bson:"_id" json:"id"`
	Order      string               `bson:"order" json:"order"`
	Name       string               `bson:"name" json:"name"`
	UnitPrice  primitive.Decimal128 `bson:"unit_price" json:"unit_price"`
	Quantity   uint32               `bson:"quantity" json:"quantity"`
	RefundedAt *time.Time           `bson:"refunded_at,omitempty" json:"refunded_at,omitempty"` // set once, never cleared
	CreatedAt  time.Time            `bson:"created_at" json:"created_at"`
}

// IsRefunded reports whether the item has already been covered by a refund.
func (i *OrderItem) IsRefunded() bool {
	return i.RefundedAt != nil && !i.RefundedAt.IsZero()
}

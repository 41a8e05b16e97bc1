package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Refund is one immutable ledger row per refund attempt.
type Refund struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Serial           uint64               `bson:"serial" json:"serial"`
	OrderID          string               `bson:"order_id" json:"order_id"`
	GroupKey         string               `bson:"group_key,omitempty" json:"group_key,omitempty"`
	PaymentID        string               `bson:"payment_id" json:"payment_id"`
	ExternalRefundID string               `bson:"external_refund_id,omitempty" json:"external_refund_id,omitempty"`
	Amount           primitive.Decimal128 `bson:"amount" json:"amount"`
	Reason           string               `bson:"reason" json:"reason"`
	Status           string               `bson:"status" json:"status"`
	IdempotencyKey   string               `bson:"idempotency_key" json:"idempotency_key"`
	// CommittedKey mirrors IdempotencyKey on approved and pending rows only. It carries a unique index.
	CommittedKey     string     `bson:"committed_key,omitempty" json:"-"`
	GatewayKind      string     `bson:"gateway_kind,omitempty" json:"gateway_kind,omitempty"`
	GatewayDetail    string     `bson:"gateway_detail,omitempty" json:"-"`
	FullRefund       bool       `bson:"full_refund" json:"full_refund"`
	AllItemsRefunded bool       `bson:"all_items_refunded" json:"all_items_refunded"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	CreatedBy        *User      `bson:"created_by" json:"created_by"`
	FlaggedAt        *time.Time `bson:"flagged_at,omitempty" json:"flagged_at,omitempty"`
}

// RefundItem links an approved refund to an order item it covers.
type RefundItem struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	RefundID    primitive.ObjectID   `bson:"refund_id" json:"refund_id"`
	OrderID     string               `bson:"order_id" json:"order_id"`
	OrderItemID string               `bson:"order_item_id" json:"order_item_id"`
	Amount      primitive.Decimal128 `bson:"amount" json:"amount"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert asks an operator to reconcile a refund against the provider's own records.
type Alert struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind             string             `bson:"kind" json:"kind"`
	RefundID         string             `bson:"refund_id,omitempty" json:"refund_id,omitempty"`
	OrderID          string             `bson:"order_id" json:"order_id"`
	PaymentID        string             `bson:"payment_id" json:"payment_id"`
	ExternalRefundID string             `bson:"external_refund_id,omitempty" json:"external_refund_id,omitempty"`
	IdempotencyKey   string             `bson:"idempotency_key" json:"idempotency_key"`
	Amount           string             `bson:"amount" json:"amount"`
	Message          string             `bson:"message" json:"message"`
	RaisedAt         time.Time          `bson:"raised_at" json:"raised_at"`
	ReceivedAt       time.Time          `bson:"received_at,omitempty" json:"-"`
}

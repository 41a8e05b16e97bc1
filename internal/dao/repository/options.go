package repository

import (
	"marketplace_refunds/internal/dao/fields"
	"marketplace_refunds/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ------------------- UpdateOptions -------------------

// UpdateOptions is an exported struct that holds the fields for a MongoDB update operation.
// It is used with the Functional Options pattern.
type UpdateOptions struct {
	SetFields bson.M
}

// NewUpdateOptions creates a new instance of UpdateOptions.
func NewUpdateOptions() *UpdateOptions {
	return &UpdateOptions{
		SetFields: bson.M{},
	}
}

// Apply runs every option and returns the resulting update document.
func (o *UpdateOptions) Apply(opts ...UpdateOption) bson.M {
	for _, opt := range opts {
		opt(o)
	}
	return bson.M{"$set": o.SetFields}
}

// UpdateOption defines a function that can modify the UpdateOptions.
type UpdateOption func(*UpdateOptions)

// WithPaymentStatus is an option to update the order's payment_status field.
func WithPaymentStatus(status string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldOrderPaymentStatus] = status
	}
}

// WithOrderStatus is an option to update the order's fulfilment status field.
func WithOrderStatus(status string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldStatus] = status
	}
}

// WithCancelReason is an option to update the order's cancel_reason field.
func WithCancelReason(reason string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldOrderCancelReason] = reason
	}
}

// WithUpdatedBy is an option to update the order's updated_by field.
func WithUpdatedBy(user *models.User) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldUpdatedBy] = user
	}
}

// WithUpdatedAt is an option to update the updated_at field.
func WithUpdatedAt(t time.Time) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldUpdatedAt] = t
	}
}

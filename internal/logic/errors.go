package logic

import (
	"errors"
	"fmt"
	"marketplace_refunds/internal/gateway"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidRequest      = errors.New("invalid refund request")
	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentMismatch     = errors.New("payment does not belong to the order")
	ErrInvalidAmount       = errors.New("refund amount must be greater than zero")
	ErrInvalidItems        = errors.New("items do not belong to the order")
	ErrItemAlreadyRefunded = errors.New("item has already been refunded")
	ErrExceedsAvailable    = errors.New("refund amount exceeds the available amount")
	ErrPaymentBusy         = errors.New("another refund for this payment is in progress")
	ErrRefundNotFound      = errors.New("refund not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrGatewayRejected     = errors.New("refund rejected by the payment provider")
	ErrNotRecorded         = errors.New("refund applied at the payment provider but not recorded")
)

// ExceedsAvailableError reports how much of the payment can still be refunded.
type ExceedsAvailableError struct {
	Requested primitive.Decimal128
	Available primitive.Decimal128
}

func (e *ExceedsAvailableError) Error() string {
	return fmt.Sprintf("%s: requested %s, available %s", ErrExceedsAvailable, helper.FormatAmount(e.Requested), helper.FormatAmount(e.Available))
}

func (e *ExceedsAvailableError) Is(target error) bool {
	return target == ErrExceedsAvailable
}

// GatewayRejectedError is returned after a failed provider call was recorded as a rejected ledger row.
// Refund is nil when even the rejected row could not be written.
type GatewayRejectedError struct {
	Refund *models.Refund
	Err    *gateway.Error
}

func (e *GatewayRejectedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrGatewayRejected, e.Err)
}

func (e *GatewayRejectedError) Is(target error) bool {
	return target == ErrGatewayRejected
}

func (e *GatewayRejectedError) Unwrap() error {
	return e.Err
}

// Message is the user-facing explanation of the rejection.
func (e *GatewayRejectedError) Message() string {
	return e.Err.Message()
}

// PersistenceError is returned when the provider confirmed a refund and every attempt to record it failed.
type PersistenceError struct {
	ExternalRefundID string
	IdempotencyKey   string
	Amount           primitive.Decimal128
	Err              error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (external refund %s): %v", ErrNotRecorded, e.ExternalRefundID, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrNotRecorded
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

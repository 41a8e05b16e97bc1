package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies provider failures.
type Kind string

const (
	KindAlreadyRefunded            Kind = "already_refunded"
	KindInsufficientGatewayBalance Kind = "insufficient_gateway_balance"
	KindPaymentNotFound            Kind = "payment_not_found"
	KindInvalidCredentials         Kind = "invalid_credentials"
	KindPermissionDenied           Kind = "permission_denied"
	KindUnknown                    Kind = "unknown"
)

var kindMessages = map[Kind]string{
	KindAlreadyRefunded:            "The payment has already been refunded",
	KindInsufficientGatewayBalance: "Insufficient balance at the payment provider to issue the refund",
	KindPaymentNotFound:            "The payment was not found at the payment provider",
	KindInvalidCredentials:         "Payment provider credentials are invalid",
	KindPermissionDenied:           "The payment provider denied permission to refund this payment",
	KindUnknown:                    "The payment provider returned an unexpected error",
}

// Message returns the stable user-facing message of the kind.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[KindUnknown]
}

// HTTPStatus mirrors the provider status code for kinds that have one.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindAlreadyRefunded, KindInsufficientGatewayBalance:
		return http.StatusBadRequest
	case KindPaymentNotFound:
		return http.StatusNotFound
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

// Error is a normalized provider failure. Raw keeps the provider payload for the ledger.
type Error struct {
	Kind       Kind
	StatusCode int
	Raw        string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Kind, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("gateway %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing message for the failure.
func (e *Error) Message() string {
	return e.Kind.Message()
}

// AsError normalizes any error returned by a Client. Errors that are not *Error become KindUnknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return &Error{Kind: KindUnknown, Raw: err.Error(), Err: err}
}

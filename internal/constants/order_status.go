package constants

type OrderStatus int
type PaymentStatus int

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusPending
	OrderStatusProcessing
	OrderStatusShipped
	OrderStatusDelivered
	OrderStatusCancelled
)

const (
	PaymentStatusUnset PaymentStatus = iota
	PaymentStatusApproved
	PaymentStatusPartiallyRefunded
	PaymentStatusRefunded
	PaymentStatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusProcessing:
		return "processing"
	case OrderStatusShipped:
		return "shipped"
	case OrderStatusDelivered:
		return "delivered"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var orderStatusMap = map[string]OrderStatus{
	"pending":    OrderStatusPending,
	"processing": OrderStatusProcessing,
	"shipped":    OrderStatusShipped,
	"delivered":  OrderStatusDelivered,
	"cancelled":  OrderStatusCancelled,
	"canceled":   OrderStatusCancelled,
	"unknown":    OrderStatusUnknown,
}

func ParseOrderStatus(s string) OrderStatus {
	if status, ok := orderStatusMap[s]; ok {
		return status
	}
	return OrderStatusUnknown
}

// String returns the persisted form. PaymentStatusUnset is stored as an empty string.
func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusApproved:
		return "approved"
	case PaymentStatusPartiallyRefunded:
		return "partially_refunded"
	case PaymentStatusRefunded:
		return "refunded"
	case PaymentStatusCancelled:
		return "cancelled"
	default:
		return ""
	}
}

var paymentStatusMap = map[string]PaymentStatus{
	"":                   PaymentStatusUnset,
	"approved":           PaymentStatusApproved,
	"partially_refunded": PaymentStatusPartiallyRefunded,
	"refunded":           PaymentStatusRefunded,
	"cancelled":          PaymentStatusCancelled,
}

func ParsePaymentStatus(s string) PaymentStatus {
	if status, ok := paymentStatusMap[s]; ok {
		return status
	}
	return PaymentStatusUnset
}

// IsRefundState reports whether items of an order in this state may carry a refunded_at stamp.
func (s PaymentStatus) IsRefundState() bool {
	return s == PaymentStatusPartiallyRefunded || s == PaymentStatusRefunded
}

package constants

// RefundStatus is the lifecycle state of a single ledger row.
type RefundStatus int

const (
	RefundStatusUnknown RefundStatus = iota
	RefundStatusPending
	RefundStatusApproved
	RefundStatusRejected
)

func (s RefundStatus) String() string {
	switch s {
	case RefundStatusPending:
		return "pending"
	case RefundStatusApproved:
		return "approved"
	case RefundStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var refundStatusMap = map[string]RefundStatus{
	"pending":  RefundStatusPending,
	"approved": RefundStatusApproved,
	"rejected": RefundStatusRejected,
}

func ParseRefundStatus(s string) RefundStatus {
	if status, ok := refundStatusMap[s]; ok {
		return status
	}
	return RefundStatusUnknown
}

// IsCommitted reports whether rows in this state count against the refundable total.
func (s RefundStatus) IsCommitted() bool {
	return s == RefundStatusPending || s == RefundStatusApproved
}

// CommittedRefundStatuses lists the persisted values that count against the refundable total.
func CommittedRefundStatuses() []string {
	return []string{RefundStatusApproved.String(), RefundStatusPending.String()}
}

// OrderOutcome is the summary status reported to the caller after a successful refund.
type OrderOutcome string

const (
	OrderOutcomeCancelled     OrderOutcome = "CANCELLED"
	OrderOutcomePartialRefund OrderOutcome = "PARTIAL_REFUND"
)

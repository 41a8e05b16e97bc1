package constants

// RefundEvent names the domain events emitted through the outbox.
type RefundEvent string

const (
	RefundEventApproved RefundEvent = "refund.approved"
	RefundEventPending  RefundEvent = "refund.pending"
	RefundEventRejected RefundEvent = "refund.rejected"
)

// String returns the string representation of the RefundEvent.
func (e RefundEvent) String() string {
	return string(e)
}

// AlertKind classifies operator alerts.
type AlertKind string

const (
	// AlertKindNotRecorded means the provider confirmed a refund that could not be written to the ledger.
	AlertKindNotRecorded AlertKind = "refund_not_recorded"
	// AlertKindUnreconciled means a rejected attempt ended in an unknown provider state.
	AlertKindUnreconciled AlertKind = "unreconciled_attempt"
	// AlertKindRejectionNotRecorded means a provider rejection could not be written to the ledger.
	AlertKindRejectionNotRecorded AlertKind = "rejection_not_recorded"
)

func (k AlertKind) String() string {
	return string(k)
}

package fields

const (
	FieldObjectId  = "_id"
	FieldCreatedAt = "created_at"
	FieldCreatedBy = "created_by"
	FieldUpdatedAt = "updated_at"
	FieldUpdatedBy = "updated_by"
	FieldStatus    = "status"

	FieldOrderParentOrderID = "parent_order_id"
	FieldOrderPaymentStatus = "payment_status"
	FieldOrderCancelReason  = "cancel_reason"
	FieldOrderTotal         = "total"

	FieldOrderItemOrder      = "order"
	FieldOrderItemRefundedAt = "refunded_at"

	FieldRefundOrderID          = "order_id"
	FieldRefundPaymentID        = "payment_id"
	FieldRefundAmount           = "amount"
	FieldRefundReason           = "reason"
	FieldRefundExternalRefundID = "external_refund_id"
	FieldRefundIdempotencyKey   = "idempotency_key"
	FieldRefundCommittedKey     = "committed_key"
	FieldRefundGatewayKind      = "gateway_kind"
	FieldRefundFlaggedAt        = "flagged_at"

	FieldRefundItemRefundID    = "refund_id"
	FieldRefundItemOrderItemID = "order_item_id"

	FieldAlertIdempotencyKey = "idempotency_key"
	FieldAlertKind           = "kind"
	FieldAlertRaisedAt       = "raised_at"
)

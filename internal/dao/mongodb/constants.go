package mongodb

const (
	CollectionOrders      = "orders"
	CollectionOrderItems  = "order_items"
	CollectionRefunds     = "refunds"
	CollectionRefundItems = "refund_items"
	CollectionOutbox      = "outbox"
	CollectionAuditLogs   = "audit_logs"
	CollectionAlerts      = "reconciliation_alerts"
)
